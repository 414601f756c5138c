package service

import (
	"context"
	"crypto/sha1"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Artify24/student-managment-system/internal/dto"
	"github.com/Artify24/student-managment-system/internal/models"
	"github.com/Artify24/student-managment-system/internal/repository"
	appErrors "github.com/Artify24/student-managment-system/pkg/errors"
	"github.com/Artify24/student-managment-system/pkg/jobs"
	"github.com/Artify24/student-managment-system/pkg/storage"
)

const reportCleanupBatch = 100

type reportJobStore interface {
	Create(ctx context.Context, job *models.ReportJob) error
	GetByID(ctx context.Context, id string) (*models.ReportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error
	ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type exportGenerator interface {
	Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error)
}

type exportArtifacts interface {
	ParseToken(token string, allowExpired bool) (*storage.Claims, error)
	Open(relPath string) (*os.File, error)
	Delete(relPath string) error
	Cleanup(ttl time.Duration) ([]string, error)
}

// ReportServiceConfig governs report caching, retention and cleanup.
type ReportServiceConfig struct {
	ResultTTL       time.Duration
	CacheTTL        time.Duration
	CleanupSchedule string
}

// ReportServiceParams groups constructor dependencies.
type ReportServiceParams struct {
	Records attendanceRecordStore
	Jobs    reportJobStore
	Queue   jobDispatcher
	Exports exportArtifacts
	Cache   *CacheService
	Metrics *MetricsService
	Logger  *zap.Logger
	Config  ReportServiceConfig
}

// ReportService serves attendance reports and orchestrates export jobs.
type ReportService struct {
	records attendanceRecordStore
	repo    reportJobStore
	queue   jobDispatcher
	exports exportArtifacts
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	cfg     ReportServiceConfig
}

// ReportDownload aggregates resolved download data.
type ReportDownload struct {
	File      *os.File
	Filename  string
	Format    models.ReportFormat
	ExpiresAt time.Time
}

// NewReportService constructs the report service.
func NewReportService(params ReportServiceParams) *ReportService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := params.Config
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	return &ReportService{
		records: params.Records,
		repo:    params.Jobs,
		queue:   params.Queue,
		exports: params.Exports,
		cache:   params.Cache,
		metrics: params.Metrics,
		logger:  logger,
		cfg:     cfg,
	}
}

// Attendance returns the filtered attendance records with summary statistics.
// The bool reports whether the payload came from cache.
func (s *ReportService) Attendance(ctx context.Context, req dto.AttendanceReportRequest) (*dto.AttendanceReportResponse, bool, error) {
	if err := validateReportFilters(req); err != nil {
		return nil, false, err
	}
	load := func(ctx context.Context) (*dto.AttendanceReportResponse, error) {
		records, err := s.records.List(ctx, req.Filter())
		if err != nil {
			return nil, err
		}
		return &dto.AttendanceReportResponse{Records: records, Stats: SummariseAttendance(records)}, nil
	}
	report, hit, err := remember(ctx, s.cache, attendanceReportKey(req), s.cfg.CacheTTL, load)
	if err != nil {
		return nil, false, appErrors.Persistence(err, "failed to load attendance report")
	}
	return report, hit, nil
}

// CreateExportJob persists an export job and hands it to the worker queue.
func (s *ReportService) CreateExportJob(ctx context.Context, req dto.ExportReportRequest) (*dto.ReportJobResponse, error) {
	if !req.Format.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported report format")
	}
	if err := validateReportFilters(req.Filters); err != nil {
		return nil, err
	}
	f := req.Filters
	job := &models.ReportJob{
		Type: models.ReportTypeAttendance,
		Params: models.ReportJobParams{
			Format:     req.Format,
			CourseName: f.CourseName,
			Branch:     f.Branch,
			Status:     f.Status,
			Search:     f.Search,
			DateFrom:   f.DateFrom,
			DateTo:     f.DateTo,
		},
		Status: models.ReportStatusQueued,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Persistence(err, "failed to create report job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Type)}); err != nil {
		failed := models.ReportStatusFailed
		msg := "failed to enqueue job"
		now := time.Now().UTC()
		progress := 100
		if updateErr := s.repo.Update(ctx, job.ID, repository.UpdateReportJobParams{
			Status:       &failed,
			Progress:     &progress,
			ErrorMessage: &msg,
			FinishedAt:   &now,
		}); updateErr != nil {
			s.logger.Warn("failed to mark job failed", zap.String("job_id", job.ID), zap.Error(updateErr))
		}
		s.metrics.ObserveReportJob(job.Params.Format, failed)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue report job")
	}
	s.metrics.ObserveReportJob(job.Params.Format, job.Status)
	s.logger.Info("report job queued", zap.String("job_id", job.ID), zap.String("format", string(job.Params.Format)))
	return &dto.ReportJobResponse{ID: job.ID, Status: job.Status, Progress: job.Progress}, nil
}

// GetStatus exposes job metadata to clients.
func (s *ReportService) GetStatus(ctx context.Context, id string) (*dto.ReportStatusResponse, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, appErrors.Persistence(err, "failed to load report job")
	}
	resp := &dto.ReportStatusResponse{
		ID:        job.ID,
		Status:    job.Status,
		Progress:  job.Progress,
		ResultURL: job.ResultURL,
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		resp.Error = job.ErrorMessage
	}
	return resp, nil
}

// ResolveDownload validates the token and opens the stored export file.
func (s *ReportService) ResolveDownload(ctx context.Context, token string) (*ReportDownload, error) {
	claims, err := s.exports.ParseToken(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.repo.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, appErrors.Persistence(err, "failed to load report job")
	}
	if job.ResultURL == nil || !strings.HasSuffix(*job.ResultURL, token) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	if job.Status != models.ReportStatusFinished {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "report not ready")
	}
	file, err := s.exports.Open(claims.Path)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export file not found")
	}
	return &ReportDownload{
		File:      file,
		Filename:  filepath.Base(claims.Path),
		Format:    job.Params.Format,
		ExpiresAt: claims.ExpiresAt,
	}, nil
}

// RecoverPendingJobs replays queued jobs after a restart.
func (s *ReportService) RecoverPendingJobs(ctx context.Context) {
	pending, err := s.repo.ListQueued(ctx, 50)
	if err != nil {
		s.logger.Warn("failed to recover queued report jobs", zap.Error(err))
		return
	}
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Type)}); err != nil {
			s.logger.Warn("failed to requeue pending job", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
	if len(pending) > 0 {
		s.logger.Info("recovered queued report jobs", zap.Int("count", len(pending)))
	}
}

// StartCleanup schedules CleanupExpired on the configured cron spec until ctx ends.
func (s *ReportService) StartCleanup(ctx context.Context) error {
	if s.cfg.CleanupSchedule == "" {
		return nil
	}
	logger := cronLogger{s.logger.Sugar()}
	scheduler := cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))
	if _, err := scheduler.AddFunc(s.cfg.CleanupSchedule, func() {
		if _, err := s.CleanupExpired(ctx); err != nil {
			s.logger.Warn("report cleanup failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule report cleanup %q: %w", s.cfg.CleanupSchedule, err)
	}
	scheduler.Start()
	go func() {
		<-ctx.Done()
		<-scheduler.Stop().Done()
	}()
	s.logger.Info("report cleanup scheduled", zap.String("schedule", s.cfg.CleanupSchedule))
	return nil
}

// CleanupExpired deletes files of jobs finished before the retention window,
// marks those jobs expired and sweeps orphaned files. It returns the number of
// jobs expired.
func (s *ReportService) CleanupExpired(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.cfg.ResultTTL)
	expired := 0
	for {
		batch, err := s.repo.ListFinishedBefore(ctx, cutoff, reportCleanupBatch)
		if err != nil {
			return expired, err
		}
		progressed := false
		for _, job := range batch {
			if job.ResultURL != nil {
				if claims, err := s.exports.ParseToken(extractToken(*job.ResultURL), true); err == nil {
					if err := s.exports.Delete(claims.Path); err != nil {
						s.logger.Warn("cleanup delete failed", zap.String("job_id", job.ID), zap.Error(err))
					}
				}
			}
			status := models.ReportStatusExpired
			if err := s.repo.Update(ctx, job.ID, repository.UpdateReportJobParams{Status: &status}); err != nil {
				s.logger.Warn("failed to mark job expired", zap.String("job_id", job.ID), zap.Error(err))
				continue
			}
			s.metrics.ObserveReportJob(job.Params.Format, status)
			expired++
			progressed = true
		}
		if len(batch) < reportCleanupBatch || !progressed {
			break
		}
	}
	removed, err := s.exports.Cleanup(s.cfg.ResultTTL)
	if err != nil {
		return expired, err
	}
	if expired > 0 || len(removed) > 0 {
		s.logger.Info("report cleanup finished", zap.Int("expired_jobs", expired), zap.Int("removed_files", len(removed)))
	}
	return expired, nil
}

func validateReportFilters(req dto.AttendanceReportRequest) error {
	if req.Branch != "" && !req.Branch.Valid() {
		return appErrors.Clone(appErrors.ErrInvalidArgument, "invalid branch")
	}
	if req.Status != "" && !req.Status.Valid() {
		return appErrors.Clone(appErrors.ErrInvalidArgument, "invalid status")
	}
	if req.DateFrom != nil && req.DateTo != nil && req.DateFrom.After(*req.DateTo) {
		return appErrors.Clone(appErrors.ErrInvalidArgument, "from must not be after to")
	}
	return nil
}

func attendanceReportKey(req dto.AttendanceReportRequest) string {
	raw, _ := json.Marshal(req)
	sum := sha1.Sum(raw)
	return "report:attendance:" + hex.EncodeToString(sum[:8])
}

func extractToken(url string) string {
	if url == "" {
		return ""
	}
	parts := strings.Split(url, "/")
	return parts[len(parts)-1]
}

type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}

// ReportWorker bridges queue jobs to ExportService.
type ReportWorker struct {
	repo       reportJobStore
	exporter   exportGenerator
	metrics    *MetricsService
	logger     *zap.Logger
	maxRetries int
}

// NewReportWorker constructs a worker. maxRetries must match the queue's retry budget.
func NewReportWorker(repo reportJobStore, exporter exportGenerator, metrics *MetricsService, maxRetries int, logger *zap.Logger) *ReportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &ReportWorker{repo: repo, exporter: exporter, metrics: metrics, logger: logger, maxRetries: maxRetries}
}

// Handle processes a queue job.
func (w *ReportWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.repo.GetByID(ctx, job.ID)
	if err != nil {
		return err
	}
	processing := models.ReportStatusProcessing
	progress := 10
	if err := w.repo.Update(ctx, job.ID, repository.UpdateReportJobParams{Status: &processing, Progress: &progress}); err != nil {
		return err
	}

	result, err := w.exporter.Generate(ctx, record)
	if err != nil {
		w.markFailure(ctx, job, record.Params.Format, err)
		return err
	}

	finished := models.ReportStatusFinished
	progress = 100
	now := time.Now().UTC()
	url := result.URL
	clear := ""
	if err := w.repo.Update(ctx, job.ID, repository.UpdateReportJobParams{
		Status:       &finished,
		Progress:     &progress,
		ResultURL:    &url,
		ErrorMessage: &clear,
		FinishedAt:   &now,
	}); err != nil {
		w.logger.Warn("failed to mark job finished", zap.String("job_id", job.ID), zap.Error(err))
		return err
	}
	w.metrics.ObserveReportJob(record.Params.Format, finished)
	return nil
}

func (w *ReportWorker) markFailure(ctx context.Context, job jobs.Job, format models.ReportFormat, cause error) {
	msg := cause.Error()
	params := repository.UpdateReportJobParams{ErrorMessage: &msg}
	status := models.ReportStatusQueued
	progress := 0
	if job.Attempt >= w.maxRetries {
		status = models.ReportStatusFailed
		progress = 100
		now := time.Now().UTC()
		params.FinishedAt = &now
		w.metrics.ObserveReportJob(format, status)
	}
	params.Status = &status
	params.Progress = &progress
	if err := w.repo.Update(ctx, job.ID, params); err != nil {
		w.logger.Warn("failed to record job failure", zap.String("job_id", job.ID), zap.String("status", string(status)), zap.Error(err))
	}
}
