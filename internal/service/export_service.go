package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Artify24/student-managment-system/internal/models"
	"github.com/Artify24/student-managment-system/pkg/export"
	"github.com/Artify24/student-managment-system/pkg/storage"
)

type attendanceRecordStore interface {
	List(ctx context.Context, filter models.AttendanceRecordFilter) ([]models.AttendanceRecord, error)
}

type fileStorage interface {
	Save(name string, data []byte) (string, error)
	Open(name string) (*os.File, error)
	Delete(name string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

var attendanceExportHeaders = []string{"Session ID", "Course", "Date", "Time", "Student ID", "Student Name", "Status", "Branch"}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService renders attendance reports and stores them behind signed URLs.
type ExportService struct {
	records   attendanceRecordStore
	storage   fileStorage
	renderers map[models.ReportFormat]export.Renderer
	signer    *storage.SignedURLSigner
	logger    *zap.Logger
	cfg       ExportConfig
	now       func() time.Time
}

// NewExportService constructs an ExportService with CSV, PDF and XLSX renderers.
func NewExportService(records attendanceRecordStore, files fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	cfg.APIPrefix = strings.TrimRight(cfg.APIPrefix, "/")
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	return &ExportService{
		records: records,
		storage: files,
		renderers: map[models.ReportFormat]export.Renderer{
			models.ReportFormatCSV:  export.NewCSVExporter(),
			models.ReportFormatPDF:  export.NewPDFExporter(),
			models.ReportFormatXLSX: export.NewXLSXExporter(),
		},
		signer: signer,
		logger: logger,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Generate renders the job's attendance report and stores it.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	if job.Type != models.ReportTypeAttendance {
		return nil, fmt.Errorf("unsupported report type %s", job.Type)
	}
	renderer, ok := s.renderers[job.Params.Format]
	if !ok {
		return nil, fmt.Errorf("unsupported format %s", job.Params.Format)
	}

	records, err := s.records.List(ctx, job.Params.Filter())
	if err != nil {
		return nil, err
	}
	payload, err := renderer.Render(s.attendanceDataset(records))
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", job.Params.Format, err)
	}

	relPath, err := s.storage.Save(s.buildFilename(job), payload)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	s.logger.Info("report export stored",
		zap.String("job_id", job.ID),
		zap.String("file", relPath),
		zap.Int("records", len(records)),
	)
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/export/%s", s.cfg.APIPrefix, token),
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (*storage.Claims, error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl, or the configured result TTL when ttl <= 0.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) attendanceDataset(records []models.AttendanceRecord) export.Dataset {
	stats := SummariseAttendance(records)
	rows := make([]map[string]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, map[string]string{
			"Session ID":   strconv.FormatInt(r.SessionID, 10),
			"Course":       r.CourseName,
			"Date":         r.Date.Format("2006-01-02"),
			"Time":         r.Time,
			"Student ID":   strconv.FormatInt(r.StudentID, 10),
			"Student Name": r.StudentName,
			"Status":       string(r.Status),
			"Branch":       string(r.Branch),
		})
	}
	return export.Dataset{
		Title: "Attendance Report Summary",
		Summary: []export.SummaryItem{
			{Label: "Generated Date", Value: s.now().Format("2006-01-02")},
			{Label: "Total Sessions", Value: strconv.Itoa(stats.TotalSessions)},
			{Label: "Total Records", Value: strconv.Itoa(stats.TotalRecords)},
			{Label: "Total Present", Value: strconv.Itoa(stats.TotalPresent)},
			{Label: "Total Absent", Value: strconv.Itoa(stats.TotalAbsent)},
			{Label: "Average Attendance Rate", Value: fmt.Sprintf("%d%%", stats.AverageAttendance)},
		},
		TableTitle: "Detailed Attendance Records",
		Headers:    attendanceExportHeaders,
		Rows:       rows,
	}
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	suffix := sanitizeFilename(job.ID)
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return fmt.Sprintf("attendance/attendance_report_%s_%s.%s", s.now().UTC().Format("2006-01-02"), suffix, job.Params.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	return replacer.Replace(raw)
}
