package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/Artify24/student-managment-system/api/swagger"
	"github.com/Artify24/student-managment-system/internal/handler"
	"github.com/Artify24/student-managment-system/internal/repository"
	"github.com/Artify24/student-managment-system/internal/service"
	"github.com/Artify24/student-managment-system/pkg/cache"
	"github.com/Artify24/student-managment-system/pkg/config"
	"github.com/Artify24/student-managment-system/pkg/database"
	"github.com/Artify24/student-managment-system/pkg/jobs"
	"github.com/Artify24/student-managment-system/pkg/logger"
	"github.com/Artify24/student-managment-system/pkg/storage"
)

// @title Attendance Admin API
// @version 1.0.0
// @description Students, courses, sessions and attendance reconciliation for the institute admin panel
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(db.DB, logr); err != nil {
			logr.Sugar().Fatalw("migrations failed", "error", err)
		}
	}

	metricsSvc := service.NewMetricsService()
	checks := map[string]handler.ReadinessCheck{
		"database": func(ctx context.Context) error { return db.PingContext(ctx) },
	}

	var cacheSvc *service.CacheService
	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
	}
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, "attendance", logr)
		defer cacheRepo.Close() //nolint:errcheck
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled)
		checks["redis"] = cacheRepo.Ping
	}

	reportFiles, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("report storage init failed", "dir", cfg.Reports.StorageDir, "error", err)
	}
	uploadFiles, err := storage.NewLocalStorage(cfg.Uploads.Dir)
	if err != nil {
		logr.Sugar().Fatalw("upload storage init failed", "dir", cfg.Uploads.Dir, "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)

	validate := validator.New()

	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	recordRepo := repository.NewAttendanceRecordRepository(db)
	reportRepo := repository.NewReportRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)

	rosterSvc := service.NewRosterService(courseRepo, logr)
	attendanceSvc := service.NewAttendanceService(service.AttendanceServiceParams{
		TxProvider: db,
		Sessions:   sessionRepo,
		Students:   studentRepo,
		Roster:     rosterSvc,
		Cache:      cacheSvc,
		Metrics:    metricsSvc,
		Logger:     logr,
		Config:     service.AttendanceServiceConfig{Timeout: cfg.Attendance.ReconcileTimeout},
	})
	studentSvc := service.NewStudentService(service.StudentServiceParams{
		TxProvider: db,
		Students:   studentRepo,
		Courses:    courseRepo,
		Images:     uploadFiles,
		Cache:      cacheSvc,
		Validator:  validate,
		Logger:     logr,
		Config: service.StudentServiceConfig{
			ImageSize:      cfg.Uploads.ImageSize,
			ImageURLPrefix: cfg.Uploads.URLPrefix,
		},
	})
	courseSvc := service.NewCourseService(courseRepo, validate, logr)
	sessionSvc := service.NewSessionService(sessionRepo, courseRepo, cacheSvc, logr, service.SessionServiceConfig{
		PublicBaseURL: cfg.PublicBaseURL,
	})
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Repo:    dashboardRepo,
		Cache:   cacheSvc,
		Metrics: metricsSvc,
		Logger:  logr,
		Config:  service.DashboardServiceConfig{CacheTTL: cfg.Dashboard.CacheTTL},
	})

	exportSvc := service.NewExportService(recordRepo, reportFiles, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Reports.SignedURLTTL,
	}, logr)
	worker := service.NewReportWorker(reportRepo, exportSvc, metricsSvc, cfg.Reports.WorkerRetries, logr)
	queue := jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		RetryDelay: 2 * time.Second,
		Logger:     logr,
		OnGiveUp: func(job jobs.Job, err error) {
			logr.Error("report job abandoned", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
		},
	})
	queue.Start(ctx)

	reportSvc := service.NewReportService(service.ReportServiceParams{
		Records: recordRepo,
		Jobs:    reportRepo,
		Queue:   queue,
		Exports: exportSvc,
		Cache:   cacheSvc,
		Metrics: metricsSvc,
		Logger:  logr,
		Config: service.ReportServiceConfig{
			ResultTTL:       cfg.Reports.SignedURLTTL,
			CleanupSchedule: cfg.Reports.CleanupSchedule,
		},
	})
	reportSvc.RecoverPendingJobs(ctx)
	if err := reportSvc.StartCleanup(ctx); err != nil {
		logr.Sugar().Fatalw("report cleanup schedule invalid", "error", err)
	}

	r := newRouter(cfg, logr, routerDeps{
		metrics:    metricsSvc,
		uploadsDir: filepath.Clean(uploadFiles.Dir()),
		attendance: handler.NewAttendanceHandler(attendanceSvc),
		sessions:   handler.NewSessionHandler(sessionSvc),
		students:   handler.NewStudentHandler(studentSvc, cfg.Uploads.MaxBytes),
		courses:    handler.NewCourseHandler(courseSvc, rosterSvc),
		reports:    handler.NewReportHandler(reportSvc),
		dashboard:  handler.NewDashboardHandler(dashboardSvc),
		system:     handler.NewMetricsHandler(metricsSvc, checks, logr),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
	queue.Stop()
}
