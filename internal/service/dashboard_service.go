package service

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/Artify24/student-managment-system/internal/dto"
	"github.com/Artify24/student-managment-system/internal/repository"
	appErrors "github.com/Artify24/student-managment-system/pkg/errors"
)

const dashboardCacheKey = "dash:admin"

type dashboardRepository interface {
	Totals(ctx context.Context, dayStart time.Time) (*repository.DashboardTotals, error)
	StudentsByBranch(ctx context.Context) ([]dto.BranchCount, error)
	LowAttendance(ctx context.Context, limit int) ([]dto.StudentRatio, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL           time.Duration
	LowAttendanceLimit int
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Repo    dashboardRepository
	Cache   *CacheService
	Metrics *MetricsService
	Logger  *zap.Logger
	Config  DashboardServiceConfig
}

// DashboardService composes the admin dashboard payload.
type DashboardService struct {
	repo    dashboardRepository
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
	cfg     DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.LowAttendanceLimit <= 0 {
		cfg.LowAttendanceLimit = 5
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		repo:    params.Repo,
		cache:   params.Cache,
		metrics: params.Metrics,
		logger:  logger,
		now:     time.Now,
		cfg:     cfg,
	}
}

// Admin returns the dashboard summary and whether it was served from cache.
func (s *DashboardService) Admin(ctx context.Context) (*dto.DashboardResponse, bool, error) {
	resp, hit, err := remember(ctx, s.cache, dashboardCacheKey, s.cfg.CacheTTL, s.build)
	if err != nil {
		s.logger.Error("dashboard build failed", zap.Error(err))
		return nil, false, appErrors.Persistence(err, "failed to load dashboard")
	}
	return resp, hit, nil
}

func (s *DashboardService) build(ctx context.Context) (*dto.DashboardResponse, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveDBQuery("dashboard", time.Since(start)) }()

	now := s.now()
	totals, err := s.repo.Totals(ctx, startOfDay(now))
	if err != nil {
		return nil, err
	}
	byBranch, err := s.repo.StudentsByBranch(ctx)
	if err != nil {
		return nil, err
	}
	low, err := s.repo.LowAttendance(ctx, s.cfg.LowAttendanceLimit)
	if err != nil {
		return nil, err
	}
	for i := range low {
		low[i].Rate = ratio(low[i].Present, low[i].Present+low[i].Absent)
	}

	return &dto.DashboardResponse{
		TotalStudents:   totals.TotalStudents,
		TotalCourses:    totals.TotalCourses,
		TotalSessions:   totals.TotalSessions,
		ActiveSessions:  totals.ActiveSessions,
		TodaySessions:   totals.TodaySessions,
		AttendanceRate:  ratio(totals.TotalPresent, totals.TotalPresent+totals.TotalAbsent),
		FeesOutstanding: totals.FeesOutstanding,
		ByBranch:        byBranch,
		LowAttendance:   low,
		GeneratedAt:     now.UTC(),
	}, nil
}

// ratio is part/total as a percentage rounded to two decimals.
func ratio(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*10000) / 100
}
