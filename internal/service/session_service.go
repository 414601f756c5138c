package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/Artify24/student-managment-system/internal/dto"
	"github.com/Artify24/student-managment-system/internal/models"
	appErrors "github.com/Artify24/student-managment-system/pkg/errors"
)

type sessionRepository interface {
	List(ctx context.Context, filter models.SessionFilter) ([]models.SessionDetail, error)
	FindByID(ctx context.Context, id int64) (*models.SessionDetail, error)
	Create(ctx context.Context, session *models.Session) error
}

type courseLookup interface {
	ExistsByName(ctx context.Context, name string) (bool, error)
}

// SessionServiceConfig controls links embedded in session QR codes.
type SessionServiceConfig struct {
	PublicBaseURL string
	QRSize        int
}

// SessionService manages class sessions.
type SessionService struct {
	repo    sessionRepository
	courses courseLookup
	cache   *CacheService
	logger  *zap.Logger
	cfg     SessionServiceConfig
	now     func() time.Time
}

// NewSessionService constructs the session service.
func NewSessionService(repo sessionRepository, courses courseLookup, cache *CacheService, logger *zap.Logger, cfg SessionServiceConfig) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.QRSize <= 0 {
		cfg.QRSize = 256
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	return &SessionService{repo: repo, courses: courses, cache: cache, logger: logger, cfg: cfg, now: time.Now}
}

// List returns sessions with their present and absent students.
func (s *SessionService) List(ctx context.Context, filter models.SessionFilter) ([]models.SessionDetail, error) {
	sessions, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Persistence(err, "failed to list sessions")
	}
	return sessions, nil
}

// Today returns the sessions dated within the current calendar day.
func (s *SessionService) Today(ctx context.Context) ([]models.SessionDetail, error) {
	start := startOfDay(s.now())
	end := start.Add(24*time.Hour - time.Nanosecond)
	return s.List(ctx, models.SessionFilter{DateFrom: &start, DateTo: &end})
}

// Get returns one session with attendance.
func (s *SessionService) Get(ctx context.Context, id int64) (*models.SessionDetail, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Persistence(err, "failed to load session")
	}
	return session, nil
}

// Create opens a new active session for an existing course, dated now.
func (s *SessionService) Create(ctx context.Context, req dto.CreateSessionRequest) (*models.SessionDetail, error) {
	courseName := strings.TrimSpace(req.CourseName)
	slot := strings.TrimSpace(req.Time)
	if courseName == "" || slot == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidArgument, "missing fields")
	}
	exists, err := s.courses.ExistsByName(ctx, courseName)
	if err != nil {
		return nil, appErrors.Persistence(err, "failed to validate course")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	session := &models.Session{CourseName: courseName, Date: s.now().UTC(), Time: slot, Status: true}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, appErrors.Persistence(err, "failed to create session")
	}
	if err := s.cache.Invalidate(ctx, dashboardCachePattern); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
	s.logger.Info("session created", zap.Int64("session_id", session.ID), zap.String("course", courseName))
	return &models.SessionDetail{Session: *session, Present: []models.Student{}, Absent: []models.Student{}}, nil
}

// AttendanceURL is the page a QR code for the session points to.
func (s *SessionService) AttendanceURL(id int64) string {
	return fmt.Sprintf("%s/sessions/%d/attendance", s.cfg.PublicBaseURL, id)
}

// QRCode renders a PNG QR code linking to the session attendance page.
func (s *SessionService) QRCode(ctx context.Context, id int64) ([]byte, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(s.AttendanceURL(id), qrcode.Medium, s.cfg.QRSize)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render qr code")
	}
	return png, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
