package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/Artify24/student-managment-system/internal/models"
	appErrors "github.com/Artify24/student-managment-system/pkg/errors"
	"github.com/Artify24/student-managment-system/pkg/middleware/requestid"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type attendanceSessionStore interface {
	LockByIDTx(ctx context.Context, tx *sqlx.Tx, id int64) (*models.Session, error)
	ReplaceAttendanceTx(ctx context.Context, tx *sqlx.Tx, sessionID int64, presentIDs, absentIDs []int64) error
	FindByIDTx(ctx context.Context, tx *sqlx.Tx, id int64) (*models.SessionDetail, error)
}

type attendanceStudentStore interface {
	ExistingIDsTx(ctx context.Context, tx *sqlx.Tx, ids []int64) ([]int64, error)
	IncrementCountersTx(ctx context.Context, tx *sqlx.Tx, presentIDs, absentIDs []int64) error
}

type rosterTxResolver interface {
	ResolveTx(ctx context.Context, tx *sqlx.Tx, courseName string) ([]int64, error)
}

// ReconcileResult is the outcome of a successful reconciliation.
type ReconcileResult struct {
	Session  *models.SessionDetail
	Accepted []int64
	Rejected []models.RejectedID
	// Reopened is set when the session had already been closed by an earlier reconciliation.
	Reopened bool
}

// AttendanceServiceConfig tunes reconciliation.
type AttendanceServiceConfig struct {
	Timeout time.Duration
}

// AttendanceService reconciles a session's attendance against its course roster.
type AttendanceService struct {
	tx       txProvider
	sessions attendanceSessionStore
	students attendanceStudentStore
	roster   rosterTxResolver
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
	timeout  time.Duration
}

// AttendanceServiceParams groups constructor dependencies.
type AttendanceServiceParams struct {
	TxProvider txProvider
	Sessions   attendanceSessionStore
	Students   attendanceStudentStore
	Roster     rosterTxResolver
	Cache      *CacheService
	Metrics    *MetricsService
	Logger     *zap.Logger
	Config     AttendanceServiceConfig
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(params AttendanceServiceParams) *AttendanceService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := params.Config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AttendanceService{
		tx:       params.TxProvider,
		sessions: params.Sessions,
		students: params.Students,
		roster:   params.Roster,
		cache:    params.Cache,
		metrics:  params.Metrics,
		logger:   logger,
		timeout:  timeout,
	}
}

func (s *AttendanceService) requestLogger(ctx context.Context) *zap.Logger {
	if id := requestid.FromContext(ctx); id != "" {
		return s.logger.With(zap.String("request_id", id))
	}
	return s.logger
}

// Reconcile partitions the course roster of sessionID into present and absent,
// replaces the session's attendance, bumps student counters, and closes the session.
// Supplied ids that cannot be applied are reported in Rejected rather than failing the call.
func (s *AttendanceService) Reconcile(ctx context.Context, sessionID int64, presentIDs []json.RawMessage) (*ReconcileResult, error) {
	start := time.Now()
	logger := s.requestLogger(ctx)
	candidates, rejected := CanonicalizeStudentIDs(presentIDs)

	txCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.reconcile(txCtx, sessionID, candidates)
	if err != nil {
		appErr := s.classify(txCtx, sessionID, err)
		s.metrics.ObserveReconciliation(appErr.Code, time.Since(start), 0, 0, 0)
		return nil, appErr
	}
	result.Rejected = append(rejected, result.Rejected...)

	if err := s.cache.Invalidate(ctx, dashboardCachePattern); err != nil {
		logger.Warn("dashboard cache invalidation failed", zap.Int64("session_id", sessionID), zap.Error(err))
	}
	if err := s.cache.Invalidate(ctx, reportCachePattern); err != nil {
		logger.Warn("report cache invalidation failed", zap.Int64("session_id", sessionID), zap.Error(err))
	}

	duration := time.Since(start)
	s.metrics.ObserveReconciliation("OK", duration, len(result.Session.Present), len(result.Session.Absent), len(result.Rejected))
	logger.Info("attendance reconciled",
		zap.Int64("session_id", sessionID),
		zap.String("course", result.Session.CourseName),
		zap.Int("present", len(result.Session.Present)),
		zap.Int("absent", len(result.Session.Absent)),
		zap.Int("rejected", len(result.Rejected)),
		zap.Bool("reopened", result.Reopened),
		zap.Duration("duration", duration),
	)
	return result, nil
}

func (s *AttendanceService) reconcile(ctx context.Context, sessionID int64, candidates []int64) (result *ReconcileResult, err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin reconcile: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	session, err := s.sessions.LockByIDTx(ctx, tx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, fmt.Errorf("lock session %d: %w", sessionID, err)
	}

	roster, err := s.roster.ResolveTx(ctx, tx, session.CourseName)
	if err != nil {
		return nil, err
	}

	existing, err := s.students.ExistingIDsTx(ctx, tx, normaliseIDs(append(append([]int64{}, roster...), candidates...)))
	if err != nil {
		return nil, err
	}

	plan := partitionAttendance(roster, candidates, existing)

	if err = s.sessions.ReplaceAttendanceTx(ctx, tx, sessionID, plan.Present, plan.Absent); err != nil {
		return nil, err
	}
	if err = s.students.IncrementCountersTx(ctx, tx, plan.Present, plan.Absent); err != nil {
		return nil, err
	}

	detail, err := s.sessions.FindByIDTx(ctx, tx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("reload session %d: %w", sessionID, err)
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit reconcile: %w", err)
	}

	return &ReconcileResult{Session: detail, Accepted: plan.Present, Rejected: plan.Rejected, Reopened: !session.Active()}, nil
}

func (s *AttendanceService) classify(ctx context.Context, sessionID int64, err error) *appErrors.Error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) && appErr.Code != appErrors.ErrPersistence.Code {
		return appErr
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		s.logger.Warn("attendance reconcile timed out", zap.Int64("session_id", sessionID), zap.Duration("timeout", s.timeout), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrTimeout.Code, appErrors.ErrTimeout.Status, appErrors.ErrTimeout.Message)
	}
	s.logger.Error("attendance reconcile failed", zap.Int64("session_id", sessionID), zap.Error(err))
	return appErrors.Persistence(err, "failed to reconcile attendance")
}

type attendancePlan struct {
	Present  []int64
	Absent   []int64
	Rejected []models.RejectedID
}

// partitionAttendance splits the roster into present and absent. Candidates that
// are not existing students, or not on the roster, are rejected.
func partitionAttendance(roster, candidates, existing []int64) attendancePlan {
	rosterSet := make(map[int64]struct{}, len(roster))
	for _, id := range roster {
		rosterSet[id] = struct{}{}
	}
	existingSet := make(map[int64]struct{}, len(existing))
	for _, id := range existing {
		existingSet[id] = struct{}{}
	}

	plan := attendancePlan{Present: []int64{}, Absent: []int64{}, Rejected: []models.RejectedID{}}
	presentSet := make(map[int64]struct{}, len(candidates))
	for _, id := range candidates {
		if _, dup := presentSet[id]; dup {
			continue
		}
		if _, ok := existingSet[id]; !ok {
			plan.Rejected = append(plan.Rejected, models.RejectedID{Value: strconv.FormatInt(id, 10), Reason: models.RejectUnknownStudent})
			continue
		}
		if _, ok := rosterSet[id]; !ok {
			plan.Rejected = append(plan.Rejected, models.RejectedID{Value: strconv.FormatInt(id, 10), Reason: models.RejectNotEnrolled})
			continue
		}
		presentSet[id] = struct{}{}
		plan.Present = append(plan.Present, id)
	}
	for id := range rosterSet {
		if _, ok := presentSet[id]; ok {
			continue
		}
		if _, ok := existingSet[id]; !ok {
			continue
		}
		plan.Absent = append(plan.Absent, id)
	}
	sort.Slice(plan.Present, func(i, j int) bool { return plan.Present[i] < plan.Present[j] })
	sort.Slice(plan.Absent, func(i, j int) bool { return plan.Absent[i] < plan.Absent[j] })
	return plan
}

// CanonicalizeStudentIDs converts raw JSON values into student ids. Integers and
// strings holding base-10 integers are accepted; duplicates keep their first
// position. Everything else is returned as rejected with reason invalid_id.
func CanonicalizeStudentIDs(raw []json.RawMessage) ([]int64, []models.RejectedID) {
	ids := make([]int64, 0, len(raw))
	rejected := make([]models.RejectedID, 0)
	seen := make(map[int64]struct{}, len(raw))
	seenInvalid := make(map[string]struct{})
	for _, value := range raw {
		id, display, ok := parseStudentID(value)
		if !ok {
			if _, dup := seenInvalid[display]; !dup {
				seenInvalid[display] = struct{}{}
				rejected = append(rejected, models.RejectedID{Value: display, Reason: models.RejectInvalidID})
			}
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, rejected
}

func parseStudentID(value json.RawMessage) (int64, string, bool) {
	trimmed := bytes.TrimSpace(value)
	if len(trimmed) == 0 {
		return 0, "", false
	}
	switch c := trimmed[0]; {
	case c == '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return 0, string(trimmed), false
		}
		id, ok := integralID(strings.TrimSpace(text))
		return id, text, ok
	case c == '-' || (c >= '0' && c <= '9'):
		var number json.Number
		if err := json.Unmarshal(trimmed, &number); err != nil {
			return 0, string(trimmed), false
		}
		id, ok := integralID(number.String())
		return id, number.String(), ok
	default:
		return 0, string(trimmed), false
	}
}

// integralID accepts decimal integers and integral floats such as "4.0".
func integralID(text string) (int64, bool) {
	if text == "" {
		return 0, false
	}
	if id, err := strconv.ParseInt(text, 10, 64); err == nil {
		return id, true
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}
