package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	appErrors "github.com/Artify24/student-managment-system/pkg/errors"
)

type rosterRepository interface {
	RosterIDs(ctx context.Context, name string) ([]int64, error)
	RosterIDsTx(ctx context.Context, tx *sqlx.Tx, name string) ([]int64, error)
}

// RosterService resolves the students enrolled in a course.
type RosterService struct {
	repo   rosterRepository
	logger *zap.Logger
}

// NewRosterService constructs a RosterService.
func NewRosterService(repo rosterRepository, logger *zap.Logger) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{repo: repo, logger: logger}
}

// Resolve returns the ids of students enrolled in courseName in ascending order.
func (s *RosterService) Resolve(ctx context.Context, courseName string) ([]int64, error) {
	name, err := rosterName(courseName)
	if err != nil {
		return nil, err
	}
	ids, err := s.repo.RosterIDs(ctx, name)
	return s.classify(name, ids, err)
}

// ResolveTx is Resolve evaluated inside an open transaction.
func (s *RosterService) ResolveTx(ctx context.Context, tx *sqlx.Tx, courseName string) ([]int64, error) {
	name, err := rosterName(courseName)
	if err != nil {
		return nil, err
	}
	ids, err := s.repo.RosterIDsTx(ctx, tx, name)
	return s.classify(name, ids, err)
}

func (s *RosterService) classify(name string, ids []int64, err error) ([]int64, error) {
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		s.logger.Error("roster lookup failed", zap.String("course", name), zap.Error(err))
		return nil, appErrors.Persistence(err, "failed to resolve course roster")
	}
	return normaliseIDs(ids), nil
}

func rosterName(courseName string) (string, error) {
	name := strings.TrimSpace(courseName)
	if name == "" {
		return "", appErrors.Clone(appErrors.ErrInvalidArgument, "course name is required")
	}
	return name, nil
}

// normaliseIDs sorts ascending and drops duplicates, never returning nil.
func normaliseIDs(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
