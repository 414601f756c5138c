package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Artify24/student-managment-system/internal/dto"
)

// DashboardRepository runs the aggregate queries behind the admin dashboard.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs a DashboardRepository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// DashboardTotals holds the scalar dashboard counts.
type DashboardTotals struct {
	TotalStudents   int `db:"total_students"`
	TotalCourses    int `db:"total_courses"`
	TotalSessions   int `db:"total_sessions"`
	ActiveSessions  int `db:"active_sessions"`
	TodaySessions   int `db:"today_sessions"`
	FeesOutstanding int `db:"fees_outstanding"`
	TotalPresent    int `db:"total_present"`
	TotalAbsent     int `db:"total_absent"`
}

// Totals returns the scalar counts; the day window is [dayStart, dayStart+24h).
func (r *DashboardRepository) Totals(ctx context.Context, dayStart time.Time) (*DashboardTotals, error) {
	const query = `SELECT
    (SELECT COUNT(*) FROM students) AS total_students,
    (SELECT COUNT(*) FROM courses) AS total_courses,
    (SELECT COUNT(*) FROM sessions) AS total_sessions,
    (SELECT COUNT(*) FROM sessions WHERE status = true) AS active_sessions,
    (SELECT COUNT(*) FROM sessions WHERE date >= $1 AND date < $2) AS today_sessions,
    (SELECT COUNT(*) FROM students WHERE fees_paid = false) AS fees_outstanding,
    (SELECT COUNT(*) FROM session_present) AS total_present,
    (SELECT COUNT(*) FROM session_absent) AS total_absent`
	var totals DashboardTotals
	if err := r.db.GetContext(ctx, &totals, query, dayStart, dayStart.Add(24*time.Hour)); err != nil {
		return nil, fmt.Errorf("dashboard totals: %w", err)
	}
	return &totals, nil
}

// StudentsByBranch counts students per branch.
func (r *DashboardRepository) StudentsByBranch(ctx context.Context) ([]dto.BranchCount, error) {
	const query = `SELECT branch, COUNT(*) AS count FROM students GROUP BY branch ORDER BY branch`
	counts := make([]dto.BranchCount, 0)
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("students by branch: %w", err)
	}
	return counts, nil
}

// LowAttendance lists students with at least one recorded session ordered by the
// lowest cumulative present ratio.
func (r *DashboardRepository) LowAttendance(ctx context.Context, limit int) ([]dto.StudentRatio, error) {
	if limit <= 0 {
		limit = 5
	}
	const query = `SELECT id, (first_name || ' ' || last_name) AS name, attendance, absent
FROM students
WHERE attendance + absent > 0
ORDER BY attendance::float / (attendance + absent) ASC, id ASC
LIMIT $1`
	ratios := make([]dto.StudentRatio, 0)
	if err := r.db.SelectContext(ctx, &ratios, query, limit); err != nil {
		return nil, fmt.Errorf("low attendance: %w", err)
	}
	return ratios, nil
}
