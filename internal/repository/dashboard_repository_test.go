package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardRepositoryTotals(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDashboardRepository(db)

	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("AS total_students")).
		WithArgs(day, day.Add(24*time.Hour)).
		WillReturnRows(sqlmock.NewRows([]string{"total_students", "total_courses", "total_sessions", "active_sessions", "today_sessions", "fees_outstanding", "total_present", "total_absent"}).
			AddRow(4, 2, 3, 1, 1, 2, 5, 3))

	totals, err := repo.Totals(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, 4, totals.TotalStudents)
	assert.Equal(t, 1, totals.ActiveSessions)
	assert.Equal(t, 3, totals.TotalAbsent)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardRepositoryBreakdowns(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDashboardRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT branch, COUNT(*) AS count FROM students GROUP BY branch")).
		WillReturnRows(sqlmock.NewRows([]string{"branch", "count"}).AddRow("NERUL", 1).AddRow("THANE", 3))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE attendance + absent > 0")).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "attendance", "absent"}).AddRow(2, "Ravi Shah", 1, 3))

	branches, err := repo.StudentsByBranch(context.Background())
	require.NoError(t, err)
	require.Len(t, branches, 2)
	assert.Equal(t, 3, branches[1].Count)

	low, err := repo.LowAttendance(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, 3, low[0].Absent)
	require.NoError(t, mock.ExpectationsWereMet())
}
