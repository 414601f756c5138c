package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Artify24/student-managment-system/internal/models"
)

var sessionRowColumns = []string{"id", "course_name", "date", "time", "status", "created_at", "updated_at"}

func sessionStudentColumns() []string {
	return append([]string{"session_id"}, studentRowColumns...)
}

func TestSessionRepositoryFindByIDResolvesAttendance(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSessionRepository(db)
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM sessions WHERE id = $1")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(sessionRowColumns).AddRow(7, "Physics", now, "10:00", false, now, now))

	present := sqlmock.NewRows(sessionStudentColumns()).
		AddRow(7, 1, "Asha", "Rao", "asha@example.com", "", "THANE", 1, 0, true, 0.0, nil, now, now).
		AddRow(7, 3, "Meera", "Iyer", "meera@example.com", "", "DADAR", 1, 0, true, 0.0, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM session_present r JOIN students s")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(present)
	absent := sqlmock.NewRows(sessionStudentColumns()).
		AddRow(7, 2, "Ravi", "Shah", "ravi@example.com", "", "NERUL", 0, 1, false, 0.0, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM session_absent r JOIN students s")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(absent)

	detail, err := repo.FindByID(context.Background(), 7)
	require.NoError(t, err)
	assert.False(t, detail.Status)
	require.Len(t, detail.Present, 2)
	assert.Equal(t, int64(3), detail.Present[1].ID)
	require.Len(t, detail.Absent, 1)
	assert.Equal(t, "Ravi", detail.Absent[0].FirstName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryFindByIDMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSessionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM sessions WHERE id = $1")).
		WithArgs(int64(999)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), 999)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestSessionRepositoryListWithoutRowsSkipsRelations(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSessionRepository(db)

	active := true
	mock.ExpectQuery(regexp.QuoteMeta("FROM sessions WHERE 1=1 AND status = $1")).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows(sessionRowColumns))

	sessions, err := repo.List(context.Background(), models.SessionFilter{Status: &active})
	require.NoError(t, err)
	assert.Empty(t, sessions)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryLockAndReplaceAttendance(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSessionRepository(db)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM sessions WHERE id = $1 FOR UPDATE")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(sessionRowColumns).AddRow(7, "Physics", now, "10:00", true, now, now))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM session_present WHERE session_id = $1")).
		WithArgs(int64(7)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM session_absent WHERE session_id = $1")).
		WithArgs(int64(7)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO session_present")).
		WithArgs(int64(7), sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE sessions SET status = false")).
		WithArgs(int64(7), sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ctx := context.Background()
	tx, err := db.Beginx()
	require.NoError(t, err)
	session, err := repo.LockByIDTx(ctx, tx, 7)
	require.NoError(t, err)
	assert.True(t, session.Active())
	require.NoError(t, repo.ReplaceAttendanceTx(ctx, tx, 7, []int64{1, 2, 3, 4}, nil))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}
