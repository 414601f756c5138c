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
)

func TestCourseRepositoryRosterIDs(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, created_at FROM courses WHERE name = $1")).
		WithArgs("Physics").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at"}).AddRow(10, "Physics", time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT student_id FROM course_students WHERE course_id = $1")).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"student_id"}).AddRow(1).AddRow(2).AddRow(3).AddRow(4))

	ids, err := repo.RosterIDs(context.Background(), "Physics")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4}, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryRosterIDsMissingCourse(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM courses WHERE name = $1")).
		WithArgs("Astronomy").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.RosterIDs(context.Background(), "Astronomy")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryEnsureAndReplaceEnrollment(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCourseRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO courses (name, created_at)")).
		WithArgs("Physics", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO courses (name, created_at)")).
		WithArgs("Chemistry", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM course_students WHERE student_id = $1")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO course_students (course_id, student_id)")).
		WithArgs(sqlmock.AnyArg(), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM course_students WHERE student_id = $1")).
		WithArgs(int64(6)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	ctx := context.Background()
	tx, err := db.Beginx()
	require.NoError(t, err)

	ids, err := repo.EnsureByNamesTx(ctx, tx, []string{"Physics", "  ", "Chemistry"})
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 12}, ids)
	require.NoError(t, repo.ReplaceEnrollmentTx(ctx, tx, 5, ids))
	require.NoError(t, repo.ReplaceEnrollmentTx(ctx, tx, 6, nil))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryListWithCounts(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("COUNT(cs.student_id) AS student_count")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at", "student_count"}).
			AddRow(11, "Maths", time.Now(), 0).
			AddRow(10, "Physics", time.Now(), 4))

	courses, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, 4, courses[1].StudentCount)
	require.NoError(t, mock.ExpectationsWereMet())
}
