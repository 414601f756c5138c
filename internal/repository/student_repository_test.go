package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Artify24/student-managment-system/internal/models"
)

func TestStudentRepositoryListAppliesFilters(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStudentRepository(db)

	rows := studentRow(sqlmock.NewRows(studentRowColumns), 1, "Asha", "Rao", "THANE")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT s.id, s.first_name")).
		WithArgs("THANE", "%asha%").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students s WHERE 1=1 AND s.branch = $1")).
		WithArgs("THANE", "%asha%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	students, total, err := repo.List(context.Background(), models.StudentFilter{Branch: models.BranchThane, Search: "Asha"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, students, 1)
	assert.Equal(t, "Asha Rao", students[0].FullName())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByIDMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM students s WHERE s.id = $1")).
		WithArgs(int64(42)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), 42)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryUpdateTxWritesSuppliedFields(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET first_name = $1, fees_paid = $2, updated_at = $3 WHERE id = $4")).
		WithArgs("Ashwini", true, sqlmock.AnyArg(), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	name, paid := "Ashwini", true
	affected, err := repo.UpdateTx(context.Background(), tx, 1, models.StudentPatch{FirstName: &name, FeesPaid: &paid})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCountersAndExistingIDs(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM students WHERE id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(3))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET attendance = attendance + 1")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	ctx := context.Background()

	empty, err := repo.ExistingIDsTx(ctx, tx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	existing, err := repo.ExistingIDsTx(ctx, tx, []int64{1, 3, 999999})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, existing)

	require.NoError(t, repo.IncrementCountersTx(ctx, tx, []int64{1, 3}, nil))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryDeleteReturnsRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM students s WHERE s.id = $1 RETURNING")).
		WithArgs(int64(2)).
		WillReturnRows(studentRow(sqlmock.NewRows(studentRowColumns), 2, "Ravi", "Shah", "NERUL"))

	deleted, err := repo.Delete(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, models.BranchNerul, deleted.Branch)
	require.NoError(t, mock.ExpectationsWereMet())
}
