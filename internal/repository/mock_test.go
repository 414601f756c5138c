package repository

import (
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

var studentRowColumns = []string{"id", "first_name", "last_name", "email", "address", "branch", "attendance", "absent",
	"fees_paid", "fees_amount", "image_url", "created_at", "updated_at"}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func studentRow(rows *sqlmock.Rows, id int64, first, last, branch string) *sqlmock.Rows {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return rows.AddRow(id, first, last, first+"@example.com", "", branch, 0, 0, false, 0.0, nil, now, now)
}
