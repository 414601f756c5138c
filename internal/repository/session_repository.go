package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Artify24/student-managment-system/internal/models"
)

const sessionColumns = `id, course_name, date, time, status, created_at, updated_at`

// SessionRepository persists class sessions and their attendance relations.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs a SessionRepository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

type sessionStudentRow struct {
	SessionID int64 `db:"session_id"`
	models.Student
}

// List returns sessions matching the filter with present and absent students resolved.
func (r *SessionRepository) List(ctx context.Context, filter models.SessionFilter) ([]models.SessionDetail, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	if filter.CourseName != "" {
		args = append(args, filter.CourseName)
		conditions = append(conditions, fmt.Sprintf("course_name = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		conditions = append(conditions, fmt.Sprintf("date <= $%d", len(args)))
	}
	query := fmt.Sprintf(`SELECT %s FROM sessions WHERE %s ORDER BY date DESC, id DESC`, sessionColumns, strings.Join(conditions, " AND "))

	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return attachAttendance(ctx, r.db, sessions)
}

// FindByID returns one session with attendance. It returns sql.ErrNoRows when missing.
func (r *SessionRepository) FindByID(ctx context.Context, id int64) (*models.SessionDetail, error) {
	return sessionDetail(ctx, r.db, id)
}

// Create inserts a new active session.
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	now := time.Now().UTC()
	if session.Date.IsZero() {
		session.Date = now
	}
	session.CreatedAt = now
	session.UpdatedAt = now
	const query = `INSERT INTO sessions (course_name, date, time, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := r.db.GetContext(ctx, &session.ID, query, session.CourseName, session.Date, session.Time, session.Status, session.CreatedAt, session.UpdatedAt); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// LockByIDTx loads a session row and holds a row lock until the transaction ends.
// It returns sql.ErrNoRows when missing.
func (r *SessionRepository) LockByIDTx(ctx context.Context, tx *sqlx.Tx, id int64) (*models.Session, error) {
	query := fmt.Sprintf(`SELECT %s FROM sessions WHERE id = $1 FOR UPDATE`, sessionColumns)
	var session models.Session
	if err := tx.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// ReplaceAttendanceTx clears the session's present and absent relations, writes
// the given sets, and marks the session completed.
func (r *SessionRepository) ReplaceAttendanceTx(ctx context.Context, tx *sqlx.Tx, sessionID int64, presentIDs, absentIDs []int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM session_present WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("clear present: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM session_absent WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("clear absent: %w", err)
	}
	if len(presentIDs) > 0 {
		const query = `INSERT INTO session_present (session_id, student_id) SELECT $1, UNNEST($2::bigint[])`
		if _, err := tx.ExecContext(ctx, query, sessionID, pq.Array(presentIDs)); err != nil {
			return fmt.Errorf("insert present: %w", err)
		}
	}
	if len(absentIDs) > 0 {
		const query = `INSERT INTO session_absent (session_id, student_id) SELECT $1, UNNEST($2::bigint[])`
		if _, err := tx.ExecContext(ctx, query, sessionID, pq.Array(absentIDs)); err != nil {
			return fmt.Errorf("insert absent: %w", err)
		}
	}
	const complete = `UPDATE sessions SET status = false, updated_at = $2 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, complete, sessionID, time.Now().UTC()); err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	return nil
}

// FindByIDTx is FindByID evaluated inside an open transaction.
func (r *SessionRepository) FindByIDTx(ctx context.Context, tx *sqlx.Tx, id int64) (*models.SessionDetail, error) {
	return sessionDetail(ctx, tx, id)
}

func sessionDetail(ctx context.Context, q sqlx.QueryerContext, id int64) (*models.SessionDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM sessions WHERE id = $1`, sessionColumns)
	var session models.Session
	if err := sqlx.GetContext(ctx, q, &session, query, id); err != nil {
		return nil, err
	}
	details, err := attachAttendance(ctx, q, []models.Session{session})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

func attachAttendance(ctx context.Context, q sqlx.QueryerContext, sessions []models.Session) ([]models.SessionDetail, error) {
	details := make([]models.SessionDetail, len(sessions))
	if len(sessions) == 0 {
		return details, nil
	}
	ids := make([]int64, len(sessions))
	index := make(map[int64]int, len(sessions))
	for i, s := range sessions {
		ids[i] = s.ID
		index[s.ID] = i
		details[i] = models.SessionDetail{Session: s, Present: []models.Student{}, Absent: []models.Student{}}
	}

	for _, relation := range []string{"session_present", "session_absent"} {
		query := fmt.Sprintf(`SELECT r.session_id, %s
        FROM %s r JOIN students s ON s.id = r.student_id
        WHERE r.session_id = ANY($1)
        ORDER BY r.session_id, s.id`, studentColumns, relation)
		var rows []sessionStudentRow
		if err := sqlx.SelectContext(ctx, q, &rows, query, pq.Array(ids)); err != nil {
			return nil, fmt.Errorf("load %s: %w", relation, err)
		}
		for _, row := range rows {
			i, ok := index[row.SessionID]
			if !ok {
				continue
			}
			if relation == "session_present" {
				details[i].Present = append(details[i].Present, row.Student)
			} else {
				details[i].Absent = append(details[i].Absent, row.Student)
			}
		}
	}
	return details, nil
}
