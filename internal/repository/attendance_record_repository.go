package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/Artify24/student-managment-system/internal/models"
)

// AttendanceRecordRepository flattens session attendance into per-student rows.
type AttendanceRecordRepository struct {
	db *sqlx.DB
}

// NewAttendanceRecordRepository constructs an AttendanceRecordRepository.
func NewAttendanceRecordRepository(db *sqlx.DB) *AttendanceRecordRepository {
	return &AttendanceRecordRepository{db: db}
}

const attendanceRecordsBase = `SELECT se.id AS session_id, se.course_name, se.date, se.time,
        st.id AS student_id, (st.first_name || ' ' || st.last_name) AS student_name,
        'present' AS status, st.branch
    FROM session_present p
    JOIN sessions se ON se.id = p.session_id
    JOIN students st ON st.id = p.student_id
UNION ALL
SELECT se.id AS session_id, se.course_name, se.date, se.time,
        st.id AS student_id, (st.first_name || ' ' || st.last_name) AS student_name,
        'absent' AS status, st.branch
    FROM session_absent a
    JOIN sessions se ON se.id = a.session_id
    JOIN students st ON st.id = a.student_id`

// List returns attendance rows matching the filter, newest sessions first.
func (r *AttendanceRecordRepository) List(ctx context.Context, filter models.AttendanceRecordFilter) ([]models.AttendanceRecord, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	add := func(format string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(format, len(args)))
	}
	if filter.CourseName != "" {
		add("r.course_name = $%d", filter.CourseName)
	}
	if filter.Branch != "" {
		add("r.branch = $%d", filter.Branch)
	}
	if filter.Status != "" {
		add("r.status = $%d", filter.Status)
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("(LOWER(r.student_name) LIKE $%d OR LOWER(r.course_name) LIKE $%d)", len(args), len(args)))
	}
	if filter.DateFrom != nil {
		add("r.date >= $%d", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		add("r.date <= $%d", *filter.DateTo)
	}

	query := fmt.Sprintf(`SELECT r.session_id, r.course_name, r.date, r.time, r.student_id, r.student_name, r.status, r.branch
FROM (%s) r
WHERE %s
ORDER BY r.date DESC, r.session_id DESC, r.student_name ASC`, attendanceRecordsBase, strings.Join(conditions, " AND "))

	records := make([]models.AttendanceRecord, 0)
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance records: %w", err)
	}
	return records, nil
}
