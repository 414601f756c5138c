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

const studentColumns = `s.id, s.first_name, s.last_name, s.email, s.address, s.branch, s.attendance, s.absent,
        s.fees_paid, s.fees_amount, s.image_url, s.created_at, s.updated_at`

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	base := "FROM students s"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Branch != "" {
		conditions = append(conditions, fmt.Sprintf("s.branch = $%d", len(args)+1))
		args = append(args, filter.Branch)
	}
	if filter.Course != "" {
		conditions = append(conditions, fmt.Sprintf("EXISTS (SELECT 1 FROM course_students cs JOIN courses c ON c.id = cs.course_id WHERE cs.student_id = s.id AND c.name = $%d)", len(args)+1))
		args = append(args, filter.Course)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.first_name || ' ' || s.last_name) LIKE $%d OR LOWER(s.email) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"first_name": "s.first_name",
		"last_name":  "s.last_name",
		"attendance": "s.attendance",
		"absent":     "s.absent",
		"created_at": "s.created_at",
	}
	if sortBy == "" {
		sortBy = "created_at"
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "s.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s
        %s ORDER BY %s %s, s.id ASC LIMIT %d OFFSET %d`, studentColumns, base, column, order, size, offset)

	students := make([]models.Student, 0)
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a student by ID. It returns sql.ErrNoRows when missing.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students s WHERE s.id = $1`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ExistsByEmail checks if a student with given email exists optionally excluding an ID.
func (r *StudentRepository) ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error) {
	query := "SELECT EXISTS (SELECT 1 FROM students WHERE LOWER(email) = LOWER($1) AND id <> $2)"
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email, excludeID); err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return exists, nil
}

// CreateTx inserts a new student record inside a transaction.
func (r *StudentRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, student *models.Student) error {
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	const query = `INSERT INTO students (first_name, last_name, email, address, branch, attendance, absent, fees_paid, fees_amount, image_url, created_at, updated_at)
        VALUES (:first_name, :last_name, :email, :address, :branch, :attendance, :absent, :fees_paid, :fees_amount, :image_url, :created_at, :updated_at)
        RETURNING id`
	rows, err := sqlx.NamedQueryContext(ctx, tx, query, student)
	if err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&student.ID); err != nil {
			return fmt.Errorf("scan student id: %w", err)
		}
	}
	return rows.Err()
}

// UpdateTx applies a partial update and returns the number of affected rows.
func (r *StudentRepository) UpdateTx(ctx context.Context, tx *sqlx.Tx, id int64, patch models.StudentPatch) (int64, error) {
	set := make([]string, 0, 9)
	args := make([]interface{}, 0, 10)
	add := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.FirstName != nil {
		add("first_name", *patch.FirstName)
	}
	if patch.LastName != nil {
		add("last_name", *patch.LastName)
	}
	if patch.Email != nil {
		add("email", *patch.Email)
	}
	if patch.Address != nil {
		add("address", *patch.Address)
	}
	if patch.Branch != nil {
		add("branch", *patch.Branch)
	}
	if patch.FeesPaid != nil {
		add("fees_paid", *patch.FeesPaid)
	}
	if patch.FeesAmount != nil {
		add("fees_amount", *patch.FeesAmount)
	}
	if patch.ImageURL != nil {
		add("image_url", *patch.ImageURL)
	}
	add("updated_at", time.Now().UTC())
	args = append(args, id)
	query := fmt.Sprintf("UPDATE students SET %s WHERE id = $%d", strings.Join(set, ", "), len(args))
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("update student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update student rows: %w", err)
	}
	return affected, nil
}

// SetImageURL records the stored profile image location.
func (r *StudentRepository) SetImageURL(ctx context.Context, id int64, url string) error {
	const query = `UPDATE students SET image_url = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, url, time.Now().UTC()); err != nil {
		return fmt.Errorf("set student image: %w", err)
	}
	return nil
}

// Delete removes a student and returns the deleted row. It returns sql.ErrNoRows when missing.
func (r *StudentRepository) Delete(ctx context.Context, id int64) (*models.Student, error) {
	const query = `DELETE FROM students s WHERE s.id = $1 RETURNING ` + studentColumns
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ExistingIDsTx returns the subset of ids that belong to existing students.
func (r *StudentRepository) ExistingIDsTx(ctx context.Context, tx *sqlx.Tx, ids []int64) ([]int64, error) {
	existing := make([]int64, 0, len(ids))
	if len(ids) == 0 {
		return existing, nil
	}
	const query = `SELECT id FROM students WHERE id = ANY($1) ORDER BY id`
	if err := tx.SelectContext(ctx, &existing, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("validate student ids: %w", err)
	}
	return existing, nil
}

// IncrementCountersTx adds one to the present counter of presentIDs and to the
// absent counter of absentIDs.
func (r *StudentRepository) IncrementCountersTx(ctx context.Context, tx *sqlx.Tx, presentIDs, absentIDs []int64) error {
	now := time.Now().UTC()
	if len(presentIDs) > 0 {
		const query = `UPDATE students SET attendance = attendance + 1, updated_at = $2 WHERE id = ANY($1)`
		if _, err := tx.ExecContext(ctx, query, pq.Array(presentIDs), now); err != nil {
			return fmt.Errorf("increment present counters: %w", err)
		}
	}
	if len(absentIDs) > 0 {
		const query = `UPDATE students SET absent = absent + 1, updated_at = $2 WHERE id = ANY($1)`
		if _, err := tx.ExecContext(ctx, query, pq.Array(absentIDs), now); err != nil {
			return fmt.Errorf("increment absent counters: %w", err)
		}
	}
	return nil
}
