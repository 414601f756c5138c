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

// CourseRepository manages courses and their enrollment rosters.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns every course with its enrolled student count.
func (r *CourseRepository) List(ctx context.Context) ([]models.CourseSummary, error) {
	const query = `SELECT c.id, c.name, c.created_at, COUNT(cs.student_id) AS student_count
FROM courses c
LEFT JOIN course_students cs ON cs.course_id = c.id
GROUP BY c.id, c.name, c.created_at
ORDER BY c.name ASC`
	var courses []models.CourseSummary
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// FindByName fetches a course by its unique name.
func (r *CourseRepository) FindByName(ctx context.Context, name string) (*models.Course, error) {
	return findCourseByName(ctx, r.db, name)
}

// Create inserts a new course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.CreatedAt.IsZero() {
		course.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO courses (name, created_at) VALUES ($1, $2) RETURNING id`
	if err := r.db.GetContext(ctx, &course.ID, query, course.Name, course.CreatedAt); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// ExistsByName reports whether a course with the given name exists.
func (r *CourseRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM courses WHERE name = $1)`, name); err != nil {
		return false, fmt.Errorf("check course name: %w", err)
	}
	return exists, nil
}

// RosterIDs returns the ids of students enrolled in the named course.
// It returns sql.ErrNoRows when the course does not exist.
func (r *CourseRepository) RosterIDs(ctx context.Context, name string) ([]int64, error) {
	return rosterIDs(ctx, r.db, name)
}

// RosterIDsTx is RosterIDs evaluated inside an open transaction.
func (r *CourseRepository) RosterIDsTx(ctx context.Context, tx *sqlx.Tx, name string) ([]int64, error) {
	return rosterIDs(ctx, tx, name)
}

// ListByNames returns the courses matching the given names.
func (r *CourseRepository) ListByNames(ctx context.Context, names []string) ([]models.Course, error) {
	courses := make([]models.Course, 0, len(names))
	if len(names) == 0 {
		return courses, nil
	}
	const query = `SELECT id, name, created_at FROM courses WHERE name = ANY($1) ORDER BY name`
	if err := r.db.SelectContext(ctx, &courses, query, pq.Array(names)); err != nil {
		return nil, fmt.Errorf("list courses by name: %w", err)
	}
	return courses, nil
}

// EnsureByNamesTx returns course ids for the names, creating missing courses.
func (r *CourseRepository) EnsureByNamesTx(ctx context.Context, tx *sqlx.Tx, names []string) ([]int64, error) {
	ids := make([]int64, 0, len(names))
	const query = `INSERT INTO courses (name, created_at) VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id`
	now := time.Now().UTC()
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		var id int64
		if err := tx.GetContext(ctx, &id, query, name, now); err != nil {
			return nil, fmt.Errorf("ensure course %q: %w", name, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ListByStudent returns the courses a student is enrolled in.
func (r *CourseRepository) ListByStudent(ctx context.Context, studentID int64) ([]models.Course, error) {
	const query = `SELECT c.id, c.name, c.created_at FROM courses c
JOIN course_students cs ON cs.course_id = c.id
WHERE cs.student_id = $1
ORDER BY c.name`
	courses := make([]models.Course, 0)
	if err := r.db.SelectContext(ctx, &courses, query, studentID); err != nil {
		return nil, fmt.Errorf("list student courses: %w", err)
	}
	return courses, nil
}

// ReplaceEnrollmentTx sets the student's enrollment to exactly the given courses.
func (r *CourseRepository) ReplaceEnrollmentTx(ctx context.Context, tx *sqlx.Tx, studentID int64, courseIDs []int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM course_students WHERE student_id = $1`, studentID); err != nil {
		return fmt.Errorf("clear enrollment: %w", err)
	}
	if len(courseIDs) == 0 {
		return nil
	}
	const query = `INSERT INTO course_students (course_id, student_id)
SELECT UNNEST($1::bigint[]), $2
ON CONFLICT DO NOTHING`
	if _, err := tx.ExecContext(ctx, query, pq.Array(courseIDs), studentID); err != nil {
		return fmt.Errorf("insert enrollment: %w", err)
	}
	return nil
}

func findCourseByName(ctx context.Context, q sqlx.QueryerContext, name string) (*models.Course, error) {
	var course models.Course
	if err := sqlx.GetContext(ctx, q, &course, `SELECT id, name, created_at FROM courses WHERE name = $1`, name); err != nil {
		return nil, err
	}
	return &course, nil
}

func rosterIDs(ctx context.Context, q sqlx.QueryerContext, name string) ([]int64, error) {
	course, err := findCourseByName(ctx, q, name)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0)
	const query = `SELECT student_id FROM course_students WHERE course_id = $1 ORDER BY student_id`
	if err := sqlx.SelectContext(ctx, q, &ids, query, course.ID); err != nil {
		return nil, fmt.Errorf("load roster for %q: %w", name, err)
	}
	return ids, nil
}
