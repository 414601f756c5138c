package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/Artify24/student-managment-system/internal/dto"
	"github.com/Artify24/student-managment-system/internal/models"
	appErrors "github.com/Artify24/student-managment-system/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context) ([]models.CourseSummary, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, course *models.Course) error
}

// CourseService manages the course catalogue.
type CourseService struct {
	repo      courseRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs the course service.
func NewCourseService(repo courseRepository, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, validator: validate, logger: logger}
}

// List returns every course with its enrolled student count.
func (s *CourseService) List(ctx context.Context) ([]models.CourseSummary, error) {
	courses, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Persistence(err, "failed to list courses")
	}
	return courses, nil
}

// Create adds a course with a unique name.
func (s *CourseService) Create(ctx context.Context, req dto.CreateCourseRequest) (*models.Course, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	exists, err := s.repo.ExistsByName(ctx, req.Name)
	if err != nil {
		return nil, appErrors.Persistence(err, "failed to validate course name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course already exists")
	}
	course := &models.Course{Name: req.Name}
	if err := s.repo.Create(ctx, course); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "course already exists")
		}
		return nil, appErrors.Persistence(err, "failed to create course")
	}
	s.logger.Info("course created", zap.Int64("course_id", course.ID), zap.String("name", course.Name))
	return course, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
