package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/Artify24/student-managment-system/internal/dto"
	"github.com/Artify24/student-managment-system/internal/models"
	appErrors "github.com/Artify24/student-managment-system/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id int64) (*models.Student, error)
	ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error)
	CreateTx(ctx context.Context, tx *sqlx.Tx, student *models.Student) error
	UpdateTx(ctx context.Context, tx *sqlx.Tx, id int64, patch models.StudentPatch) (int64, error)
	SetImageURL(ctx context.Context, id int64, url string) error
	Delete(ctx context.Context, id int64) (*models.Student, error)
}

type enrollmentRepository interface {
	ListByNames(ctx context.Context, names []string) ([]models.Course, error)
	EnsureByNamesTx(ctx context.Context, tx *sqlx.Tx, names []string) ([]int64, error)
	ListByStudent(ctx context.Context, studentID int64) ([]models.Course, error)
	ReplaceEnrollmentTx(ctx context.Context, tx *sqlx.Tx, studentID int64, courseIDs []int64) error
}

type imageStore interface {
	SaveStream(name string, r io.Reader) (string, error)
	Delete(name string) error
}

// StudentServiceConfig tunes profile image handling.
type StudentServiceConfig struct {
	ImageSize      int
	ImageURLPrefix string
}

// StudentServiceParams groups constructor dependencies.
type StudentServiceParams struct {
	TxProvider txProvider
	Students   studentRepository
	Courses    enrollmentRepository
	Images     imageStore
	Cache      *CacheService
	Validator  *validator.Validate
	Logger     *zap.Logger
	Config     StudentServiceConfig
}

// StudentService handles student use-cases.
type StudentService struct {
	tx        txProvider
	repo      studentRepository
	courses   enrollmentRepository
	images    imageStore
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       StudentServiceConfig
}

// NewStudentService constructs the student service.
func NewStudentService(params StudentServiceParams) *StudentService {
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := params.Config
	if cfg.ImageSize <= 0 {
		cfg.ImageSize = 512
	}
	if cfg.ImageURLPrefix == "" {
		cfg.ImageURLPrefix = "/uploads"
	}
	return &StudentService{
		tx:        params.TxProvider,
		repo:      params.Students,
		courses:   params.Courses,
		images:    params.Images,
		cache:     params.Cache,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	if filter.Branch != "" && !filter.Branch.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrInvalidArgument, "invalid branch")
	}
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Persistence(err, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return students, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a student together with enrolled courses.
func (s *StudentService) Get(ctx context.Context, id int64) (*models.StudentDetail, error) {
	student, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	courses, err := s.courses.ListByStudent(ctx, id)
	if err != nil {
		return nil, appErrors.Persistence(err, "failed to load student courses")
	}
	return &models.StudentDetail{Student: *student, Courses: courses}, nil
}

// Create registers a new student and connects the named courses, creating any
// that do not exist yet.
func (s *StudentService) Create(ctx context.Context, req dto.CreateStudentRequest) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if !req.Branch.Valid() {
		return nil, appErrors.Clone(appErrors.ErrInvalidArgument, "invalid branch")
	}
	exists, err := s.repo.ExistsByEmail(ctx, req.Email, 0)
	if err != nil {
		return nil, appErrors.Persistence(err, "failed to validate email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already used")
	}

	student := &models.Student{
		FirstName:  strings.TrimSpace(req.FirstName),
		LastName:   strings.TrimSpace(req.LastName),
		Email:      strings.TrimSpace(req.Email),
		Address:    req.Address,
		Branch:     req.Branch,
		Attendance: req.Attendance,
		FeesPaid:   req.FeesPaid,
		FeesAmount: req.FeesAmount,
		ImageURL:   req.ImageURL,
	}
	err = s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.repo.CreateTx(ctx, tx, student); err != nil {
			return err
		}
		courseIDs, err := s.courses.EnsureByNamesTx(ctx, tx, uniqueNames(req.Courses))
		if err != nil {
			return err
		}
		return s.courses.ReplaceEnrollmentTx(ctx, tx, student.ID, courseIDs)
	})
	if err != nil {
		s.logger.Error("create student failed", zap.String("email", student.Email), zap.Error(err))
		return nil, appErrors.Persistence(err, "failed to create student")
	}
	s.invalidateDashboard(ctx)
	s.logger.Info("student created", zap.Int64("student_id", student.ID))
	return s.Get(ctx, student.ID)
}

// Update applies the supplied fields only. When Courses is present it replaces
// the enrollment, and every named course must already exist.
func (s *StudentService) Update(ctx context.Context, id int64, req dto.UpdateStudentRequest) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if req.Branch != nil && !req.Branch.Valid() {
		return nil, appErrors.Clone(appErrors.ErrInvalidArgument, "invalid branch")
	}
	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}
	if req.Email != nil {
		exists, err := s.repo.ExistsByEmail(ctx, *req.Email, id)
		if err != nil {
			return nil, appErrors.Persistence(err, "failed to validate email")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already used")
		}
	}

	var courseIDs []int64
	if req.Courses != nil {
		ids, err := s.resolveExistingCourses(ctx, req.Courses)
		if err != nil {
			return nil, err
		}
		courseIDs = ids
	}

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		affected, err := s.repo.UpdateTx(ctx, tx, id, req.Patch())
		if err != nil {
			return err
		}
		if affected == 0 {
			return sql.ErrNoRows
		}
		if req.Courses != nil {
			return s.courses.ReplaceEnrollmentTx(ctx, tx, id, courseIDs)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		s.logger.Error("update student failed", zap.Int64("student_id", id), zap.Error(err))
		return nil, appErrors.Persistence(err, "failed to update student")
	}
	s.invalidateDashboard(ctx)
	return s.Get(ctx, id)
}

// Delete removes a student and returns the deleted record.
func (s *StudentService) Delete(ctx context.Context, id int64) (*models.Student, error) {
	student, err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Persistence(err, "failed to delete student")
	}
	s.invalidateDashboard(ctx)
	s.logger.Info("student deleted", zap.Int64("student_id", id))
	return student, nil
}

// UploadImage normalises the uploaded picture to a bounded JPEG and stores it
// as the student's profile image.
func (s *StudentService) UploadImage(ctx context.Context, id int64, r io.Reader) (*models.Student, error) {
	student, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidArgument.Code, appErrors.ErrInvalidArgument.Status, "unsupported image")
	}
	img = imaging.Fit(img, s.cfg.ImageSize, s.cfg.ImageSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode image")
	}
	name := fmt.Sprintf("students/%d-%s.jpg", id, uuid.NewString())
	if _, err := s.images.SaveStream(name, &buf); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store image")
	}
	url := path.Join(s.cfg.ImageURLPrefix, name)
	if err := s.repo.SetImageURL(ctx, id, url); err != nil {
		if delErr := s.images.Delete(name); delErr != nil {
			s.logger.Warn("failed to remove orphaned image", zap.String("file", name), zap.Error(delErr))
		}
		return nil, appErrors.Persistence(err, "failed to update student image")
	}
	student.ImageURL = &url
	return student, nil
}

func (s *StudentService) find(ctx context.Context, id int64) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Persistence(err, "failed to load student")
	}
	return student, nil
}

func (s *StudentService) resolveExistingCourses(ctx context.Context, names []string) ([]int64, error) {
	wanted := uniqueNames(names)
	courses, err := s.courses.ListByNames(ctx, wanted)
	if err != nil {
		return nil, appErrors.Persistence(err, "failed to load courses")
	}
	found := make(map[string]int64, len(courses))
	for _, course := range courses {
		found[course.Name] = course.ID
	}
	ids := make([]int64, 0, len(wanted))
	for _, name := range wanted {
		id, ok := found[name]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrInvalidArgument, fmt.Sprintf("unknown course %q", name))
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *StudentService) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *StudentService) invalidateDashboard(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, dashboardCachePattern); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}

func uniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
