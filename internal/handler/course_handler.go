package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Artify24/student-managment-system/internal/dto"
	"github.com/Artify24/student-managment-system/internal/models"
	"github.com/Artify24/student-managment-system/pkg/response"
)

type courseService interface {
	List(ctx context.Context) ([]models.CourseSummary, error)
	Create(ctx context.Context, req dto.CreateCourseRequest) (*models.Course, error)
}

type rosterResolver interface {
	Resolve(ctx context.Context, courseName string) ([]int64, error)
}

// CourseHandler exposes course catalogue and roster endpoints.
type CourseHandler struct {
	courses courseService
	roster  rosterResolver
}

// NewCourseHandler constructs CourseHandler.
func NewCourseHandler(courses courseService, roster rosterResolver) *CourseHandler {
	return &CourseHandler{courses: courses, roster: roster}
}

// List godoc
// @Summary List courses with enrolled counts
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	courses, err := h.courses.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// Create godoc
// @Summary Create course
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body dto.CreateCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	var req dto.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	course, err := h.courses.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Roster godoc
// @Summary Students enrolled in a course
// @Tags Courses
// @Produce json
// @Param name path string true "Course name"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{name}/roster [get]
func (h *CourseHandler) Roster(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	ids, err := h.roster.Resolve(c.Request.Context(), name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, models.Roster{CourseName: name, StudentIDs: ids}, nil)
}
