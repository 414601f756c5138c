package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Artify24/student-managment-system/internal/dto"
	"github.com/Artify24/student-managment-system/internal/models"
	appErrors "github.com/Artify24/student-managment-system/pkg/errors"
	"github.com/Artify24/student-managment-system/pkg/response"
)

type sessionService interface {
	List(ctx context.Context, filter models.SessionFilter) ([]models.SessionDetail, error)
	Today(ctx context.Context) ([]models.SessionDetail, error)
	Get(ctx context.Context, id int64) (*models.SessionDetail, error)
	Create(ctx context.Context, req dto.CreateSessionRequest) (*models.SessionDetail, error)
	QRCode(ctx context.Context, id int64) ([]byte, error)
}

// SessionHandler exposes class session endpoints.
type SessionHandler struct {
	service sessionService
}

// NewSessionHandler constructs SessionHandler.
func NewSessionHandler(service sessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

// List godoc
// @Summary List sessions
// @Tags Sessions
// @Produce json
// @Param status query bool false "Filter by active state"
// @Param course query string false "Filter by course name"
// @Success 200 {object} response.Envelope
// @Router /sessions [get]
func (h *SessionHandler) List(c *gin.Context) {
	filter := models.SessionFilter{CourseName: strings.TrimSpace(c.Query("course"))}
	if raw := c.Query("status"); raw != "" {
		status, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "status must be true or false"))
			return
		}
		filter.Status = &status
	}
	sessions, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, nil)
}

// Today godoc
// @Summary List today's sessions
// @Tags Sessions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /sessions/today [get]
func (h *SessionHandler) Today(c *gin.Context) {
	sessions, err := h.service.Today(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, nil)
}

// Get godoc
// @Summary Get session with present and absent students
// @Tags Sessions
// @Produce json
// @Param id path int true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sessions/{id} [get]
func (h *SessionHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id", "session")
	if err != nil {
		response.Error(c, err)
		return
	}
	session, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Create godoc
// @Summary Create session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body dto.CreateSessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sessions [post]
func (h *SessionHandler) Create(c *gin.Context) {
	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	session, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// QRCode godoc
// @Summary QR code linking to the session attendance page
// @Tags Sessions
// @Produce png
// @Param id path int true "Session ID"
// @Success 200 {file} binary
// @Router /sessions/{id}/qr [get]
func (h *SessionHandler) QRCode(c *gin.Context) {
	id, err := pathID(c, "id", "session")
	if err != nil {
		response.Error(c, err)
		return
	}
	png, err := h.service.QRCode(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}
