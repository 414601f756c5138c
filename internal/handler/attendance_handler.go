package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Artify24/student-managment-system/internal/dto"
	"github.com/Artify24/student-managment-system/internal/models"
	"github.com/Artify24/student-managment-system/internal/service"
	"github.com/Artify24/student-managment-system/pkg/response"
)

type attendanceService interface {
	Reconcile(ctx context.Context, sessionID int64, presentIDs []json.RawMessage) (*service.ReconcileResult, error)
}

// AttendanceHandler exposes session attendance reconciliation.
type AttendanceHandler struct {
	service attendanceService
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(service attendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: service}
}

// Reconcile godoc
// @Summary Mark attendance for a session
// @Description Students in presentIds who are enrolled in the session's course are marked present, every other enrolled student absent.
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path int true "Session ID"
// @Param payload body dto.ReconcileAttendanceRequest true "Present student ids"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /session/{id}/attendance [put]
func (h *AttendanceHandler) Reconcile(c *gin.Context) {
	id, err := pathID(c, "id", "session")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.ReconcileAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	result, err := h.service.Reconcile(c.Request.Context(), id, req.PresentIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	accepted := result.Accepted
	if accepted == nil {
		accepted = []int64{}
	}
	rejected := result.Rejected
	if rejected == nil {
		rejected = []models.RejectedID{}
	}
	response.JSON(c, http.StatusOK, dto.ReconcileAttendanceResponse{
		Message:  "Attendance updated successfully",
		Session:  *result.Session,
		Accepted: accepted,
		Rejected: rejected,
	}, nil)
}
