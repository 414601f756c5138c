package dto

import (
	"encoding/json"

	"github.com/Artify24/student-managment-system/internal/models"
)

// ReconcileAttendanceRequest is the PUT /session/{id}/attendance payload.
// Entries may be JSON numbers or numeric strings.
type ReconcileAttendanceRequest struct {
	PresentIDs []json.RawMessage `json:"presentIds"`
}

// ReconcileAttendanceResponse reports the reconciled session and which of the
// supplied identifiers were applied or dropped.
type ReconcileAttendanceResponse struct {
	Message  string               `json:"message"`
	Session  models.SessionDetail `json:"session"`
	Accepted []int64              `json:"accepted"`
	Rejected []models.RejectedID  `json:"rejected"`
}
