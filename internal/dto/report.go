package dto

import (
	"time"

	"github.com/Artify24/student-managment-system/internal/models"
)

// AttendanceReportRequest captures filters for the attendance report.
type AttendanceReportRequest struct {
	CourseName string                  `json:"courseName,omitempty"`
	Branch     models.Branch           `json:"branch,omitempty"`
	Status     models.AttendanceStatus `json:"status,omitempty"`
	Search     string                  `json:"search,omitempty"`
	DateFrom   *time.Time              `json:"dateFrom,omitempty"`
	DateTo     *time.Time              `json:"dateTo,omitempty"`
}

// Filter converts the request into a repository filter.
func (r AttendanceReportRequest) Filter() models.AttendanceRecordFilter {
	return models.AttendanceRecordFilter{
		CourseName: r.CourseName,
		Branch:     r.Branch,
		Status:     r.Status,
		Search:     r.Search,
		DateFrom:   r.DateFrom,
		DateTo:     r.DateTo,
	}
}

// AttendanceReportResponse bundles filtered records with statistics.
type AttendanceReportResponse struct {
	Records []models.AttendanceRecord `json:"records"`
	Stats   models.AttendanceStats    `json:"stats"`
}

// ExportReportRequest captures POST /reports/attendance/export payload.
type ExportReportRequest struct {
	Format  models.ReportFormat     `json:"format" validate:"required,oneof=csv pdf xlsx"`
	Filters AttendanceReportRequest `json:"filters"`
}

// ReportJobResponse is returned after enqueueing a report.
type ReportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ReportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ReportStatusResponse exposes job progress metadata.
type ReportStatusResponse struct {
	ID        string              `json:"id"`
	Status    models.ReportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"resultUrl,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
