package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Artify24/student-managment-system/internal/dto"
	"github.com/Artify24/student-managment-system/internal/middleware"
	"github.com/Artify24/student-managment-system/internal/models"
	"github.com/Artify24/student-managment-system/internal/service"
	appErrors "github.com/Artify24/student-managment-system/pkg/errors"
	"github.com/Artify24/student-managment-system/pkg/response"
)

type reportService interface {
	Attendance(ctx context.Context, req dto.AttendanceReportRequest) (*dto.AttendanceReportResponse, bool, error)
	CreateExportJob(ctx context.Context, req dto.ExportReportRequest) (*dto.ReportJobResponse, error)
	GetStatus(ctx context.Context, id string) (*dto.ReportStatusResponse, error)
	ResolveDownload(ctx context.Context, token string) (*service.ReportDownload, error)
}

// ReportHandler exposes attendance reporting and export endpoints.
type ReportHandler struct {
	service reportService
}

// NewReportHandler constructs handler.
func NewReportHandler(service reportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// Attendance godoc
// @Summary Attendance records with statistics
// @Tags Reports
// @Produce json
// @Param course query string false "Course name"
// @Param branch query string false "Branch"
// @Param status query string false "present or absent"
// @Param search query string false "Student name"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /reports/attendance [get]
func (h *ReportHandler) Attendance(c *gin.Context) {
	req, err := attendanceReportQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	report, cacheHit, err := h.service.Attendance(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, report, nil, middleware.ResponseMeta(c, start))
}

// Export godoc
// @Summary Queue an attendance report export
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body dto.ExportReportRequest true "Export request"
// @Success 202 {object} response.Envelope
// @Router /reports/attendance/export [post]
func (h *ReportHandler) Export(c *gin.Context) {
	var req dto.ExportReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	job, err := h.service.CreateExportJob(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, job)
}

// Status godoc
// @Summary Export job status
// @Tags Reports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /reports/status/{id} [get]
func (h *ReportHandler) Status(c *gin.Context) {
	status, err := h.service.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Download godoc
// @Summary Download a finished export
// @Tags Reports
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /export/{token} [get]
func (h *ReportHandler) Download(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "download token required"))
		return
	}
	download, err := h.service.ResolveDownload(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close() //nolint:errcheck
	info, err := download.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "export file unreadable"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", download.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), download.Format.ContentType(), download.File, nil)
}

func attendanceReportQuery(c *gin.Context) (dto.AttendanceReportRequest, error) {
	req := dto.AttendanceReportRequest{
		CourseName: strings.TrimSpace(c.Query("course")),
		Branch:     models.Branch(strings.ToUpper(strings.TrimSpace(c.Query("branch")))),
		Status:     models.AttendanceStatus(strings.ToLower(strings.TrimSpace(c.Query("status")))),
		Search:     strings.TrimSpace(c.Query("search")),
	}
	from, err := queryDate(c, "from", false)
	if err != nil {
		return req, err
	}
	to, err := queryDate(c, "to", true)
	if err != nil {
		return req, err
	}
	req.DateFrom, req.DateTo = from, to
	return req, nil
}
