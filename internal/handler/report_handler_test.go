package handler

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Artify24/student-managment-system/internal/dto"
	"github.com/Artify24/student-managment-system/internal/models"
	"github.com/Artify24/student-managment-system/internal/service"
	appErrors "github.com/Artify24/student-managment-system/pkg/errors"
)

type reportServiceMock struct {
	lastQuery   dto.AttendanceReportRequest
	cacheHit    bool
	createResp  *dto.ReportJobResponse
	createErr   error
	statusResp  *dto.ReportStatusResponse
	statusErr   error
	download    *service.ReportDownload
	downloadErr error
}

func (m *reportServiceMock) Attendance(_ context.Context, req dto.AttendanceReportRequest) (*dto.AttendanceReportResponse, bool, error) {
	m.lastQuery = req
	return &dto.AttendanceReportResponse{Records: []models.AttendanceRecord{}, Stats: models.AttendanceStats{AverageAttendance: 50}}, m.cacheHit, nil
}

func (m *reportServiceMock) CreateExportJob(context.Context, dto.ExportReportRequest) (*dto.ReportJobResponse, error) {
	return m.createResp, m.createErr
}

func (m *reportServiceMock) GetStatus(context.Context, string) (*dto.ReportStatusResponse, error) {
	return m.statusResp, m.statusErr
}

func (m *reportServiceMock) ResolveDownload(context.Context, string) (*service.ReportDownload, error) {
	return m.download, m.downloadErr
}

func TestReportHandlerAttendanceParsesFilters(t *testing.T) {
	mockSvc := &reportServiceMock{cacheHit: true}
	handler := NewReportHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/reports/attendance?course=Physics&branch=thane&status=Present&from=2024-03-01&to=2024-03-05", nil)
	handler.Attendance(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Physics", mockSvc.lastQuery.CourseName)
	assert.Equal(t, models.BranchThane, mockSvc.lastQuery.Branch)
	assert.Equal(t, models.AttendanceStatus("present"), mockSvc.lastQuery.Status)
	require.NotNil(t, mockSvc.lastQuery.DateFrom)
	require.NotNil(t, mockSvc.lastQuery.DateTo)
	assert.Equal(t, time.Date(2024, 3, 5, 23, 59, 59, 999999999, time.UTC), *mockSvc.lastQuery.DateTo)
	assert.Equal(t, true, decodeEnvelope(t, w).Meta["cache_hit"])

	c, w = newGinContext(http.MethodGet, "/reports/attendance?from=03-01-2024", nil)
	handler.Attendance(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportHandlerExport(t *testing.T) {
	mockSvc := &reportServiceMock{createResp: &dto.ReportJobResponse{ID: "job-1", Status: models.ReportStatusQueued}}
	handler := NewReportHandler(mockSvc)

	c, w := newGinContext(http.MethodPost, "/reports/attendance/export", []byte(`{"format":"csv","filters":{"courseName":"Physics"}}`))
	handler.Export(c)
	require.Equal(t, http.StatusAccepted, w.Code)
	var job dto.ReportJobResponse
	decodeData(t, w, &job)
	assert.Equal(t, "job-1", job.ID)

	mockSvc.createErr = appErrors.Clone(appErrors.ErrValidation, "unsupported format")
	c, w = newGinContext(http.MethodPost, "/reports/attendance/export", []byte(`{"format":"docx"}`))
	handler.Export(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportHandlerStatus(t *testing.T) {
	url := "/api/v1/export/token"
	mockSvc := &reportServiceMock{statusResp: &dto.ReportStatusResponse{ID: "job-1", Status: models.ReportStatusFinished, Progress: 100, ResultURL: &url}}
	handler := NewReportHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/reports/status/job-1", nil, idParam("job-1"))
	handler.Status(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), url)
}

func TestReportHandlerDownload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attendance.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n"), 0o600))
	file, err := os.Open(path)
	require.NoError(t, err)

	mockSvc := &reportServiceMock{download: &service.ReportDownload{File: file, Filename: "attendance.csv", Format: models.ReportFormatCSV}}
	handler := NewReportHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/export/token", nil, gin.Param{Key: "token", Value: "token"})
	handler.Download(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a,b\n", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attendance.csv")
	assert.Equal(t, models.ReportFormatCSV.ContentType(), w.Header().Get("Content-Type"))

	mockSvc.downloadErr = appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	c, w = newGinContext(http.MethodGet, "/export/bad", nil, gin.Param{Key: "token", Value: "bad"})
	handler.Download(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
