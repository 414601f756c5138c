package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Artify24/student-managment-system/internal/models"
)

func TestMetricsServiceSnapshot(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/sessions", http.StatusOK, 10*time.Millisecond)
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/sessions", http.StatusOK, 30*time.Millisecond)
	m.ObserveDBQuery("dashboard", 4*time.Millisecond)
	m.ObserveReconciliation("OK", time.Millisecond, 2, 1, 0)
	m.ObserveReconciliation("NOT_FOUND", time.Millisecond, 0, 0, 0)

	snapshot := m.Snapshot()
	assert.Equal(t, uint64(2), snapshot.RequestsTotal)
	assert.InDelta(t, 20.0, snapshot.AverageRequestDurationMs, 0.001)
	assert.Equal(t, uint64(1), snapshot.DBQueryCount)
	assert.InDelta(t, 4.0, snapshot.AverageDBQueryDurationMs, 0.001)
	assert.Equal(t, uint64(1), snapshot.Reconciliations)
	assert.Equal(t, uint64(1), snapshot.ReconcileFailures)
	assert.Positive(t, snapshot.Goroutines)
}

func TestMetricsServiceHandlerExposesCollectors(t *testing.T) {
	m := NewMetricsService()
	m.ObserveReportJob(models.ReportFormatCSV, models.ReportStatusFinished)
	m.ObserveReconciliation("OK", time.Millisecond, 3, 1, 2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `report_jobs_total{format="csv",status="FINISHED"} 1`))
	assert.True(t, strings.Contains(body, `attendance_reconciled_students_total{classification="rejected"} 2`))
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	assert.Equal(t, models.SystemMetrics{}, m.Snapshot())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
