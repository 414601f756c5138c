package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Artify24/student-managment-system/internal/dto"
	"github.com/Artify24/student-managment-system/internal/models"
	"github.com/Artify24/student-managment-system/internal/service"
	appErrors "github.com/Artify24/student-managment-system/pkg/errors"
)

type fakeAttendanceSrv struct {
	result    *service.ReconcileResult
	err       error
	called    bool
	sessionID int64
	present   []json.RawMessage
}

func (f *fakeAttendanceSrv) Reconcile(_ context.Context, sessionID int64, presentIDs []json.RawMessage) (*service.ReconcileResult, error) {
	f.called = true
	f.sessionID = sessionID
	f.present = presentIDs
	return f.result, f.err
}

func TestAttendanceHandlerReconcile(t *testing.T) {
	srv := &fakeAttendanceSrv{result: &service.ReconcileResult{
		Session: &models.SessionDetail{
			Session: models.Session{ID: 7, CourseName: "Physics", Status: false},
			Present: []models.Student{{ID: 1}, {ID: 3}},
			Absent:  []models.Student{{ID: 2}, {ID: 4}},
		},
		Accepted: []int64{1, 3},
		Rejected: []models.RejectedID{{Value: "999999", Reason: models.RejectUnknownStudent}},
	}}
	handler := NewAttendanceHandler(srv)

	c, w := newGinContext(http.MethodPut, "/session/7/attendance", []byte(`{"presentIds":[1,"3",999999]}`), idParam("7"))
	handler.Reconcile(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(7), srv.sessionID)
	require.Len(t, srv.present, 3)
	assert.Equal(t, `"3"`, string(srv.present[1]))

	var body dto.ReconcileAttendanceResponse
	decodeData(t, w, &body)
	assert.Equal(t, "Attendance updated successfully", body.Message)
	assert.False(t, body.Session.Status)
	assert.Len(t, body.Session.Present, 2)
	assert.Equal(t, []int64{1, 3}, body.Accepted)
	require.Len(t, body.Rejected, 1)
	assert.Equal(t, "999999", body.Rejected[0].Value)
}

func TestAttendanceHandlerRejectsBadInput(t *testing.T) {
	srv := &fakeAttendanceSrv{}
	handler := NewAttendanceHandler(srv)

	c, w := newGinContext(http.MethodPut, "/session/abc/attendance", []byte(`{"presentIds":[]}`), idParam("abc"))
	handler.Reconcile(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appErrors.ErrInvalidArgument.Code, decodeEnvelope(t, w).Code)

	c, w = newGinContext(http.MethodPut, "/session/7/attendance", []byte(`{"presentIds":"1,2"}`), idParam("7"))
	handler.Reconcile(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, srv.called)
}

func TestAttendanceHandlerMapsServiceErrors(t *testing.T) {
	cases := map[string]struct {
		err    error
		status int
		code   string
	}{
		"missing session": {appErrors.Clone(appErrors.ErrNotFound, "session not found"), http.StatusNotFound, appErrors.ErrNotFound.Code},
		"timeout":         {appErrors.ErrTimeout, http.StatusServiceUnavailable, appErrors.ErrTimeout.Code},
		"persistence":     {appErrors.Persistence(assert.AnError, "failed to reconcile attendance"), http.StatusInternalServerError, appErrors.ErrPersistence.Code},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			handler := NewAttendanceHandler(&fakeAttendanceSrv{err: tc.err})
			c, w := newGinContext(http.MethodPut, "/session/999/attendance", []byte(`{"presentIds":[1]}`), idParam("999"))
			handler.Reconcile(c)

			assert.Equal(t, tc.status, w.Code)
			envelope := decodeEnvelope(t, w)
			assert.Equal(t, tc.code, envelope.Code)
			assert.NotEmpty(t, envelope.Error)
			assert.NotContains(t, envelope.Error, assert.AnError.Error())
		})
	}
}
