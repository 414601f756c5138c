package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Artify24/student-managment-system/internal/dto"
	"github.com/Artify24/student-managment-system/internal/models"
	appErrors "github.com/Artify24/student-managment-system/pkg/errors"
)

type fakeSessionSrv struct {
	sessions   []models.SessionDetail
	lastFilter models.SessionFilter
	created    dto.CreateSessionRequest
	err        error
	png        []byte
}

func (f *fakeSessionSrv) List(_ context.Context, filter models.SessionFilter) ([]models.SessionDetail, error) {
	f.lastFilter = filter
	return f.sessions, f.err
}

func (f *fakeSessionSrv) Today(context.Context) ([]models.SessionDetail, error) {
	return f.sessions, f.err
}

func (f *fakeSessionSrv) Get(_ context.Context, id int64) (*models.SessionDetail, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.SessionDetail{Session: models.Session{ID: id, CourseName: "Physics"}}, nil
}

func (f *fakeSessionSrv) Create(_ context.Context, req dto.CreateSessionRequest) (*models.SessionDetail, error) {
	f.created = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.SessionDetail{
		Session: models.Session{ID: 11, CourseName: req.CourseName, Time: req.Time, Status: true},
		Present: []models.Student{},
		Absent:  []models.Student{},
	}, nil
}

func (f *fakeSessionSrv) QRCode(context.Context, int64) ([]byte, error) {
	return f.png, f.err
}

func TestSessionHandlerListParsesFilters(t *testing.T) {
	srv := &fakeSessionSrv{sessions: []models.SessionDetail{{Session: models.Session{ID: 7}}}}
	handler := NewSessionHandler(srv)

	c, w := newGinContext(http.MethodGet, "/sessions?status=false&course=Physics", nil)
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, srv.lastFilter.Status)
	assert.False(t, *srv.lastFilter.Status)
	assert.Equal(t, "Physics", srv.lastFilter.CourseName)

	c, w = newGinContext(http.MethodGet, "/sessions?status=maybe", nil)
	handler.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionHandlerCreate(t *testing.T) {
	srv := &fakeSessionSrv{}
	handler := NewSessionHandler(srv)

	c, w := newGinContext(http.MethodPost, "/sessions", []byte(`{"courseName":"Physics","time":"10:00"}`))
	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	var session models.SessionDetail
	decodeData(t, w, &session)
	assert.True(t, session.Status)
	assert.Equal(t, "10:00", session.Time)
	assert.NotNil(t, session.Present)

	srv.err = appErrors.Clone(appErrors.ErrNotFound, "course not found")
	c, w = newGinContext(http.MethodPost, "/sessions", []byte(`{"courseName":"Nope","time":"10:00"}`))
	handler.Create(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "course not found", decodeEnvelope(t, w).Error)
}

func TestSessionHandlerGetAndQRCode(t *testing.T) {
	srv := &fakeSessionSrv{png: []byte("\x89PNG")}
	handler := NewSessionHandler(srv)

	c, w := newGinContext(http.MethodGet, "/sessions/x", nil, idParam("x"))
	handler.Get(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newGinContext(http.MethodGet, "/sessions/0", nil, idParam("0"))
	handler.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "session not found", decodeEnvelope(t, w).Error)

	c, w = newGinContext(http.MethodGet, "/sessions/7", nil, idParam("7"))
	handler.Get(c)
	require.Equal(t, http.StatusOK, w.Code)

	c, w = newGinContext(http.MethodGet, "/sessions/7/qr", nil, idParam("7"))
	handler.QRCode(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "\x89PNG", w.Body.String())
}
