package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"image/png"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Artify24/student-managment-system/internal/dto"
	"github.com/Artify24/student-managment-system/internal/models"
	appErrors "github.com/Artify24/student-managment-system/pkg/errors"
)

type mockSessionRepo struct {
	sessions   map[int64]models.Session
	lastFilter models.SessionFilter
	created    []models.Session
}

func (m *mockSessionRepo) List(ctx context.Context, filter models.SessionFilter) ([]models.SessionDetail, error) {
	m.lastFilter = filter
	out := make([]models.SessionDetail, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, models.SessionDetail{Session: s})
	}
	return out, nil
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id int64) (*models.SessionDetail, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.SessionDetail{Session: s}, nil
}

func (m *mockSessionRepo) Create(ctx context.Context, session *models.Session) error {
	session.ID = int64(100 + len(m.created))
	m.created = append(m.created, *session)
	return nil
}

type stubCourseLookup map[string]bool

func (s stubCourseLookup) ExistsByName(ctx context.Context, name string) (bool, error) {
	return s[name], nil
}

func newSessionFixture() (*SessionService, *mockSessionRepo) {
	repo := &mockSessionRepo{sessions: map[int64]models.Session{7: {ID: 7, CourseName: "Physics", Status: true}}}
	svc := NewSessionService(repo, stubCourseLookup{"Physics": true}, nil, nil, SessionServiceConfig{PublicBaseURL: "https://admin.example.com/"})
	return svc, repo
}

func TestSessionServiceCreate(t *testing.T) {
	svc, repo := newSessionFixture()

	session, err := svc.Create(context.Background(), dto.CreateSessionRequest{CourseName: " Physics ", Time: "10:00"})
	require.NoError(t, err)
	assert.Equal(t, int64(100), session.ID)
	assert.True(t, session.Status)
	assert.Equal(t, "Physics", session.CourseName)
	assert.NotNil(t, session.Present)
	assert.NotNil(t, session.Absent)
	require.Len(t, repo.created, 1)
	assert.False(t, repo.created[0].Date.IsZero())
}

func TestSessionServiceCreateErrors(t *testing.T) {
	svc, _ := newSessionFixture()

	_, err := svc.Create(context.Background(), dto.CreateSessionRequest{CourseName: "Physics"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, "missing fields", appErr.Message)

	_, err = svc.Create(context.Background(), dto.CreateSessionRequest{CourseName: "Chemistry", Time: "09:00"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestSessionServiceTodayFiltersCurrentDay(t *testing.T) {
	svc, repo := newSessionFixture()
	svc.now = func() time.Time { return time.Date(2024, 3, 5, 15, 30, 0, 0, time.UTC) }

	_, err := svc.Today(context.Background())
	require.NoError(t, err)
	require.NotNil(t, repo.lastFilter.DateFrom)
	require.NotNil(t, repo.lastFilter.DateTo)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), *repo.lastFilter.DateFrom)
	assert.Equal(t, 5, repo.lastFilter.DateTo.Day())
}

func TestSessionServiceQRCode(t *testing.T) {
	svc, _ := newSessionFixture()
	assert.Equal(t, "https://admin.example.com/sessions/7/attendance", svc.AttendanceURL(7))

	data, err := svc.QRCode(context.Background(), 7)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())

	_, err = svc.QRCode(context.Background(), 999)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
