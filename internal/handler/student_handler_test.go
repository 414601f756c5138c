package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Artify24/student-managment-system/internal/dto"
	"github.com/Artify24/student-managment-system/internal/models"
	appErrors "github.com/Artify24/student-managment-system/pkg/errors"
)

type fakeStudentSrv struct {
	lastFilter models.StudentFilter
	lastUpdate dto.UpdateStudentRequest
	uploaded   []byte
	err        error
}

func (f *fakeStudentSrv) List(_ context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	f.lastFilter = filter
	return []models.Student{{ID: 1, FirstName: "Asha"}}, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: 1}, f.err
}

func (f *fakeStudentSrv) Get(_ context.Context, id int64) (*models.StudentDetail, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.StudentDetail{Student: models.Student{ID: id}}, nil
}

func (f *fakeStudentSrv) Create(_ context.Context, req dto.CreateStudentRequest) (*models.StudentDetail, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.StudentDetail{Student: models.Student{ID: 2, FirstName: req.FirstName, Branch: req.Branch}}, nil
}

func (f *fakeStudentSrv) Update(_ context.Context, id int64, req dto.UpdateStudentRequest) (*models.StudentDetail, error) {
	f.lastUpdate = req
	return &models.StudentDetail{Student: models.Student{ID: id}}, f.err
}

func (f *fakeStudentSrv) Delete(_ context.Context, id int64) (*models.Student, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Student{ID: id, Email: "asha@example.com"}, nil
}

func (f *fakeStudentSrv) UploadImage(_ context.Context, id int64, r io.Reader) (*models.Student, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.uploaded = data
	url := "/uploads/students/1-x.jpg"
	return &models.Student{ID: id, ImageURL: &url}, nil
}

func TestStudentHandlerListParsesQuery(t *testing.T) {
	srv := &fakeStudentSrv{}
	handler := NewStudentHandler(srv, 0)

	c, w := newGinContext(http.MethodGet, "/students?search=asha&branch=thane&page=2&limit=5&sort=first_name&order=desc", nil)
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "asha", srv.lastFilter.Search)
	assert.Equal(t, models.BranchThane, srv.lastFilter.Branch)
	assert.Equal(t, 2, srv.lastFilter.Page)
	assert.Equal(t, 5, srv.lastFilter.PageSize)
	assert.Equal(t, "desc", srv.lastFilter.SortOrder)
	assert.Contains(t, w.Body.String(), `"total_count":1`)
}

func TestStudentHandlerCreateAndUpdate(t *testing.T) {
	srv := &fakeStudentSrv{}
	handler := NewStudentHandler(srv, 0)

	c, w := newGinContext(http.MethodPost, "/students", []byte(`{"firstName":"Ravi","lastName":"Shah","email":"ravi@example.com","branch":"NERUL","courses":["Physics"]}`))
	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)

	c, w = newGinContext(http.MethodPost, "/students", []byte(`{"firstName":`))
	handler.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newGinContext(http.MethodPut, "/students/1", []byte(`{"feesPaid":true}`), idParam("1"))
	handler.Update(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, srv.lastUpdate.FeesPaid)
	assert.True(t, *srv.lastUpdate.FeesPaid)
	assert.Nil(t, srv.lastUpdate.FirstName)
}

func TestStudentHandlerDeleteMapsNotFound(t *testing.T) {
	srv := &fakeStudentSrv{}
	handler := NewStudentHandler(srv, 0)

	c, w := newGinContext(http.MethodDelete, "/students/1", nil, idParam("1"))
	handler.Delete(c)
	require.Equal(t, http.StatusOK, w.Code)

	srv.err = appErrors.Clone(appErrors.ErrNotFound, "student not found")
	c, w = newGinContext(http.MethodDelete, "/students/9", nil, idParam("9"))
	handler.Delete(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStudentHandlerUploadImage(t *testing.T) {
	srv := &fakeStudentSrv{}
	handler := NewStudentHandler(srv, 1<<20)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", "me.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("image-bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	c, w := newGinContext(http.MethodPost, "/students/1/image", body.Bytes(), idParam("1"))
	c.Request.Header.Set("Content-Type", writer.FormDataContentType())
	handler.UploadImage(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image-bytes", string(srv.uploaded))

	c, w = newGinContext(http.MethodPost, "/students/1/image", []byte(`{}`), idParam("1"))
	handler.UploadImage(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
