package errors

import (
	"database/sql"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneKeepsIdentity(t *testing.T) {
	err := Clone(ErrNotFound, "session not found")
	assert.Equal(t, "session not found", err.Message)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.Equal(t, "resource not found", ErrNotFound.Message)
	assert.Nil(t, Clone(nil, "x"))
}

func TestFromErrorClassifiesUnknown(t *testing.T) {
	assert.Nil(t, FromError(nil))

	appErr := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)

	wrapped := FromError(Clone(ErrValidation, "bad"))
	assert.Equal(t, ErrValidation.Code, wrapped.Code)
}

func TestPersistenceWrapsCause(t *testing.T) {
	err := Persistence(sql.ErrConnDone, "")
	assert.Equal(t, ErrPersistence.Message, err.Message)
	assert.True(t, errors.Is(err, sql.ErrConnDone))
	assert.True(t, errors.Is(err, ErrPersistence))
	assert.Contains(t, err.Error(), sql.ErrConnDone.Error())
}
