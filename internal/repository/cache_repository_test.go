package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/Artify24/student-managment-system/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, "attendance", nil)
	ctx := context.Background()

	var dest map[string]int
	err := repo.Get(ctx, "dash:admin", &dest)
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))
	assert.NoError(t, repo.Set(ctx, "dash:admin", map[string]int{"students": 4}, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(ctx, "dash:*"))
	assert.NoError(t, repo.Ping(ctx))
	assert.NoError(t, repo.Close())
}

func TestCacheRepositoryNamespacesKeys(t *testing.T) {
	assert.Equal(t, "attendance:dash:admin", NewCacheRepository(nil, "attendance", nil).key("dash:admin"))
	assert.Equal(t, "report:*", NewCacheRepository(nil, "", nil).key("report:*"))
}
