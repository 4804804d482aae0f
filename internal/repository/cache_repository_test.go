package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/juanketo/BBMApp-sub000/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	var dest map[string]string
	assert.ErrorIs(t, repo.Get(ctx, "pricing:price_base:pb1", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "pricing:price_base:pb1", map[string]string{"id": "pb1"}, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(ctx, "pricing:*"))
}

func TestCacheRepositoryNamespacesKeys(t *testing.T) {
	assert.Equal(t, "bbm:pricing:memberships", NewCacheRepository(nil, nil).Key("pricing:memberships"))
	assert.Equal(t, "staging:pricing:*", NewNamespacedCacheRepository(nil, "staging:", nil).Key("pricing:*"))
}
