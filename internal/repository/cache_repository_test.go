package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/officehours-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil)
	ctx := context.Background()

	var dest []string
	assert.ErrorIs(t, repo.Get(ctx, "booking:professors", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "booking:professors", []string{"a"}, time.Minute))
	assert.NoError(t, repo.Delete(ctx, "booking:professors"))
	assert.NoError(t, repo.Ping(ctx))
}
