package cache

import (
	"context"
	"testing"
	"time"

	"github.com/Clean-PRO/backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheLifecycle(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	_, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "empty cache must miss")

	ratings := []models.Rating{
		{ID: 1, Username: "Anna", Text: "great", Score: 5, PubDate: time.Now()},
		{ID: 2, Username: "Oleg", Text: "ok", Score: 4, PubDate: time.Now()},
	}
	require.NoError(t, c.Set(ctx, ratings))

	got, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, got, 2)

	// Mutating the returned slice must not leak into the cache.
	got[0].Text = "changed"
	again, _, _ := c.Get(ctx)
	assert.Equal(t, "great", again[0].Text)

	require.NoError(t, c.Invalidate(ctx))
	_, ok, err = c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCacheEmptyListIsAHit(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	require.NoError(t, c.Set(ctx, nil))
	got, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, got)
}
