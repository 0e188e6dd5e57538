package cache

import (
	"context"
	"sync"

	"github.com/Clean-PRO/backend/models"
)

// ReviewCacheKey is the key the full ratings list is cached under.
const ReviewCacheKey = "review_cached_key"

// ReviewCache holds the whole ratings list between writes.
type ReviewCache interface {
	Get(ctx context.Context) ([]models.Rating, bool, error)
	Set(ctx context.Context, ratings []models.Rating) error
	Invalidate(ctx context.Context) error
}

// MemoryCache is the in-process ReviewCache used when no Redis is configured.
type MemoryCache struct {
	mu      sync.RWMutex
	ratings []models.Rating
	valid   bool
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

func (m *MemoryCache) Get(_ context.Context) ([]models.Rating, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.valid {
		return nil, false, nil
	}
	out := make([]models.Rating, len(m.ratings))
	copy(out, m.ratings)
	return out, true, nil
}

func (m *MemoryCache) Set(_ context.Context, ratings []models.Rating) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ratings = make([]models.Rating, len(ratings))
	copy(m.ratings, ratings)
	m.valid = true
	return nil
}

func (m *MemoryCache) Invalidate(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ratings = nil
	m.valid = false
	return nil
}
