package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Clean-PRO/backend/models"
	"github.com/redis/go-redis/v9"
)

// RedisCache stores the ratings list as one JSON value.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient parses a redis:// URL and checks the server is reachable.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewRedisCache wraps client. A zero ttl keeps the value until invalidated.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (r *RedisCache) Get(ctx context.Context) ([]models.Rating, bool, error) {
	raw, err := r.client.Get(ctx, ReviewCacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var ratings []models.Rating
	if err := json.Unmarshal(raw, &ratings); err != nil {
		// A value we cannot decode is treated as a miss.
		return nil, false, nil
	}
	return ratings, true, nil
}

func (r *RedisCache) Set(ctx context.Context, ratings []models.Rating) error {
	raw, err := json.Marshal(ratings)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, ReviewCacheKey, raw, r.ttl).Err()
}

func (r *RedisCache) Invalidate(ctx context.Context) error {
	return r.client.Del(ctx, ReviewCacheKey).Err()
}
