package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// RateLimitService counts requests per key in fixed windows
type RateLimitService interface {
	// Allow records one hit and reports whether key is still under limit
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

const keyPrefix = "ratelimit:"

type redisRateLimitService struct {
	client *redis.Client
}

// NewRedisRateLimitService shares counters between instances
func NewRedisRateLimitService(client *redis.Client) RateLimitService {
	return &redisRateLimitService{client: client}
}

func (s *redisRateLimitService) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := s.client.Incr(ctx, keyPrefix+key).Result()
	if err != nil {
		return true, fmt.Errorf("failed to increment rate limit: %w", err)
	}
	// only the first hit sets the expiry so the window does not slide
	if count == 1 {
		if err := s.client.Expire(ctx, keyPrefix+key, window).Err(); err != nil {
			return true, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}
	return count <= int64(limit), nil
}

type memoryRateLimitService struct {
	mu      sync.Mutex
	now     func() time.Time
	windows map[string]*window
}

type window struct {
	count   int
	resetAt time.Time
}

// NewMemoryRateLimitService counts per process
func NewMemoryRateLimitService() RateLimitService {
	return &memoryRateLimitService{now: time.Now, windows: make(map[string]*window)}
}

func (s *memoryRateLimitService) Allow(ctx context.Context, key string, limit int, d time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w, ok := s.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(d)}
		s.windows[key] = w
	}
	w.count++
	return w.count <= limit, nil
}

type noopRateLimitService struct{}

// NewNoopRateLimitService allows everything
func NewNoopRateLimitService() RateLimitService {
	return noopRateLimitService{}
}

func (noopRateLimitService) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return true, nil
}
