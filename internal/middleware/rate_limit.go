package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// CounterStore increments fixed-window request counters. The window
// boundary is baked into the key, so Incr only needs to bump and expire.
type CounterStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisCounterStore shares budgets across instances.
type RedisCounterStore struct {
	client *redis.Client
}

func NewRedisCounterStore(client *redis.Client) *RedisCounterStore {
	return &RedisCounterStore{client: client}
}

func (s *RedisCounterStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := s.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// MemoryCounterStore is the process-local fallback. Counters are lost on
// restart and not coordinated across instances, which is acceptable for
// a soft anti-abuse control.
type MemoryCounterStore struct {
	mu       sync.Mutex
	counters map[string]memoryCounter
}

type memoryCounter struct {
	count     int64
	expiresAt time.Time
}

func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{counters: make(map[string]memoryCounter)}
}

func (s *MemoryCounterStore) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	// Drop stale windows opportunistically so the map stays bounded.
	for k, c := range s.counters {
		if now.After(c.expiresAt) {
			delete(s.counters, k)
		}
	}

	c := s.counters[key]
	if c.count == 0 {
		c.expiresAt = now.Add(window)
	}
	c.count++
	s.counters[key] = c
	return c.count, nil
}

// RateLimiter enforces a fixed-window per-client-address budget.
// Windows reset on the fixed boundary (time truncated to the window),
// matching the shared-store key scheme.
type RateLimiter struct {
	store  CounterStore
	name   string
	limit  int
	window time.Duration
}

func NewRateLimiter(store CounterStore, name string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{store: store, name: name, limit: limit, window: window}
}

// Middleware rejects over-budget requests with 429 before any handler
// logic, auth included.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c) {
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) allow(c *gin.Context) bool {
	windowStart := time.Now().Truncate(rl.window)
	key := fmt.Sprintf("ratelimit:%s:%s:%d", rl.name, c.ClientIP(), windowStart.Unix())

	count, err := rl.store.Incr(c.Request.Context(), key, rl.window)
	if err != nil {
		// A broken counter store should not take down the API.
		c.Header("X-RateLimit-Error", "rate limit check failed")
		return true
	}

	remaining := int64(rl.limit) - count
	if remaining < 0 {
		remaining = 0
	}
	c.Header("X-RateLimit-Limit", strconv.Itoa(rl.limit))
	c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(windowStart.Add(rl.window).Unix(), 10))

	if count > int64(rl.limit) {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":   "rate limit exceeded",
			"message": fmt.Sprintf("You have exceeded the rate limit of %d requests per %v", rl.limit, rl.window),
		})
		c.Abort()
		return false
	}
	return true
}

// GlobalLimits applies the process-wide per-address budgets to every
// route: 200 per day and 50 per hour.
func GlobalLimits(store CounterStore) gin.HandlerFunc {
	daily := NewRateLimiter(store, "global_daily", 200, 24*time.Hour)
	hourly := NewRateLimiter(store, "global_hourly", 50, time.Hour)
	return func(c *gin.Context) {
		if !daily.allow(c) {
			return
		}
		if !hourly.allow(c) {
			return
		}
		c.Next()
	}
}
