package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limitedRouter(limiter *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ping", limiter.Middleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r
}

func doGet(r *gin.Engine, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = ip + ":12345"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiterEnforcesBudget(t *testing.T) {
	limiter := NewRateLimiter(NewMemoryCounterStore(), "test", 3, time.Minute)
	r := limitedRouter(limiter)

	for i := 0; i < 3; i++ {
		w := doGet(r, "10.0.0.1")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
	}

	w := doGet(r, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Contains(t, w.Body.String(), "rate limit exceeded")
}

func TestRateLimiterIsPerAddress(t *testing.T) {
	limiter := NewRateLimiter(NewMemoryCounterStore(), "test", 1, time.Minute)
	r := limitedRouter(limiter)

	assert.Equal(t, http.StatusOK, doGet(r, "10.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, doGet(r, "10.0.0.1").Code)

	// A different client address has its own budget.
	assert.Equal(t, http.StatusOK, doGet(r, "10.0.0.2").Code)
}

type brokenStore struct{}

func (brokenStore) Incr(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("store down")
}

func TestRateLimiterFailsOpen(t *testing.T) {
	limiter := NewRateLimiter(brokenStore{}, "test", 1, time.Minute)
	r := limitedRouter(limiter)

	for i := 0; i < 5; i++ {
		w := doGet(r, "10.0.0.1")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "rate limit check failed", w.Header().Get("X-RateLimit-Error"))
	}
}

func TestRedisCounterStoreWindowReset(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisCounterStore(client)
	ctx := context.Background()

	count, err := store.Incr(ctx, "ratelimit:test:k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = store.Incr(ctx, "ratelimit:test:k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// The counter expires with the window and starts over.
	mr.FastForward(2 * time.Minute)
	count, err = store.Incr(ctx, "ratelimit:test:k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestGlobalLimitsHourlyBeforeDaily(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ping", GlobalLimits(NewMemoryCounterStore()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	// The hourly cap of 50 trips before the daily cap of 200.
	for i := 0; i < 50; i++ {
		require.Equal(t, http.StatusOK, doGet(r, "10.0.0.1").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, doGet(r, "10.0.0.1").Code)
}
