package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradehub/api-gateway/internal/ratelimit"
	"github.com/gradehub/api-gateway/internal/ratelimit/store"
	"github.com/gradehub/api-gateway/internal/response"
)

func newRateLimitEngine(t *testing.T, config RateLimitConfig) *gin.Engine {
	t.Helper()

	engine := gin.New()
	engine.Use(ClientIP(1), RateLimit(config))
	engine.GET("/v1/auth/me", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return engine
}

func newMemoryLimiter(t *testing.T, limit int, window time.Duration) ratelimit.Limiter {
	t.Helper()

	s := store.NewMemoryStore()
	t.Cleanup(func() { _ = s.Close() })
	return ratelimit.NewFixedWindowLimiter(s, limit, window, nil)
}

func TestRateLimit_AllowsUnderLimit(t *testing.T) {
	engine := newRateLimitEngine(t, RateLimitConfig{
		Limiter: newMemoryLimiter(t, 3, time.Minute),
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest("GET", "/v1/auth/me", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "3", w.Header().Get(RateLimitLimitHeader))
	}
}

func TestRateLimit_DeniesOverLimit(t *testing.T) {
	engine := newRateLimitEngine(t, RateLimitConfig{
		Limiter: newMemoryLimiter(t, 2, time.Minute),
	})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest("GET", "/v1/auth/me", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest("GET", "/v1/auth/me", nil))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get(RateLimitRemainingHeader))
	assert.NotEmpty(t, w.Header().Get(RetryAfterHeader))

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	assert.Equal(t, response.MsgTooManyRequests, envelope.Message)
}

func TestRateLimit_SeparateClientsSeparateBudgets(t *testing.T) {
	engine := newRateLimitEngine(t, RateLimitConfig{
		Limiter: newMemoryLimiter(t, 1, time.Minute),
	})

	send := func(remoteAddr string) int {
		r := httptest.NewRequest("GET", "/v1/auth/me", nil)
		r.RemoteAddr = remoteAddr
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, r)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("192.0.2.1:1000"))
	assert.Equal(t, http.StatusTooManyRequests, send("192.0.2.1:1001"))
	assert.Equal(t, http.StatusOK, send("192.0.2.2:1000"))
}

func TestRateLimit_FailOpen(t *testing.T) {
	engine := newRateLimitEngine(t, RateLimitConfig{
		Limiter:  &failingLimiter{},
		FailOpen: true,
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest("GET", "/v1/auth/me", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit_FailClosed(t *testing.T) {
	engine := newRateLimitEngine(t, RateLimitConfig{
		Limiter:  &failingLimiter{},
		FailOpen: false,
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest("GET", "/v1/auth/me", nil))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	assert.Equal(t, response.MsgTooManyRequests, envelope.Message)
}

// failingLimiter simulates a store outage on every check.
type failingLimiter struct{}

func (l *failingLimiter) Allow(ctx context.Context, key string) (*ratelimit.Result, error) {
	return nil, errors.New("store unavailable")
}

func (l *failingLimiter) Limit() ratelimit.Limit {
	return ratelimit.Limit{Requests: 100, Window: 15 * time.Minute}
}

func (l *failingLimiter) Reset(ctx context.Context, key string) error {
	return errors.New("store unavailable")
}
