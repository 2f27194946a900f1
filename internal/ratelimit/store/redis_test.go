package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	cfg := DefaultRedisConfig()
	cfg.Address = mr.Addr()

	s, err := NewRedisStore(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s, mr
}

func TestNewRedisStore_ConnectionFailure(t *testing.T) {
	cfg := DefaultRedisConfig()
	cfg.Address = "127.0.0.1:1"
	cfg.DialTimeout = 100 * time.Millisecond

	_, err := NewRedisStore(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to redis")
}

func TestNewRedisStore_FromURL(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := DefaultRedisConfig()
	cfg.URL = "redis://" + mr.Addr()

	s, err := NewRedisStore(cfg)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.IncrementWithExpiry(context.Background(), "key", 1, time.Minute)
	require.NoError(t, err)
}

func TestNewRedisStore_InvalidURL(t *testing.T) {
	cfg := DefaultRedisConfig()
	cfg.URL = "not-a-url"

	_, err := NewRedisStore(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid redis URL")
}

func TestRedisStore_IncrementWithExpiry(t *testing.T) {
	s, mr := newTestRedisStore(t)
	ctx := context.Background()

	count, err := s.IncrementWithExpiry(ctx, "key", 1, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = s.IncrementWithExpiry(ctx, "key", 1, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// TTL is anchored to the first hit.
	ttl := mr.TTL("ratelimit:key")
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)
}

func TestRedisStore_IncrementWithExpiry_ExpiredKeyResets(t *testing.T) {
	s, mr := newTestRedisStore(t)
	ctx := context.Background()

	count, err := s.IncrementWithExpiry(ctx, "key", 1, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	mr.FastForward(2 * time.Minute)

	count, err = s.IncrementWithExpiry(ctx, "key", 1, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRedisStore_Get(t *testing.T) {
	s, _ := newTestRedisStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	require.Error(t, err)
	assert.True(t, IsKeyNotFound(err))

	_, err = s.IncrementWithExpiry(ctx, "key", 4, time.Minute)
	require.NoError(t, err)

	value, err := s.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, int64(4), value)
}

func TestRedisStore_Delete(t *testing.T) {
	s, _ := newTestRedisStore(t)
	ctx := context.Background()

	_, err := s.IncrementWithExpiry(ctx, "key", 1, time.Minute)
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "key"))

	_, err = s.Get(ctx, "key")
	assert.True(t, IsKeyNotFound(err))
}

func TestRedisStore_PrefixIsolation(t *testing.T) {
	mr := miniredis.RunT(t)

	cfgA := DefaultRedisConfig()
	cfgA.Address = mr.Addr()
	cfgA.Prefix = "a:"

	cfgB := DefaultRedisConfig()
	cfgB.Address = mr.Addr()
	cfgB.Prefix = "b:"

	a, err := NewRedisStore(cfgA)
	require.NoError(t, err)
	defer a.Close()

	b, err := NewRedisStore(cfgB)
	require.NoError(t, err)
	defer b.Close()

	ctx := context.Background()

	_, err = a.IncrementWithExpiry(ctx, "key", 1, time.Minute)
	require.NoError(t, err)

	_, err = b.Get(ctx, "key")
	assert.True(t, IsKeyNotFound(err))
}

func TestRedisStore_ServerDown(t *testing.T) {
	s, mr := newTestRedisStore(t)
	ctx := context.Background()

	mr.Close()

	_, err := s.IncrementWithExpiry(ctx, "key", 1, time.Minute)
	assert.Error(t, err)

	_, err = s.Get(ctx, "key")
	assert.Error(t, err)
	assert.False(t, IsKeyNotFound(err))
}
