package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_IncrementWithExpiry(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	ctx := context.Background()

	count, err := s.IncrementWithExpiry(ctx, "key", 1, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = s.IncrementWithExpiry(ctx, "key", 1, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	count, err = s.IncrementWithExpiry(ctx, "key", 5, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
}

func TestMemoryStore_IncrementWithExpiry_ExpiredKeyResets(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	ctx := context.Background()

	count, err := s.IncrementWithExpiry(ctx, "key", 1, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	time.Sleep(20 * time.Millisecond)

	// The expired counter must restart at delta, not continue.
	count, err = s.IncrementWithExpiry(ctx, "key", 1, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMemoryStore_Get(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	require.Error(t, err)
	assert.True(t, IsKeyNotFound(err))

	_, err = s.IncrementWithExpiry(ctx, "key", 3, time.Minute)
	require.NoError(t, err)

	value, err := s.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, int64(3), value)
}

func TestMemoryStore_Get_ExpiredKey(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	ctx := context.Background()

	_, err := s.IncrementWithExpiry(ctx, "key", 1, 10*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	_, err = s.Get(ctx, "key")
	require.Error(t, err)
	assert.True(t, IsKeyNotFound(err))
}

func TestMemoryStore_Delete(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	ctx := context.Background()

	_, err := s.IncrementWithExpiry(ctx, "key", 1, time.Minute)
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "key"))

	_, err = s.Get(ctx, "key")
	assert.True(t, IsKeyNotFound(err))

	// Deleting a missing key is not an error.
	require.NoError(t, s.Delete(ctx, "missing"))
}

func TestMemoryStore_ContextCancellation(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Get(ctx, "key")
	assert.ErrorIs(t, err, context.Canceled)

	_, err = s.IncrementWithExpiry(ctx, "key", 1, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)

	err = s.Delete(ctx, "key")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStore_ConcurrentIncrements(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	ctx := context.Background()

	const (
		goroutines = 20
		increments = 50
	)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < increments; j++ {
				_, err := s.IncrementWithExpiry(ctx, "shared", 1, time.Minute)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	value, err := s.Get(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, int64(goroutines*increments), value)
}

func TestMemoryStore_CleanupExpired(t *testing.T) {
	s := NewMemoryStoreWithCleanupInterval(10 * time.Millisecond)
	defer s.Close()

	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := s.IncrementWithExpiry(ctx, fmt.Sprintf("key-%d", i), 1, 5*time.Millisecond)
		require.NoError(t, err)
	}

	assert.Eventually(t, func() bool {
		return s.Size() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestMemoryStore_CloseIsIdempotent(t *testing.T) {
	s := NewMemoryStore()

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}
