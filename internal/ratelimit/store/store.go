// Package store provides storage backends for the admission-control counters.
package store

import (
	"context"
	"time"
)

// Store is the shared counter store used by the rate limiter. The only
// operation admission control depends on is IncrementWithExpiry, which must
// behave atomically under concurrent access from multiple gateway instances.
type Store interface {
	// Get retrieves the counter value for the given key.
	Get(ctx context.Context, key string) (int64, error)

	// IncrementWithExpiry increments the counter by delta and returns the
	// post-increment value. The expiration is applied only when the key is
	// created by this call, so a window's TTL is set exactly once.
	IncrementWithExpiry(ctx context.Context, key string, delta int64, expiration time.Duration) (int64, error)

	// Delete removes the key from the store.
	Delete(ctx context.Context, key string) error

	// Close closes the store and releases resources.
	Close() error
}

// ErrKeyNotFound is returned when a key is not found in the store.
type ErrKeyNotFound struct {
	Key string
}

func (e *ErrKeyNotFound) Error() string {
	return "key not found: " + e.Key
}

// IsKeyNotFound returns true if the error is a key not found error.
func IsKeyNotFound(err error) bool {
	_, ok := err.(*ErrKeyNotFound)
	return ok
}
