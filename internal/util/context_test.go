package util

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()

	_, ok := ClientIPFromContext(ctx)
	assert.False(t, ok)

	ctx = WithClientIP(ctx, "203.0.113.7")
	ctx = WithRouteName(ctx, "grade")
	ctx = WithRequestID(ctx, "req-1")

	ip, ok := ClientIPFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "203.0.113.7", ip)

	route, ok := RouteNameFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "grade", route)

	id, ok := RequestIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "req-1", id)
}
