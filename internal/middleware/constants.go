// Package middleware provides the gateway's HTTP request pipeline stages.
package middleware

// Header names used across the pipeline.
const (
	// RequestIDHeader carries the request correlation ID.
	RequestIDHeader = "X-Request-ID"

	// UserIDHeader and UserRoleHeader are the trust headers asserted to
	// backend services after token validation. Inbound values are always
	// stripped so clients cannot forge identity.
	UserIDHeader   = "X-User-ID"
	UserRoleHeader = "X-User-Role"

	// ForwardedForHeader is the standard client IP chain header.
	ForwardedForHeader = "X-Forwarded-For"

	// Rate limit response headers.
	RateLimitLimitHeader     = "X-RateLimit-Limit"
	RateLimitRemainingHeader = "X-RateLimit-Remaining"
	RateLimitResetHeader     = "X-RateLimit-Reset"
	RetryAfterHeader         = "Retry-After"
)

// Gin context keys.
const (
	// RequestIDKey is the context key for the request correlation ID.
	RequestIDKey = "requestID"

	// ClaimsKey is the context key for validated session claims.
	ClaimsKey = "sessionClaims"

	// RouteNameKey is the context key for the matched route name.
	RouteNameKey = "routeName"
)
