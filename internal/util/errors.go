// Package util provides shared helpers for the gateway.
//
// # Error Conventions
//
// Sentinel errors (errors.New) name the gateway's fault kinds and are what
// callers check with errors.Is(). Structured error types carry additional
// context (e.g. UpstreamError) and implement Error(), Unwrap() when wrapping,
// and Is() for errors.Is() compatibility. fmt.Errorf with %w is used for
// ad-hoc wrapping.
package util

import (
	"errors"
	"fmt"
	"net/http"
)

// Fault kinds surfaced by pipeline stages. The error boundary maps each kind
// to a client-visible status code; everything else becomes a 500.
var (
	ErrRateLimited         = errors.New("rate limit exceeded")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrForbiddenOrigin     = errors.New("origin not allowed")
	ErrUpstreamUnreachable = errors.New("upstream unreachable")
	ErrUpstreamTimeout     = errors.New("upstream timeout")
)

// UpstreamError represents a failed dispatch to a backend service.
type UpstreamError struct {
	Service string
	Timeout bool
	Cause   error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("upstream %s timed out: %v", e.Service, e.Cause)
	}
	return fmt.Sprintf("upstream %s unreachable: %v", e.Service, e.Cause)
}

// Unwrap returns the underlying error.
func (e *UpstreamError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *UpstreamError) Is(target error) bool {
	if e.Timeout && target == ErrUpstreamTimeout {
		return true
	}
	if !e.Timeout && target == ErrUpstreamUnreachable {
		return true
	}
	_, ok := target.(*UpstreamError)
	return ok || errors.Is(e.Cause, target)
}

// NewUpstreamError creates a new UpstreamError.
func NewUpstreamError(service string, timeout bool, cause error) *UpstreamError {
	return &UpstreamError{Service: service, Timeout: timeout, Cause: cause}
}

// StatusForError maps a fault to the client-visible HTTP status code.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbiddenOrigin):
		return http.StatusForbidden
	case errors.Is(err, ErrUpstreamTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrUpstreamUnreachable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
