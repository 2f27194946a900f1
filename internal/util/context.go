package util

import "context"

type contextKey string

const (
	clientIPKey  contextKey = "client_ip"
	routeNameKey contextKey = "route_name"
	requestIDKey contextKey = "request_id"
)

// WithClientIP returns a context carrying the resolved client IP.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// ClientIPFromContext returns the resolved client IP, if present.
func ClientIPFromContext(ctx context.Context) (string, bool) {
	ip, ok := ctx.Value(clientIPKey).(string)
	return ip, ok
}

// WithRouteName returns a context carrying the matched route name.
func WithRouteName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, routeNameKey, name)
}

// RouteNameFromContext returns the matched route name, if present.
func RouteNameFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(routeNameKey).(string)
	return name, ok
}

// WithRequestID returns a context carrying the request correlation ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request correlation ID, if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok
}
