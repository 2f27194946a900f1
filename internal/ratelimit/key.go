package ratelimit

import (
	"net"
	"net/http"

	"github.com/gradehub/api-gateway/internal/util"
)

// KeyFunc extracts the rate limit identity from a request.
type KeyFunc func(r *http.Request) string

// ClientIPKey keys the limiter by the resolved client IP. It prefers the IP
// placed on the context by the client IP middleware (which has already walked
// X-Forwarded-For across the trusted proxy hops) and falls back to the
// connection's remote address.
func ClientIPKey(r *http.Request) string {
	if ip, ok := util.ClientIPFromContext(r.Context()); ok && ip != "" {
		return "ip:" + ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "ip:" + r.RemoteAddr
	}
	return "ip:" + host
}
