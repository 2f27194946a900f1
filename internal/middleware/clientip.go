package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gradehub/api-gateway/internal/util"
)

// ClientIP returns a middleware that resolves the real client IP and places
// it on the request context for the rate limiter and the access log.
//
// trustedHops is the number of reverse proxies sitting in front of the
// gateway. Each trusted proxy appends the address it saw to X-Forwarded-For,
// so the client IP is the entry trustedHops positions from the end of the
// chain. Entries further left are client-controlled and never trusted. With
// zero trusted hops the header is ignored entirely and the connection's
// remote address is used.
func ClientIP(trustedHops int) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := resolveClientIP(c.Request.Header.Get(ForwardedForHeader), c.Request.RemoteAddr, trustedHops)

		c.Request = c.Request.WithContext(util.WithClientIP(c.Request.Context(), ip))

		c.Next()
	}
}

// resolveClientIP walks the X-Forwarded-For chain back across the trusted
// proxy hops. It falls back to the remote address when the header is absent,
// malformed, or shorter than the trusted hop count.
func resolveClientIP(forwardedFor, remoteAddr string, trustedHops int) string {
	remote := remoteAddr
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		remote = host
	}

	if trustedHops <= 0 || forwardedFor == "" {
		return remote
	}

	parts := strings.Split(forwardedFor, ",")
	if len(parts) < trustedHops {
		return remote
	}

	candidate := strings.TrimSpace(parts[len(parts)-trustedHops])
	if net.ParseIP(candidate) == nil {
		return remote
	}

	return candidate
}
