package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gradehub/api-gateway/internal/observability"
	"github.com/gradehub/api-gateway/internal/response"
	"github.com/gradehub/api-gateway/internal/util"
)

// CORSConfig holds configuration for the CORS middleware.
type CORSConfig struct {
	// AllowedOrigins is the exact-match origin allowlist.
	AllowedOrigins []string

	// AllowedMethods and AllowedHeaders are advertised on preflight.
	AllowedMethods []string
	AllowedHeaders []string

	// Logger for denial events.
	Logger *zap.Logger

	// Metrics records denials. Optional.
	Metrics *observability.Metrics
}

// DefaultCORSConfig returns a CORSConfig with the methods and headers the
// gateway's browser clients use.
func DefaultCORSConfig(origins []string) CORSConfig {
	return CORSConfig{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}
}

// CORS returns a middleware that enforces the browser origin allowlist.
//
// Requests without an Origin header (same-origin, curl, service-to-service)
// pass through untouched. Allowed origins are echoed back with credentials
// enabled, since the session token travels in a cookie. Disallowed origins
// are rejected outright with a 403 rather than left to the browser's CORS
// failure, and every denial is logged and counted.
func CORS(config CORSConfig) gin.HandlerFunc {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	allowed := make(map[string]bool, len(config.AllowedOrigins))
	for _, origin := range config.AllowedOrigins {
		allowed[origin] = true
	}

	methods := strings.Join(config.AllowedMethods, ", ")
	headers := strings.Join(config.AllowedHeaders, ", ")

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			c.Next()
			return
		}

		if !allowed[origin] {
			clientIP, _ := util.ClientIPFromContext(c.Request.Context())

			config.Logger.Warn("origin denied",
				zap.String("requestID", GetRequestID(c)),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.String("origin", origin),
				zap.String("clientIP", clientIP),
			)

			if config.Metrics != nil {
				config.Metrics.RecordCORSDenial()
			}

			response.Abort(c, http.StatusForbidden, response.MsgForbiddenOrigin)
			return
		}

		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Add("Vary", "Origin")

		if c.Request.Method == http.MethodOptions {
			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", headers)
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
