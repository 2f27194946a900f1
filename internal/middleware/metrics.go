package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gradehub/api-gateway/internal/observability"
)

// Metrics returns a middleware that records request counts and latency.
// Unmatched paths are labeled "unmatched" to keep metric cardinality bounded.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := GetRouteName(c)
		if route == "" {
			route = "unmatched"
		}

		m.RecordRequest(route, c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}
