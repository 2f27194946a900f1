package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/gradehub/api-gateway/internal/util"
)

// RouteTag returns a middleware that labels the request with its matched
// route name, for later stages, logs, and metrics.
func RouteTag(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(RouteNameKey, name)
		c.Request = c.Request.WithContext(util.WithRouteName(c.Request.Context(), name))

		c.Next()
	}
}

// GetRouteName returns the request's matched route name, if labeled.
func GetRouteName(c *gin.Context) string {
	if v, ok := c.Get(RouteNameKey); ok {
		if name, ok := v.(string); ok {
			return name
		}
	}
	return ""
}
