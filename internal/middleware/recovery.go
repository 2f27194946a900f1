package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gradehub/api-gateway/internal/response"
)

// Recovery returns a middleware that recovers from panics in later stages.
// The panic is logged with a stack trace and the client receives the generic
// 500 envelope; panic detail never leaks to the response.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered",
					zap.Any("error", err),
					zap.String("requestID", GetRequestID(c)),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.ByteString("stack", debug.Stack()),
				)

				if !c.Writer.Written() {
					response.Abort(c, http.StatusInternalServerError, response.MsgInternalError)
				} else {
					c.Abort()
				}
			}
		}()

		c.Next()
	}
}
