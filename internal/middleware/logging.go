package middleware

import (
	"bytes"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gradehub/api-gateway/internal/util"
)

// defaultMaxBodyLogBytes bounds how much of a JSON request body is logged.
const defaultMaxBodyLogBytes = 4096

// LoggingConfig holds configuration for the logging middleware.
type LoggingConfig struct {
	Logger    *zap.Logger
	SkipPaths []string

	// MaxBodyLogBytes bounds the logged portion of JSON request bodies.
	// Zero uses the default.
	MaxBodyLogBytes int
}

// Logging returns a middleware that logs each request on completion.
func Logging(logger *zap.Logger) gin.HandlerFunc {
	return LoggingWithConfig(LoggingConfig{Logger: logger})
}

// LoggingWithConfig returns a logging middleware with custom configuration.
func LoggingWithConfig(config LoggingConfig) gin.HandlerFunc {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.MaxBodyLogBytes <= 0 {
		config.MaxBodyLogBytes = defaultMaxBodyLogBytes
	}

	skipPaths := make(map[string]bool)
	for _, path := range config.SkipPaths {
		skipPaths[path] = true
	}

	return func(c *gin.Context) {
		if skipPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		logRequestBody(c, config.Logger, config.MaxBodyLogBytes)

		c.Next()

		status := c.Writer.Status()
		fields := buildLogFields(c, path, query, time.Since(start), status)
		logRequestByStatus(config.Logger, status, fields)
	}
}

// logRequestBody logs JSON request bodies at receipt, bounded to maxBytes.
// The consumed prefix is stitched back in front of the remaining body, so the
// bytes forwarded to the backend are exactly the bytes received. Non-JSON
// bodies (file uploads in particular) are never read.
func logRequestBody(c *gin.Context, logger *zap.Logger, maxBytes int) {
	contentType := c.Request.Header.Get("Content-Type")
	mediaType := contentType
	if i := strings.Index(mediaType, ";"); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}

	if mediaType != "application/json" || c.Request.Body == nil {
		logger.Debug("request received",
			zap.String("requestID", GetRequestID(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("requestBody", "not parsed (non-JSON or file upload)"),
		)
		return
	}

	prefix := make([]byte, maxBytes)
	n, err := io.ReadFull(c.Request.Body, prefix)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		logger.Warn("failed to read request body for logging", zap.Error(err))
		return
	}
	prefix = prefix[:n]

	c.Request.Body = struct {
		io.Reader
		io.Closer
	}{
		Reader: io.MultiReader(bytes.NewReader(prefix), c.Request.Body),
		Closer: c.Request.Body,
	}

	logger.Debug("request received",
		zap.String("requestID", GetRequestID(c)),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.ByteString("requestBody", prefix),
	)
}

// buildLogFields builds the log fields from request and response data.
func buildLogFields(c *gin.Context, path, query string, latency time.Duration, status int) []zap.Field {
	clientIP := c.ClientIP()
	if ip, ok := util.ClientIPFromContext(c.Request.Context()); ok {
		clientIP = ip
	}

	fields := []zap.Field{
		zap.String("requestID", GetRequestID(c)),
		zap.String("method", c.Request.Method),
		zap.String("path", path),
		zap.String("query", query),
		zap.Int("status", status),
		zap.Duration("latency", latency),
		zap.String("clientIP", clientIP),
		zap.String("userAgent", c.Request.UserAgent()),
		zap.Int("bodySize", c.Writer.Size()),
	}

	if route, ok := c.Get(RouteNameKey); ok {
		if name, ok := route.(string); ok {
			fields = append(fields, zap.String("route", name))
		}
	}

	if len(c.Errors) > 0 {
		fields = append(fields, zap.String("errors", c.Errors.String()))
	}

	return fields
}

// logRequestByStatus logs the request with a level matching the status code.
func logRequestByStatus(logger *zap.Logger, status int, fields []zap.Field) {
	switch {
	case status >= 500:
		logger.Error("request completed", fields...)
	case status >= 400:
		logger.Warn("request completed", fields...)
	default:
		logger.Info("request completed", fields...)
	}
}
