package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gradehub/api-gateway/internal/observability"
	"github.com/gradehub/api-gateway/internal/ratelimit"
	"github.com/gradehub/api-gateway/internal/response"
)

// RateLimitConfig holds configuration for the rate limit middleware.
type RateLimitConfig struct {
	// Limiter is the rate limiter to use.
	Limiter ratelimit.Limiter

	// KeyFunc extracts the rate limit key from the request.
	KeyFunc ratelimit.KeyFunc

	// FailOpen controls behavior when the limiter itself fails. Open lets
	// traffic through on a store outage; closed rejects it. Open trades
	// limit enforcement for availability and is the default deployment
	// posture.
	FailOpen bool

	// Logger for rate limit events.
	Logger *zap.Logger

	// Metrics records denials. Optional.
	Metrics *observability.Metrics
}

// RateLimit returns a middleware that applies admission control per client.
// Every response carries the X-RateLimit-* headers; denials get a 429
// envelope with Retry-After.
func RateLimit(config RateLimitConfig) gin.HandlerFunc {
	if config.KeyFunc == nil {
		config.KeyFunc = ratelimit.ClientIPKey
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		key := config.KeyFunc(c.Request)

		result, err := config.Limiter.Allow(c.Request.Context(), key)
		if err != nil {
			config.Logger.Error("rate limit check failed",
				zap.String("requestID", GetRequestID(c)),
				zap.String("key", key),
				zap.Bool("failOpen", config.FailOpen),
				zap.Error(err),
			)

			if config.FailOpen {
				c.Next()
				return
			}

			// Fail-closed denies the same way an exhausted window does, so
			// clients see one consistent throttling signal.
			response.Abort(c, http.StatusTooManyRequests, response.MsgTooManyRequests)
			return
		}

		h := c.Writer.Header()
		h.Set(RateLimitLimitHeader, strconv.Itoa(result.Limit))
		h.Set(RateLimitRemainingHeader, strconv.Itoa(result.Remaining))
		h.Set(RateLimitResetHeader, strconv.Itoa(int(math.Ceil(result.ResetAfter.Seconds()))))

		if !result.Allowed {
			if config.Metrics != nil {
				config.Metrics.RecordRateLimitDenial(GetRouteName(c))
			}

			config.Logger.Warn("rate limit exceeded",
				zap.String("requestID", GetRequestID(c)),
				zap.String("key", key),
				zap.Duration("retryAfter", result.RetryAfter),
			)

			h.Set(RetryAfterHeader, strconv.Itoa(int(math.Ceil(result.RetryAfter.Seconds()))))
			response.Abort(c, http.StatusTooManyRequests, response.MsgTooManyRequests)
			return
		}

		c.Next()
	}
}
