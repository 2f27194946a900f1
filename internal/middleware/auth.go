package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gradehub/api-gateway/internal/auth"
	"github.com/gradehub/api-gateway/internal/observability"
	"github.com/gradehub/api-gateway/internal/response"
)

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	// Validator validates session tokens.
	Validator *auth.Validator

	// Logger for auth events.
	Logger *zap.Logger

	// Metrics records auth failures. Optional.
	Metrics *observability.Metrics
}

// Auth returns a middleware that enforces session token validation.
//
// Inbound trust headers are stripped unconditionally, then re-set from the
// verified claims, so the backend only ever sees identity the gateway
// vouched for. A missing token and a rejected token get different messages;
// the underlying validation error stays in the logs.
func Auth(config AuthConfig) gin.HandlerFunc {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		c.Request.Header.Del(UserIDHeader)
		c.Request.Header.Del(UserRoleHeader)

		claims, err := config.Validator.ValidateRequest(c.Request)
		if err != nil {
			if config.Metrics != nil {
				config.Metrics.RecordAuthFailure()
			}

			config.Logger.Warn("session token rejected",
				zap.String("requestID", GetRequestID(c)),
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)

			message := response.MsgInvalidToken
			if errors.Is(err, auth.ErrNoToken) {
				message = response.MsgAuthRequired
			}
			response.Abort(c, http.StatusUnauthorized, message)
			return
		}

		c.Set(ClaimsKey, claims)
		c.Request.Header.Set(UserIDHeader, claims.UserID)
		c.Request.Header.Set(UserRoleHeader, claims.Role)

		c.Next()
	}
}

// StripTrustHeaders returns a middleware that removes inbound trust headers
// on routes that do not require authentication, so unauthenticated paths can
// never smuggle identity to a backend.
func StripTrustHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Header.Del(UserIDHeader)
		c.Request.Header.Del(UserRoleHeader)

		c.Next()
	}
}

// GetClaims returns the validated session claims, if present.
func GetClaims(c *gin.Context) (*auth.SessionClaims, bool) {
	if v, ok := c.Get(ClaimsKey); ok {
		if claims, ok := v.(*auth.SessionClaims); ok {
			return claims, true
		}
	}
	return nil, false
}
