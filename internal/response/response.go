// Package response renders the gateway's client-facing response envelope.
//
// Every response the gateway originates (rather than relays from a backend)
// uses the same JSON shape, so clients can always branch on `success` and
// show `message`.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope is the uniform body for gateway-originated responses.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Client-facing messages. Deliberately generic: internal failure detail goes
// to the logs, never to the client.
const (
	MsgAuthRequired    = "Authentication required! Please login to continue."
	MsgInvalidToken    = "Invalid or expired token."
	MsgForbiddenOrigin = "Origin not allowed"
	MsgTooManyRequests = "Too many requests"
	MsgBadGateway      = "Service temporarily unavailable"
	MsgGatewayTimeout  = "Service timed out"
	MsgInternalError   = "Internal server error"
	MsgNotFound        = "Not found"
)

// OK writes a success envelope.
func OK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

// Abort writes a failure envelope and stops the handler chain.
func Abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Envelope{Success: false, Message: message})
}

// WriteError writes a failure envelope directly to a ResponseWriter. It is
// used where no gin context is available, such as the reverse proxy's error
// handler.
func WriteError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{Success: false, Message: message})
}
