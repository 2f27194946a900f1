// Package auth validates session tokens presented by gateway clients.
//
// Tokens are HS256-signed JWTs carried in a cookie. The gateway never issues
// tokens itself; the identity service does. Validation here is the trust
// boundary: only after it succeeds does the gateway assert the caller's
// identity to backend services via trust headers.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Errors returned by token validation.
var (
	ErrNoToken      = errors.New("no session token")
	ErrInvalidToken = errors.New("invalid session token")
)

// SessionClaims holds the identity asserted by a validated token.
type SessionClaims struct {
	UserID   string
	Username string
	Email    string
	Role     string
	Expiry   time.Time
}

// Validator validates session tokens extracted from requests.
type Validator struct {
	secret     []byte
	cookieName string
	clockSkew  time.Duration
}

// ValidatorOption is a functional option for the Validator.
type ValidatorOption func(*Validator)

// WithClockSkew sets the allowed clock skew for expiry checks.
func WithClockSkew(skew time.Duration) ValidatorOption {
	return func(v *Validator) {
		v.clockSkew = skew
	}
}

// NewValidator creates a new token validator.
func NewValidator(secret []byte, cookieName string, opts ...ValidatorOption) (*Validator, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("token secret is required")
	}
	if cookieName == "" {
		return nil, fmt.Errorf("token cookie name is required")
	}

	v := &Validator{
		secret:     secret,
		cookieName: cookieName,
	}

	for _, opt := range opts {
		opt(v)
	}

	return v, nil
}

// ExtractToken returns the raw session token from the request cookie.
// It returns ErrNoToken when the cookie is absent or empty.
func (v *Validator) ExtractToken(r *http.Request) (string, error) {
	cookie, err := r.Cookie(v.cookieName)
	if err != nil || cookie.Value == "" {
		return "", ErrNoToken
	}
	return cookie.Value, nil
}

// Validate verifies the token's signature and expiry and returns its claims.
// All failures collapse into ErrInvalidToken; the underlying cause is wrapped
// for logging but never reaches the client.
func (v *Validator) Validate(raw string) (*SessionClaims, error) {
	token, err := jwt.Parse([]byte(raw),
		jwt.WithKey(jwa.HS256, v.secret),
		jwt.WithValidate(true),
		jwt.WithAcceptableSkew(v.clockSkew),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims := &SessionClaims{
		Expiry: token.Expiration(),
	}

	if userID, ok := token.Get("userId"); ok {
		claims.UserID, _ = userID.(string)
	}
	if username, ok := token.Get("username"); ok {
		claims.Username, _ = username.(string)
	}
	if email, ok := token.Get("email"); ok {
		claims.Email, _ = email.(string)
	}
	if role, ok := token.Get("role"); ok {
		claims.Role, _ = role.(string)
	}

	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing userId claim", ErrInvalidToken)
	}

	return claims, nil
}

// ValidateRequest extracts and validates the session token in one step.
func (v *Validator) ValidateRequest(r *http.Request) (*SessionClaims, error) {
	raw, err := v.ExtractToken(r)
	if err != nil {
		return nil, err
	}
	return v.Validate(raw)
}
