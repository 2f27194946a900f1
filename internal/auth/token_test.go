package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret-key-for-signing")

func signTestToken(t *testing.T, secret []byte, claims map[string]interface{}, expiry time.Time) string {
	t.Helper()

	builder := jwt.NewBuilder().Expiration(expiry).IssuedAt(time.Now())
	for name, value := range claims {
		builder = builder.Claim(name, value)
	}

	token, err := builder.Build()
	require.NoError(t, err)

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, secret))
	require.NoError(t, err)

	return string(signed)
}

func TestNewValidator(t *testing.T) {
	tests := []struct {
		name       string
		secret     []byte
		cookieName string
		wantErr    bool
	}{
		{
			name:       "valid configuration",
			secret:     testSecret,
			cookieName: "accessToken",
		},
		{
			name:       "missing secret",
			secret:     nil,
			cookieName: "accessToken",
			wantErr:    true,
		},
		{
			name:    "missing cookie name",
			secret:  testSecret,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NewValidator(tt.secret, tt.cookieName)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, v)
		})
	}
}

func TestValidator_ExtractToken(t *testing.T) {
	v, err := NewValidator(testSecret, "accessToken")
	require.NoError(t, err)

	t.Run("cookie present", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/v1/grade", nil)
		r.AddCookie(&http.Cookie{Name: "accessToken", Value: "raw-token"})

		raw, err := v.ExtractToken(r)
		require.NoError(t, err)
		assert.Equal(t, "raw-token", raw)
	})

	t.Run("cookie absent", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/v1/grade", nil)

		_, err := v.ExtractToken(r)
		assert.ErrorIs(t, err, ErrNoToken)
	})

	t.Run("cookie empty", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/v1/grade", nil)
		r.AddCookie(&http.Cookie{Name: "accessToken", Value: ""})

		_, err := v.ExtractToken(r)
		assert.ErrorIs(t, err, ErrNoToken)
	})

	t.Run("other cookies ignored", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/v1/grade", nil)
		r.AddCookie(&http.Cookie{Name: "refreshToken", Value: "other"})

		_, err := v.ExtractToken(r)
		assert.ErrorIs(t, err, ErrNoToken)
	})
}

func TestValidator_Validate(t *testing.T) {
	v, err := NewValidator(testSecret, "accessToken")
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		expiry := time.Now().Add(time.Hour)
		raw := signTestToken(t, testSecret, map[string]interface{}{
			"userId":   "user-42",
			"username": "alice",
			"email":    "alice@example.com",
			"role":     "teacher",
		}, expiry)

		claims, err := v.Validate(raw)
		require.NoError(t, err)
		assert.Equal(t, "user-42", claims.UserID)
		assert.Equal(t, "alice", claims.Username)
		assert.Equal(t, "alice@example.com", claims.Email)
		assert.Equal(t, "teacher", claims.Role)
		assert.WithinDuration(t, expiry, claims.Expiry, time.Second)
	})

	t.Run("expired token", func(t *testing.T) {
		raw := signTestToken(t, testSecret, map[string]interface{}{
			"userId": "user-42",
		}, time.Now().Add(-time.Hour))

		_, err := v.Validate(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		raw := signTestToken(t, []byte("some-other-secret"), map[string]interface{}{
			"userId": "user-42",
		}, time.Now().Add(time.Hour))

		_, err := v.Validate(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("malformed token", func(t *testing.T) {
		_, err := v.Validate("not.a.jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing userId claim", func(t *testing.T) {
		raw := signTestToken(t, testSecret, map[string]interface{}{
			"role": "student",
		}, time.Now().Add(time.Hour))

		_, err := v.Validate(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("clock skew tolerated", func(t *testing.T) {
		skewed, err := NewValidator(testSecret, "accessToken", WithClockSkew(time.Minute))
		require.NoError(t, err)

		raw := signTestToken(t, testSecret, map[string]interface{}{
			"userId": "user-42",
		}, time.Now().Add(-30*time.Second))

		_, err = skewed.Validate(raw)
		assert.NoError(t, err)
	})
}

func TestValidator_ValidateRequest(t *testing.T) {
	v, err := NewValidator(testSecret, "accessToken")
	require.NoError(t, err)

	raw := signTestToken(t, testSecret, map[string]interface{}{
		"userId": "user-42",
		"role":   "student",
	}, time.Now().Add(time.Hour))

	r := httptest.NewRequest("GET", "/v1/grade", nil)
	r.AddCookie(&http.Cookie{Name: "accessToken", Value: raw})

	claims, err := v.ValidateRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.UserID)
	assert.Equal(t, "student", claims.Role)
}
