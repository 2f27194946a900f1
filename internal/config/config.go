// Package config loads and validates gateway configuration from the
// environment. Required settings with no value cause startup to fail rather
// than letting the gateway run half-configured.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default values applied when the corresponding variable is unset.
const (
	DefaultPort              = 3000
	DefaultAccessTokenCookie = "accessToken"
	DefaultRateLimitRequests = 100
	DefaultRateLimitWindow   = 15 * time.Minute
	DefaultTrustedProxyHops  = 1
	DefaultUpstreamTimeout   = 30 * time.Second
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "json"
)

// DefaultAllowedOrigins is the browser origin allowlist used when
// ALLOWED_ORIGINS is unset.
var DefaultAllowedOrigins = []string{
	"http://localhost:3000",
	"http://localhost:3003",
}

// Config holds the complete gateway configuration.
type Config struct {
	// Port is the listen port for the gateway's public endpoint.
	Port int

	// Backend service base URLs. All three are required.
	IdentityServiceURL     string
	GradeServiceURL        string
	NotificationServiceURL string

	// RedisURL is the connection string for the shared rate limit store.
	RedisURL string

	// JWTSecret signs and verifies session tokens.
	JWTSecret string

	// AccessTokenCookie is the cookie carrying the session token.
	AccessTokenCookie string

	// Rate limiting.
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitFailOpen bool

	// AllowedOrigins is the CORS origin allowlist.
	AllowedOrigins []string

	// TrustedProxyHops is the number of proxy hops in front of the gateway
	// whose X-Forwarded-For entries are trusted.
	TrustedProxyHops int

	// UpstreamTimeout bounds each dispatch to a backend service.
	UpstreamTimeout time.Duration

	// Logging.
	LogLevel  string
	LogFormat string

	// MetricsPort exposes Prometheus metrics on a separate listener when
	// non-zero.
	MetricsPort int

	// OTLPEndpoint enables trace export when set.
	OTLPEndpoint string
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                   DefaultPort,
		IdentityServiceURL:     os.Getenv("IDENTITY_SERVICE_URL"),
		GradeServiceURL:        os.Getenv("GRADE_SERVICE_URL"),
		NotificationServiceURL: os.Getenv("NOTIFICATION_SERVICE_URL"),
		RedisURL:               os.Getenv("REDIS_URL"),
		JWTSecret:              os.Getenv("JWT_SECRET"),
		AccessTokenCookie:      DefaultAccessTokenCookie,
		RateLimitRequests:      DefaultRateLimitRequests,
		RateLimitWindow:        DefaultRateLimitWindow,
		RateLimitFailOpen:      true,
		AllowedOrigins:         DefaultAllowedOrigins,
		TrustedProxyHops:       DefaultTrustedProxyHops,
		UpstreamTimeout:        DefaultUpstreamTimeout,
		LogLevel:               DefaultLogLevel,
		LogFormat:              DefaultLogFormat,
		OTLPEndpoint:           os.Getenv("OTLP_ENDPOINT"),
	}

	var err error

	if cfg.Port, err = intEnv("PORT", cfg.Port); err != nil {
		return nil, err
	}
	if v := os.Getenv("ACCESS_TOKEN_COOKIE"); v != "" {
		cfg.AccessTokenCookie = v
	}
	if cfg.RateLimitRequests, err = intEnv("RATE_LIMIT_REQUESTS", cfg.RateLimitRequests); err != nil {
		return nil, err
	}
	if cfg.RateLimitWindow, err = durationEnv("RATE_LIMIT_WINDOW", cfg.RateLimitWindow); err != nil {
		return nil, err
	}
	if cfg.RateLimitFailOpen, err = boolEnv("RATE_LIMIT_FAIL_OPEN", cfg.RateLimitFailOpen); err != nil {
		return nil, err
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitAndTrim(v)
	}
	if cfg.TrustedProxyHops, err = intEnv("TRUSTED_PROXY_HOPS", cfg.TrustedProxyHops); err != nil {
		return nil, err
	}
	if cfg.UpstreamTimeout, err = durationEnv("UPSTREAM_TIMEOUT", cfg.UpstreamTimeout); err != nil {
		return nil, err
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if cfg.MetricsPort, err = intEnv("METRICS_PORT", cfg.MetricsPort); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for completeness and consistency.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	required := []struct {
		name  string
		value string
	}{
		{"IDENTITY_SERVICE_URL", c.IdentityServiceURL},
		{"GRADE_SERVICE_URL", c.GradeServiceURL},
		{"NOTIFICATION_SERVICE_URL", c.NotificationServiceURL},
		{"REDIS_URL", c.RedisURL},
		{"JWT_SECRET", c.JWTSecret},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s is required", r.name)
		}
	}

	for _, raw := range []string{c.IdentityServiceURL, c.GradeServiceURL, c.NotificationServiceURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid service URL: %q", raw)
		}
	}

	if c.RateLimitRequests < 1 {
		return fmt.Errorf("rate limit requests must be positive, got %d", c.RateLimitRequests)
	}
	if c.RateLimitWindow < time.Second {
		return fmt.Errorf("rate limit window must be at least 1s, got %s", c.RateLimitWindow)
	}
	if c.TrustedProxyHops < 0 {
		return fmt.Errorf("trusted proxy hops must be non-negative, got %d", c.TrustedProxyHops)
	}
	if c.UpstreamTimeout < time.Second {
		return fmt.Errorf("upstream timeout must be at least 1s, got %s", c.UpstreamTimeout)
	}
	if len(c.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin is required")
	}

	return nil
}

func intEnv(name string, fallback int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", name, v)
	}
	return n, nil
}

func boolEnv(name string, fallback bool) (bool, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q", name, v)
	}
	return b, nil
}

func durationEnv(name string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", name, v)
	}
	return d, nil
}

func splitAndTrim(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
