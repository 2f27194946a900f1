// Package gateway assembles the request pipeline and runs the HTTP server.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gradehub/api-gateway/internal/auth"
	"github.com/gradehub/api-gateway/internal/config"
	"github.com/gradehub/api-gateway/internal/middleware"
	"github.com/gradehub/api-gateway/internal/observability"
	"github.com/gradehub/api-gateway/internal/proxy"
	"github.com/gradehub/api-gateway/internal/ratelimit"
	"github.com/gradehub/api-gateway/internal/response"
	"github.com/gradehub/api-gateway/internal/router"
)

// Options holds the collaborators the gateway is assembled from.
type Options struct {
	Config  *config.Config
	Logger  *zap.Logger
	Limiter ratelimit.Limiter
	Metrics *observability.Metrics
	Tracer  *observability.Tracer

	// Transport overrides the upstream transport for all routes. Used in
	// tests; nil means http.DefaultTransport.
	Transport http.RoundTripper
}

// Gateway is the assembled API gateway.
type Gateway struct {
	config *config.Config
	logger *zap.Logger
	engine *gin.Engine
	server *http.Server
}

// New builds the gateway: the route table, the middleware pipeline, and one
// dispatcher per backend service.
func New(opts Options) (*Gateway, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	table, err := buildRouteTable(cfg)
	if err != nil {
		return nil, err
	}

	validator, err := auth.NewValidator([]byte(cfg.JWTSecret), cfg.AccessTokenCookie)
	if err != nil {
		return nil, err
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(
		middleware.RequestID(),
		middleware.ClientIP(cfg.TrustedProxyHops),
	)
	if opts.Tracer != nil {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			TracerProvider: opts.Tracer.Provider(),
			ServiceName:    "gateway",
			SkipPaths:      []string{"/ping"},
		}))
	}
	engine.Use(
		middleware.LoggingWithConfig(middleware.LoggingConfig{
			Logger:    logger,
			SkipPaths: []string{"/ping"},
		}),
		middleware.Recovery(logger),
	)
	if opts.Metrics != nil {
		engine.Use(middleware.Metrics(opts.Metrics))
	}
	// CORS runs after the observability stages so a denied origin still
	// gets a request ID, a completion log, and a request metric, but
	// before any route group so no denied request reaches admission.
	engine.Use(middleware.CORS(corsConfig(cfg, logger, opts.Metrics)))

	rateLimit := middleware.RateLimit(middleware.RateLimitConfig{
		Limiter:  opts.Limiter,
		KeyFunc:  ratelimit.ClientIPKey,
		FailOpen: cfg.RateLimitFailOpen,
		Logger:   logger,
		Metrics:  opts.Metrics,
	})

	for _, route := range table.Routes() {
		dispatcher := proxy.NewDispatcher(route, proxy.Config{
			Timeout:   cfg.UpstreamTimeout,
			Transport: opts.Transport,
			Logger:    logger,
			Metrics:   opts.Metrics,
		})

		handlers := []gin.HandlerFunc{middleware.RouteTag(route.Name), rateLimit}
		if route.RequireAuth {
			handlers = append(handlers, middleware.Auth(middleware.AuthConfig{
				Validator: validator,
				Logger:    logger,
				Metrics:   opts.Metrics,
			}))
		} else {
			handlers = append(handlers, middleware.StripTrustHeaders())
		}
		handlers = append(handlers, dispatcher.Handler())

		group := engine.Group(route.Prefix)
		group.Any("", handlers...)
		group.Any("/*path", handlers...)
	}

	engine.GET("/ping", func(c *gin.Context) {
		response.OK(c, "PONG", nil)
	})

	engine.NoRoute(func(c *gin.Context) {
		response.Abort(c, http.StatusNotFound, response.MsgNotFound)
	})

	return &Gateway{
		config: cfg,
		logger: logger,
		engine: engine,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// corsConfig builds the origin allowlist middleware configuration.
func corsConfig(cfg *config.Config, logger *zap.Logger, metrics *observability.Metrics) middleware.CORSConfig {
	c := middleware.DefaultCORSConfig(cfg.AllowedOrigins)
	c.Logger = logger
	c.Metrics = metrics
	return c
}

// buildRouteTable maps the configured backend services to path prefixes.
func buildRouteTable(cfg *config.Config) (*router.Table, error) {
	parse := func(name, raw string) (*url.URL, error) {
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("route %s: invalid target %q: %w", name, raw, err)
		}
		return u, nil
	}

	identity, err := parse("identity", cfg.IdentityServiceURL)
	if err != nil {
		return nil, err
	}
	grade, err := parse("grade", cfg.GradeServiceURL)
	if err != nil {
		return nil, err
	}
	notification, err := parse("notification", cfg.NotificationServiceURL)
	if err != nil {
		return nil, err
	}

	return router.NewTable([]*router.Route{
		{Name: "identity", Prefix: "/v1/auth", Target: identity, BodyMode: router.BodyModeJSON, RequireAuth: true},
		{Name: "grade", Prefix: "/v1/grade", Target: grade, BodyMode: router.BodyModeMultipart, RequireAuth: true},
		{Name: "notification", Prefix: "/v1/notification", Target: notification, BodyMode: router.BodyModeJSON, RequireAuth: true},
	})
}

// Handler returns the gateway's HTTP handler.
func (g *Gateway) Handler() http.Handler {
	return g.engine
}

// Start runs the HTTP server until it fails or Shutdown is called.
func (g *Gateway) Start() error {
	g.logger.Info("gateway listening",
		zap.String("address", g.server.Addr),
		zap.Strings("allowedOrigins", g.config.AllowedOrigins),
	)

	if err := g.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("gateway server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("gateway shutting down")
	return g.server.Shutdown(ctx)
}
