// Package main is the entry point for the API gateway.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/gradehub/api-gateway/internal/config"
	"github.com/gradehub/api-gateway/internal/gateway"
	"github.com/gradehub/api-gateway/internal/observability"
	"github.com/gradehub/api-gateway/internal/ratelimit"
	"github.com/gradehub/api-gateway/internal/ratelimit/store"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

const shutdownTimeout = 30 * time.Second

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		printVersion()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)
	defer func() { _ = logger.Sync() }()

	logger.Info("starting api gateway",
		zap.String("version", version),
		zap.Int("port", cfg.Port),
	)

	run(cfg, logger)
}

// printVersion prints version information and exits.
func printVersion() {
	fmt.Printf("api-gateway version %s\n", version)
	fmt.Printf("  Build time: %s\n", buildTime)
	fmt.Printf("  Git commit: %s\n", gitCommit)
}

// initLogger initializes the logger.
func initLogger(cfg *config.Config) *zap.Logger {
	logger, err := observability.NewLogger(observability.LogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

func run(cfg *config.Config, logger *zap.Logger) {
	// The rate limit store is a hard dependency: refusing to start beats
	// running with no admission control at all.
	redisCfg := store.DefaultRedisConfig()
	redisCfg.URL = cfg.RedisURL
	redisCfg.Logger = logger

	limitStore, err := store.NewRedisStore(redisCfg)
	if err != nil {
		logger.Fatal("failed to connect to rate limit store", zap.Error(err))
	}
	defer func() { _ = limitStore.Close() }()

	limiter := ratelimit.NewFixedWindowLimiter(limitStore, cfg.RateLimitRequests, cfg.RateLimitWindow, logger)

	metrics := observability.NewMetrics("gateway")

	tracer, err := observability.NewTracer(observability.TracerConfig{
		ServiceName:  "api-gateway",
		OTLPEndpoint: cfg.OTLPEndpoint,
		SamplingRate: 1.0,
		Enabled:      cfg.OTLPEndpoint != "",
	})
	if err != nil {
		logger.Fatal("failed to initialize tracing", zap.Error(err))
	}

	gw, err := gateway.New(gateway.Options{
		Config:  cfg,
		Logger:  logger,
		Limiter: limiter,
		Metrics: metrics,
		Tracer:  tracer,
	})
	if err != nil {
		logger.Fatal("failed to assemble gateway", zap.Error(err))
	}

	var metricsServer *http.Server
	if cfg.MetricsPort > 0 {
		metricsServer = startMetricsServer(cfg.MetricsPort, metrics, logger)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- gw.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Error("gateway server failed", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := gw.Shutdown(ctx); err != nil {
		logger.Error("gateway shutdown failed", zap.Error(err))
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			logger.Error("metrics server shutdown failed", zap.Error(err))
		}
	}
	if err := tracer.Shutdown(ctx); err != nil {
		logger.Error("tracer shutdown failed", zap.Error(err))
	}

	logger.Info("gateway stopped")
}

// startMetricsServer exposes Prometheus metrics on a dedicated listener.
func startMetricsServer(port int, metrics *observability.Metrics, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("metrics server listening", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	return server
}
