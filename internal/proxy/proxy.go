// Package proxy dispatches gateway requests to backend services.
package proxy

import (
	"context"
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gradehub/api-gateway/internal/observability"
	"github.com/gradehub/api-gateway/internal/response"
	"github.com/gradehub/api-gateway/internal/router"
	"github.com/gradehub/api-gateway/internal/util"
)

// Config holds configuration for a Dispatcher.
type Config struct {
	// Timeout bounds each upstream call. Zero disables the bound.
	Timeout time.Duration

	// Transport overrides the upstream transport. Nil uses
	// http.DefaultTransport.
	Transport http.RoundTripper

	Logger  *zap.Logger
	Metrics *observability.Metrics
}

// Dispatcher relays requests for one route to its backend service. Each
// route gets its own reverse proxy, so connection pooling happens per
// backend.
type Dispatcher struct {
	route   *router.Route
	proxy   *httputil.ReverseProxy
	timeout time.Duration
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewDispatcher creates a dispatcher for the given route.
func NewDispatcher(route *router.Route, cfg Config) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	d := &Dispatcher{
		route:   route,
		timeout: cfg.Timeout,
		logger:  logger,
		metrics: cfg.Metrics,
	}

	d.proxy = &httputil.ReverseProxy{
		Director:     d.direct,
		ErrorHandler: d.handleError,
		Transport:    cfg.Transport,
		// Flush as bytes arrive so streamed and chunked backend responses
		// are not held back by buffering.
		FlushInterval: -1,
	}

	return d
}

// Handler returns the gin handler that performs the dispatch.
func (d *Dispatcher) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		r := c.Request

		if d.timeout > 0 {
			ctx, cancel := context.WithTimeout(r.Context(), d.timeout)
			defer cancel()
			r = r.WithContext(ctx)
		}

		d.proxy.ServeHTTP(c.Writer, r)
	}
}

// direct rewrites the request for the backend. The original path and query
// are forwarded unchanged; the backend mounts its handlers under the same
// /v1 prefix the client used.
func (d *Dispatcher) direct(r *http.Request) {
	target := d.route.Target

	r.URL.Scheme = target.Scheme
	r.URL.Host = target.Host
	r.URL.Path = singleJoin(target.Path, r.URL.Path)
	if target.RawQuery != "" {
		if r.URL.RawQuery == "" {
			r.URL.RawQuery = target.RawQuery
		} else {
			r.URL.RawQuery = target.RawQuery + "&" + r.URL.RawQuery
		}
	}
	// Forwarding metadata reflects what the gateway saw, not whatever the
	// client put in these headers. X-Forwarded-For is appended by
	// ReverseProxy itself.
	r.Header.Set("X-Forwarded-Host", r.Host)
	proto := "http"
	if r.TLS != nil {
		proto = "https"
	}
	r.Header.Set("X-Forwarded-Proto", proto)

	r.Host = target.Host
}

// singleJoin joins two URL paths with exactly one slash between them.
func singleJoin(a, b string) string {
	if a == "" || a == "/" {
		return b
	}
	u := url.URL{Path: a}
	joined := u.JoinPath(b)
	return joined.Path
}

// handleError is the error boundary for upstream dispatch. Timeouts map to
// 504, everything else to 502; a client that already went away gets nothing.
func (d *Dispatcher) handleError(w http.ResponseWriter, r *http.Request, err error) {
	requestID, _ := util.RequestIDFromContext(r.Context())

	// The client disconnected; there is no one left to answer.
	if errors.Is(err, context.Canceled) {
		d.logger.Debug("client canceled upstream dispatch",
			zap.String("requestID", requestID),
			zap.String("route", d.route.Name),
		)
		return
	}

	timeout := errors.Is(err, context.DeadlineExceeded)
	upstreamErr := util.NewUpstreamError(d.route.Name, timeout, err)

	d.logger.Error("upstream dispatch failed",
		zap.String("requestID", requestID),
		zap.String("route", d.route.Name),
		zap.String("target", d.route.Target.String()),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(upstreamErr),
	)

	kind := "unreachable"
	message := response.MsgBadGateway
	if timeout {
		kind = "timeout"
		message = response.MsgGatewayTimeout
	}

	if d.metrics != nil {
		d.metrics.RecordUpstreamError(d.route.Name, kind)
	}

	response.WriteError(w, util.StatusForError(upstreamErr), message)
}
