package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the gateway's Prometheus metrics.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	rateLimitDenials *prometheus.CounterVec
	upstreamErrors   *prometheus.CounterVec
	authFailures     prometheus.Counter
	corsDenials      prometheus.Counter
}

// NewMetrics creates metrics registered on a dedicated registry.
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests handled by the gateway",
			},
			[]string{"route", "method", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"route", "method"},
		),
		rateLimitDenials: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ratelimit_denials_total",
				Help:      "Total number of requests denied by admission control",
			},
			[]string{"route"},
		),
		upstreamErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_errors_total",
				Help:      "Total number of upstream dispatch failures",
			},
			[]string{"route", "kind"},
		),
		authFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_failures_total",
				Help:      "Total number of rejected session tokens",
			},
		),
		corsDenials: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cors_denials_total",
				Help:      "Total number of requests rejected by the origin allowlist",
			},
		),
	}
}

// RecordRequest records a completed request.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordRateLimitDenial records an admission-control denial.
func (m *Metrics) RecordRateLimitDenial(route string) {
	m.rateLimitDenials.WithLabelValues(route).Inc()
}

// RecordUpstreamError records an upstream dispatch failure by kind
// (unreachable, timeout).
func (m *Metrics) RecordUpstreamError(route, kind string) {
	m.upstreamErrors.WithLabelValues(route, kind).Inc()
}

// RecordAuthFailure records a rejected session token.
func (m *Metrics) RecordAuthFailure() {
	m.authFailures.Inc()
}

// RecordCORSDenial records a request rejected by the origin allowlist.
func (m *Metrics) RecordCORSDenial() {
	m.corsDenials.Inc()
}

// Handler returns an HTTP handler exposing the metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
