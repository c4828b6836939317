// Package metrics exposes Prometheus collectors for HTTP traffic and relay
// outcomes.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Relay outcome labels.
const (
	OutcomeRelayed          = "relayed"
	OutcomeMethodNotAllowed = "method_not_allowed"
	OutcomeInvalidSignature = "invalid_signature"
	OutcomeMalformed        = "malformed_payload"
	OutcomeUnknownEvent     = "unknown_event"
	OutcomeDownstreamError  = "downstream_error"
	OutcomeReadError        = "read_error"
)

type Metrics struct {
	registry *prometheus.Registry

	reqTotal   *prometheus.CounterVec
	reqLatency *prometheus.HistogramVec

	relayTotal   *prometheus.CounterVec
	relayLatency prometheus.Histogram
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		reqTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"route", "method", "status"},
		),
		reqLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		relayTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "heimdall_relay_webhooks_total",
				Help: "Inbound webhooks by event type and outcome.",
			},
			[]string{"event_type", "outcome"},
		),
		relayLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "heimdall_relay_forward_duration_seconds",
				Help:    "Time spent processing a webhook, including the downstream call.",
				Buckets: prometheus.DefBuckets,
			},
		),
	}

	reg.MustRegister(m.reqTotal, m.reqLatency, m.relayTotal, m.relayLatency)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRelay records one webhook outcome. eventType may be empty when the
// request was rejected before classification.
func (m *Metrics) ObserveRelay(eventType, outcome string, d time.Duration) {
	if eventType == "" {
		eventType = "none"
	}
	m.relayTotal.WithLabelValues(eventType, outcome).Inc()
	m.relayLatency.Observe(d.Seconds())
}

// Middleware records request counts and latency labelled by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.reqTotal.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.reqLatency.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
