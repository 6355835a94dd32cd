// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

// Package metrics holds the Prometheus instrumentation for the discovery core:
// cache efficiency, admission gate pressure, discovery outcomes, upstream
// circuit breakers, the HTTP API and the websocket hub.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Cache Metrics. The cache_class label is the TTL class ("details", "ratings", ...).
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of fresh cache reads",
		},
		[]string{"cache_class"},
	)

	CacheStaleHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_stale_hits_total",
			Help: "Total number of cache reads served past their TTL",
		},
		[]string{"cache_class"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_class"},
	)

	CacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of entries removed by the expiry sweep",
		},
	)

	CacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_invalidations_total",
			Help: "Total number of entries removed by prefix invalidation",
		},
		[]string{"prefix"},
	)

	CacheRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_background_refreshes_total",
			Help: "Background stale-while-revalidate refreshes",
		},
		[]string{"cache_class", "result"}, // result: "success", "failure"
	)

	// Admission Gate Metrics
	GateInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gate_in_flight",
			Help: "Requests currently holding an admission slot",
		},
		[]string{"class"},
	)

	GateWaiting = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gate_waiting",
			Help: "Callers queued for an admission slot",
		},
		[]string{"class"},
	)

	GateWaitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gate_wait_duration_seconds",
			Help:    "Time spent waiting for an admission slot",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"class"},
	)

	// Discovery Metrics
	DiscoveryRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_runs_total",
			Help: "Discover calls by outcome",
		},
		[]string{"outcome"}, // "verified", "best_effort", "empty", "error", "cancelled"
	)

	DiscoveryRelaxationSteps = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "discovery_relaxation_steps",
			Help:    "Constraint relaxation steps needed per discover call",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 6},
		},
	)

	DiscoveryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "discovery_duration_seconds",
			Help:    "Wall time of discover calls",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Upstream Metrics
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Requests sent to external collaborators",
		},
		[]string{"upstream", "status"},
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Latency of external collaborator calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"upstream"},
	)

	RatingsQuotaRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ratings_quota_rejections_total",
			Help: "Ratings lookups refused locally because the daily quota is spent",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)
)

// RecordCacheRead records one PersistentCache lookup.
func RecordCacheRead(class string, found, stale bool) {
	switch {
	case !found:
		CacheMisses.WithLabelValues(class).Inc()
	case stale:
		CacheStaleHits.WithLabelValues(class).Inc()
	default:
		CacheHits.WithLabelValues(class).Inc()
	}
}

// RecordCacheRefresh records the outcome of a background refresh.
func RecordCacheRefresh(class string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	CacheRefreshes.WithLabelValues(class, result).Inc()
}

// RecordDiscovery records the outcome of one discover call.
func RecordDiscovery(outcome string, relaxationStep int, duration time.Duration) {
	DiscoveryRuns.WithLabelValues(outcome).Inc()
	DiscoveryRelaxationSteps.Observe(float64(relaxationStep))
	DiscoveryDuration.Observe(duration.Seconds())
}

// RecordUpstream records one call to an external collaborator. status is
// the HTTP status code, or 0 when no response was received.
func RecordUpstream(upstream string, status int, duration time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	UpstreamRequests.WithLabelValues(upstream, label).Inc()
	UpstreamDuration.WithLabelValues(upstream).Observe(duration.Seconds())
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
