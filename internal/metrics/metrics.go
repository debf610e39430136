// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package metrics

import (
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Inbound API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashfeed_api_requests_total",
			Help: "Total number of widget API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dashfeed_api_request_duration_seconds",
			Help:    "Widget API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dashfeed_api_active_requests",
			Help: "Current number of in-flight widget API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashfeed_api_rate_limit_hits_total",
			Help: "Total number of inbound requests rejected by the rate limiter",
		},
		[]string{"route"},
	)

	// Upstream SaaS APIs
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashfeed_upstream_requests_total",
			Help: "Total number of requests sent to upstream integrations",
		},
		[]string{"integration", "endpoint", "status_code"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dashfeed_upstream_request_duration_seconds",
			Help:    "Upstream request latency in seconds, including retries",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"integration"},
	)

	UpstreamRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashfeed_upstream_retries_total",
			Help: "Total number of retries after HTTP 429 responses",
		},
		[]string{"integration"},
	)

	TokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashfeed_oauth_token_refreshes_total",
			Help: "Total number of OAuth access token fetches",
		},
		[]string{"integration", "result"}, // result: success, failure
	)

	// Feeder cache
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashfeed_cache_hits_total",
			Help: "Total number of upstream responses served from cache",
		},
		[]string{"integration"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashfeed_cache_misses_total",
			Help: "Total number of cache misses that went upstream",
		},
		[]string{"integration"},
	)

	CacheStores = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashfeed_cache_stores_total",
			Help: "Total number of upstream responses written to cache, by policy decision",
		},
		[]string{"integration", "decision"}, // decision: stored, skipped
	)

	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashfeed_cache_errors_total",
			Help: "Total number of cache store failures (treated as miss or no-op)",
		},
		[]string{"integration", "operation"},
	)

	CollapsedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashfeed_collapsed_requests_total",
			Help: "Total number of concurrent cache misses that shared one upstream call",
		},
		[]string{"integration"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dashfeed_cache_entries",
			Help: "Current number of entries held by in-process stores",
		},
		[]string{"store"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashfeed_cache_evictions_total",
			Help: "Total number of entries evicted from in-process stores",
		},
		[]string{"store"},
	)

	CacheHitRate = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dashfeed_cache_hit_rate_percent",
			Help: "Hit rate of in-process stores as of the last readiness check",
		},
		[]string{"store"},
	)

	BadgerGCRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashfeed_badger_gc_runs_total",
			Help: "Badger value log GC passes by result",
		},
		[]string{"result"}, // success, failure
	)

	// Pagination
	PagesFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashfeed_pages_fetched_total",
			Help: "Total number of collection pages requested",
		},
		[]string{"integration"},
	)

	PaginationOverruns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashfeed_pagination_overruns_total",
			Help: "Total number of collections aborted at the page cap",
		},
		[]string{"integration"},
	)

	// Refresh loop
	RefreshRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashfeed_refresh_runs_total",
			Help: "Total number of background feeder refreshes",
		},
		[]string{"operation", "result"},
	)

	RefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dashfeed_refresh_cycle_duration_seconds",
			Help:    "Duration of a full refresh cycle",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)

	RefreshLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dashfeed_refresh_last_success_timestamp_seconds",
			Help: "Unix time of the last refresh cycle with no failures",
		},
	)

	// Circuit breaker
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dashfeed_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashfeed_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: success, failure, rejected
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dashfeed_circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashfeed_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Process
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dashfeed_app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "dashfeed_app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
		func() float64 { return time.Since(processStart).Seconds() },
	)
)

var processStart = time.Now()

// RecordAPIRequest records one inbound request.
func RecordAPIRequest(method, route, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest moves the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordUpstreamRequest records one upstream call. A zero status means the
// request never got a response.
func RecordUpstreamRequest(integration, endpoint string, status int, duration time.Duration) {
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	UpstreamRequestsTotal.WithLabelValues(integration, endpoint, code).Inc()
	UpstreamRequestDuration.WithLabelValues(integration).Observe(duration.Seconds())
}

// RecordCacheLookup counts a hit or a miss.
func RecordCacheLookup(integration string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(integration).Inc()
		return
	}
	CacheMisses.WithLabelValues(integration).Inc()
}

// RecordCacheDecision counts what a cache policy decided.
func RecordCacheDecision(integration string, stored bool) {
	decision := "skipped"
	if stored {
		decision = "stored"
	}
	CacheStores.WithLabelValues(integration, decision).Inc()
}

// RecordRefresh records one background refresh operation.
func RecordRefresh(operation string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	RefreshRuns.WithLabelValues(operation, result).Inc()
}

// RecordRefreshCycle records a completed cycle and, when every operation
// succeeded, the last-success timestamp.
func RecordRefreshCycle(duration time.Duration, failures int) {
	RefreshDuration.Observe(duration.Seconds())
	if failures == 0 {
		RefreshLastSuccess.Set(float64(time.Now().Unix()))
	}
}

// SetAppInfo publishes the build version.
func SetAppInfo(version string) {
	AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
}
