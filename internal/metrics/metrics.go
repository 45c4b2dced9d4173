// Package metrics provides Prometheus metrics for the timesheet service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "timesheet"

// HTTP metrics
var (
	// HTTPRequestsTotal counts HTTP requests by method, route, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration tracks HTTP request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "route"},
	)

	// RateLimitedTotal counts requests rejected by the per-IP limiter.
	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Total requests rejected by rate limiting",
		},
		[]string{"scope"}, // api, import
	)

	// AuthFailuresTotal counts requests refused by API key checks.
	AuthFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "auth_failures_total",
			Help:      "Total requests refused for a missing or invalid API key",
		},
		[]string{"reason"}, // missing, invalid
	)
)

// Import metrics
var (
	// ImportsTotal counts import attempts by format and outcome.
	ImportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "imports_total",
			Help:      "Total imports by format and outcome",
		},
		[]string{"format", "outcome"}, // outcome: ok, rejected, failed
	)

	// ImportRowsTotal counts processed rows by result.
	ImportRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "rows_total",
			Help:      "Total imported rows by result",
		},
		[]string{"result"}, // inserted, skipped, invalid
	)

	// ImportDuration tracks how long a whole import takes.
	ImportDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "duration_seconds",
			Help:      "Import duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		},
	)

	// ImportsActive tracks imports holding a limiter slot.
	ImportsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "active",
			Help:      "Number of imports currently running",
		},
	)

	// ReferencesCreated counts customers and projects created during resolution.
	ReferencesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "references_created_total",
			Help:      "Total customers and projects auto-created while importing",
		},
		[]string{"kind"}, // customer, project
	)
)

// Cache metrics
var (
	// ReportCacheTotal counts report cache lookups by result.
	ReportCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "report_lookups_total",
			Help:      "Total report cache lookups by result",
		},
		[]string{"result"}, // hit, miss, error
	)
)
