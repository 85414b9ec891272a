package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Dispatch metrics
var (
	DispatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_runs_total",
			Help: "Total number of bulk dispatch invocations",
		},
		[]string{"result"}, // completed, rejected
	)

	DispatchRecipientsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_recipients_total",
			Help: "Total number of per-recipient send attempts",
		},
		[]string{"status"}, // sent, failed
	)

	DispatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dispatch_duration_seconds",
			Help:    "Duration of a full dispatch invocation",
			Buckets: prometheus.DefBuckets,
		},
	)

	DispatchActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dispatch_active",
			Help: "Number of dispatch invocations currently running",
		},
	)
)

// Progress stream metrics
var (
	ProgressSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "progress_subscribers",
			Help: "Number of currently connected progress stream subscribers",
		},
	)

	ProgressEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "progress_events_published_total",
			Help: "Total number of progress events published",
		},
		[]string{"type"}, // start, progress, complete, error
	)

	ProgressEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "progress_events_dropped_total",
			Help: "Progress events dropped due to slow or finished subscribers",
		},
	)
)

// API metrics
var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Database metrics
var (
	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)
