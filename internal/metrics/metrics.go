package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sentinel_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint", "status"},
	)

	// Alert lifecycle metrics
	AlertsFiredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_alerts_fired_total",
			Help: "Total number of alerts fired",
		},
		[]string{"type", "severity"},
	)

	AlertsSuppressedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_alerts_suppressed_total",
			Help: "Total number of evaluations suppressed by dedup/hysteresis",
		},
		[]string{"type"},
	)

	AlertsResolvedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sentinel_alerts_resolved_total",
			Help: "Total number of alerts resolved",
		},
	)

	AlertsCurrent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sentinel_alerts_current",
			Help: "Number of alerts in the current (unresolved) set",
		},
	)

	HistorySize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sentinel_alert_history_size",
			Help: "Number of alerts retained in history",
		},
	)

	// Dispatch metrics
	DispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_dispatch_total",
			Help: "Total number of per-channel notification attempts",
		},
		[]string{"channel", "status"}, // status: success, failed
	)

	DispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sentinel_dispatch_duration_seconds",
			Help:    "Time taken to deliver a notification to a channel",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"channel"},
	)

	// Panic recovery
	PanicsRecovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_panics_recovered_total",
			Help: "Total number of panics recovered",
		},
		[]string{"component"},
	)
)
