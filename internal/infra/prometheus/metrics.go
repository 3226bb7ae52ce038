package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

var (
	// BackendRequests counts calls to the remote REST backend by operation and outcome.
	BackendRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "powerlink_backend_requests_total",
		Help: "Total number of backend API requests by operation and outcome",
	}, []string{"operation", "outcome"})

	// BackendLatency records backend request latency by operation.
	BackendLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "powerlink_backend_request_duration_seconds",
		Help:    "Backend API request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// ReconcileUpdates counts per-link order updates issued after a reorder.
	ReconcileUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "powerlink_reconcile_updates_total",
		Help: "Total number of order updates issued by reorder reconciliation",
	}, []string{"outcome"})

	// ClickEvents counts click-through events by result (published, deduplicated, failed).
	ClickEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "powerlink_click_events_total",
		Help: "Total number of public link click-through events",
	}, []string{"result"})

	// HTTPRequests counts served requests by method, route pattern and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "powerlink_http_requests_total",
		Help: "Total number of HTTP requests served",
	}, []string{"method", "route", "status"})

	// HTTPLatency records request latency by method and route pattern.
	HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "powerlink_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// HTTPInFlight is the number of requests being served.
	HTTPInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "powerlink_http_requests_in_flight",
		Help: "Number of HTTP requests currently being served",
	})

	// Workspaces is the number of live per-session link workspaces.
	Workspaces = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "powerlink_workspaces",
		Help: "Number of live session link workspaces",
	})
)

// Outcome maps an error to the outcome label.
func Outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}
