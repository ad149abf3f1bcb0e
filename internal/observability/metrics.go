// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Oracle metrics
	OracleQuotesTotal *prometheus.CounterVec
	OracleQuoteErrors *prometheus.CounterVec
	OracleCallLatency prometheus.Histogram

	// Run metrics
	RunsTotal       *prometheus.CounterVec
	RunDuration     prometheus.Histogram
	PointsSaved     prometheus.Counter
	RungsUnmeasured prometheus.Counter

	// Scheduler metrics
	SchedulerCyclesTotal   *prometheus.CounterVec
	LastSchedulerHeartbeat prometheus.Gauge
	LastSuccessfulRun      prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "dex_liquidity_lab"
	}

	return &Metrics{
		OracleQuotesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "quotes_total",
			Help:      "Total number of oracle quotes requested by direction",
		}, []string{"direction"}),
		OracleQuoteErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "quote_errors_total",
			Help:      "Total number of failed oracle quotes by direction and stage",
		}, []string{"direction", "stage"}),
		OracleCallLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "call_latency_seconds",
			Help:      "Oracle call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ladder",
			Name:      "runs_total",
			Help:      "Total number of ladder runs by status",
		}, []string{"status"}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ladder",
			Name:      "run_duration_seconds",
			Help:      "Full ladder run duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		PointsSaved: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ladder",
			Name:      "points_saved_total",
			Help:      "Total number of ladder points persisted",
		}),
		RungsUnmeasured: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ladder",
			Name:      "rungs_unmeasured_total",
			Help:      "Total number of rung sides recorded without metrics after a quote failure",
		}),

		SchedulerCyclesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "cycles_total",
			Help:      "Total number of scheduler cycles by status",
		}, []string{"status"}),
		LastSchedulerHeartbeat: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "last_heartbeat_timestamp",
			Help:      "Unix timestamp of the last scheduler heartbeat",
		}),
		LastSuccessfulRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ladder",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of the last fully persisted run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordOracleQuote records one oracle call by direction, with latency and
// outcome. Stage distinguishes baseline calls from sweep calls.
func RecordOracleQuote(direction, stage string, seconds float64, err error) {
	DefaultMetrics.OracleQuotesTotal.WithLabelValues(direction).Inc()
	DefaultMetrics.OracleCallLatency.Observe(seconds)
	if err != nil {
		DefaultMetrics.OracleQuoteErrors.WithLabelValues(direction, stage).Inc()
	}
}

// RecordRungUnmeasured counts a rung side left without metrics.
func RecordRungUnmeasured() {
	DefaultMetrics.RungsUnmeasured.Inc()
}

// RecordRun records a completed or failed ladder run.
func RecordRun(status string, durationSeconds float64) {
	DefaultMetrics.RunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.RunDuration.Observe(durationSeconds)
}

// RecordPointsSaved counts persisted ladder points.
func RecordPointsSaved(n int) {
	DefaultMetrics.PointsSaved.Add(float64(n))
}

// RecordSchedulerCycle records one scheduler cycle.
func RecordSchedulerCycle(status string) {
	DefaultMetrics.SchedulerCyclesTotal.WithLabelValues(status).Inc()
}

// UpdateSchedulerHeartbeat sets the heartbeat gauge.
func UpdateSchedulerHeartbeat(unixSeconds int64) {
	DefaultMetrics.LastSchedulerHeartbeat.Set(float64(unixSeconds))
}

// UpdateLastSuccessfulRun sets the last successful run gauge.
func UpdateLastSuccessfulRun(unixSeconds int64) {
	DefaultMetrics.LastSuccessfulRun.Set(float64(unixSeconds))
}
