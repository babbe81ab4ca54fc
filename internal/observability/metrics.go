// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"prop-simulator/internal/domain"
)

// Run status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusCached  = "cached"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Simulation metrics
	RunsTotal       *prometheus.CounterVec
	RunDuration     *prometheus.HistogramVec
	RunsInFlight    prometheus.Gauge
	TrialsTotal     *prometheus.CounterVec
	TrialLengthDays prometheus.Histogram

	// Cache metrics
	CacheRequests *prometheus.CounterVec

	// Stream metrics
	StreamSubscribers  prometheus.Gauge
	ProgressEventsSent prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered with reg.
// A nil reg registers with the default Prometheus registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "prop_simulator"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Simulation metrics
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "runs_total",
			Help:      "Total number of simulation runs by account type and status",
		}, []string{"account_type", "status"}),
		RunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "run_duration_seconds",
			Help:      "Simulation run duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		}, []string{"account_type"}),
		RunsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "runs_in_flight",
			Help:      "Number of simulation runs currently executing",
		}),
		TrialsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "trials_total",
			Help:      "Total number of completed trials by end state",
		}, []string{"end_state"}),
		TrialLengthDays: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "trial_length_days",
			Help:      "Completed trading days per trial",
			Buckets:   []float64{5, 10, 20, 30, 60, 90, 180, 365, 730},
		}),

		// Cache metrics
		CacheRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "requests_total",
			Help:      "Total number of run cache lookups by result",
		}, []string{"result"}),

		// Stream metrics
		StreamSubscribers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "subscribers",
			Help:      "Number of connected progress subscribers",
		}),
		ProgressEventsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "progress_events_total",
			Help:      "Total number of progress events broadcast",
		}),

		// Database metrics
		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful simulation run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", nil)

// RecordRun records a finished run.
func (m *Metrics) RecordRun(accountType, status string, duration time.Duration) {
	m.RunsTotal.WithLabelValues(accountType, status).Inc()
	if status == StatusCached {
		return
	}
	m.RunDuration.WithLabelValues(accountType).Observe(duration.Seconds())
	if status == StatusSuccess {
		m.LastSuccessfulRun.SetToCurrentTime()
	}
}

// RecordTrials records per-trial end states and lengths.
func (m *Metrics) RecordTrials(results []domain.TrialResult) {
	counts := make(map[domain.EndState]int, len(domain.AllEndStates))
	for _, r := range results {
		counts[r.EndState]++
		m.TrialLengthDays.Observe(float64(r.SimulationDays))
	}
	for state, n := range counts {
		m.TrialsTotal.WithLabelValues(string(state)).Add(float64(n))
	}
}

// RecordCacheLookup records a cache hit or miss.
func (m *Metrics) RecordCacheLookup(hit bool) {
	if hit {
		m.CacheRequests.WithLabelValues("hit").Inc()
		return
	}
	m.CacheRequests.WithLabelValues("miss").Inc()
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(database, operation string, seconds float64, err error) {
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordRun records a finished run on DefaultMetrics.
func RecordRun(accountType, status string, duration time.Duration) {
	DefaultMetrics.RecordRun(accountType, status, duration)
}

// RecordTrials records trial outcomes on DefaultMetrics.
func RecordTrials(results []domain.TrialResult) {
	DefaultMetrics.RecordTrials(results)
}

// RecordDBQuery records database query metrics on DefaultMetrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.RecordDBQuery(database, operation, seconds, err)
}
