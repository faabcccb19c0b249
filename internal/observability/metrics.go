// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"valuation-lab/internal/domain"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "valuation_lab"

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Simulation metrics
	RunsStarted         *prometheus.CounterVec
	RunsFinished        *prometheus.CounterVec
	RunDuration         *prometheus.HistogramVec
	IterationsEvaluated *prometheus.CounterVec
	EvaluationFailures  *prometheus.CounterVec
	ActiveRuns          prometheus.Gauge

	// Cache metrics
	CacheLookups *prometheus.CounterVec

	// Storage metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// API metrics
	ProgressSubscribers prometheus.Gauge
	ReportsGenerated    *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// NewMetrics registers all metrics with reg. A nil reg uses a fresh registry, which keeps
// tests independent of the process-wide default.
func NewMetrics(namespace string, reg *prometheus.Registry) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		RunsStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "runs_started_total",
			Help:      "Total number of simulation runs started by formula",
		}, []string{"formula"}),
		RunsFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "runs_finished_total",
			Help:      "Total number of simulation runs finished by formula and status",
		}, []string{"formula", "status"}),
		RunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "run_duration_seconds",
			Help:      "Simulation wall time in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}, []string{"formula"}),
		IterationsEvaluated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "iterations_evaluated_total",
			Help:      "Total number of iterations that produced an outcome",
		}, []string{"formula"}),
		EvaluationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "evaluation_failures_total",
			Help:      "Total number of iterations dropped by the evaluator",
		}, []string{"formula"}),
		ActiveRuns: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "active_runs",
			Help:      "Number of simulations currently running",
		}),

		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Result cache lookups by outcome",
		}, []string{"result"}),

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

		ProgressSubscribers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "progress_subscribers",
			Help:      "Open WebSocket progress connections",
		}),
		ReportsGenerated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "reports_generated_total",
			Help:      "Total number of reports generated by format",
		}, []string{"format"}),

		gatherer: reg,
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// RunStarted records a run start.
func (m *Metrics) RunStarted(formula domain.Formula) {
	m.RunsStarted.WithLabelValues(string(formula)).Inc()
	m.ActiveRuns.Inc()
}

// RunFinished records a terminal run.
func (m *Metrics) RunFinished(formula domain.Formula, status domain.RunStatus, elapsed time.Duration, completed, failed int) {
	f := string(formula)
	m.ActiveRuns.Dec()
	m.RunsFinished.WithLabelValues(f, string(status)).Inc()
	m.RunDuration.WithLabelValues(f).Observe(elapsed.Seconds())
	m.IterationsEvaluated.WithLabelValues(f).Add(float64(completed))
	m.EvaluationFailures.WithLabelValues(f).Add(float64(failed))
}

// RecordCacheLookup records a result cache hit or miss.
func (m *Metrics) RecordCacheLookup(hit bool) {
	if hit {
		m.CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.CacheLookups.WithLabelValues("miss").Inc()
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(database, operation string, elapsed time.Duration, err error) {
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(elapsed.Seconds())
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordReport records a generated report.
func (m *Metrics) RecordReport(format string) {
	m.ReportsGenerated.WithLabelValues(format).Inc()
}
