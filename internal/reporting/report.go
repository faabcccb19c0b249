package reporting

import (
	"time"

	"valuation-lab/internal/domain"
)

// Report is a cross-run summary of persisted simulations.
type Report struct {
	GeneratedAt time.Time
	RunCount    int

	// Runs sorted by (started_at, id), one headline metric each
	Runs []RunRow

	// Metric spread across runs, sorted by (formula, metric)
	Metrics []MetricSummaryRow
}

// RunRow summarises one run by its headline metric.
type RunRow struct {
	ID         string
	Formula    domain.Formula
	StartedAt  time.Time
	Iterations int
	Completed  int
	Failed     int
	Seed       uint64
	Metric     string
	Mean       float64
	Median     float64
	StdDev     float64
	P5         float64
	P95        float64
	VaR        float64
	CVaR       float64
}

// MetricSummaryRow aggregates a metric's mean across runs of one formula.
type MetricSummaryRow struct {
	Formula     domain.Formula
	Metric      string
	Runs        int
	MeanOfMeans float64
	MinMean     float64
	MaxMean     float64
	MeanStdDev  float64
}
