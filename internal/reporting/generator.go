package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"valuation-lab/internal/domain"
	"valuation-lab/internal/storage"
	"valuation-lab/internal/valuation"
)

// Generator produces reports from stored runs.
type Generator struct {
	runs storage.SimulationStore
	now  func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(runs storage.SimulationStore) *Generator {
	return &Generator{
		runs: runs,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds a report over all stored runs, or over one formula when formula is set.
func (g *Generator) Generate(ctx context.Context, formula domain.Formula) (*Report, error) {
	var (
		results []*domain.SimulationResult
		err     error
	)
	if formula == "" {
		results, err = g.runs.GetAll(ctx)
	} else {
		results, err = g.runs.GetByFormula(ctx, formula)
	}
	if err != nil {
		return nil, fmt.Errorf("load runs: %w", err)
	}

	return &Report{
		GeneratedAt: g.now(),
		RunCount:    len(results),
		Runs:        runRows(results),
		Metrics:     metricSummaries(results),
	}, nil
}

// HeadlineMetric is the first metric a formula reports.
func HeadlineMetric(f domain.Formula) string {
	if m := valuation.Metrics(f); len(m) > 0 {
		return m[0]
	}
	return ""
}

func runRows(results []*domain.SimulationResult) []RunRow {
	rows := make([]RunRow, 0, len(results))
	for _, r := range results {
		metric := HeadlineMetric(r.Formula)
		row := RunRow{
			ID:         r.ID,
			Formula:    r.Formula,
			StartedAt:  r.StartedAt,
			Iterations: r.Iterations,
			Completed:  r.Completed,
			Failed:     r.Failed,
			Seed:       r.RandomSeed,
			Metric:     metric,
		}
		if a := r.Analysis; a != nil {
			s := a.Summary[metric]
			p := a.Percentiles[metric]
			risk := a.RiskMetrics[metric]
			row.Mean, row.Median, row.StdDev = s.Mean, s.Median, s.StdDev
			row.P5, row.P95 = p.P5, p.P95
			row.VaR, row.CVaR = risk.VaR, risk.CVaR
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].StartedAt.Equal(rows[j].StartedAt) {
			return rows[i].StartedAt.Before(rows[j].StartedAt)
		}
		return rows[i].ID < rows[j].ID
	})
	return rows
}

func metricSummaries(results []*domain.SimulationResult) []MetricSummaryRow {
	type key struct {
		formula domain.Formula
		metric  string
	}
	groups := make(map[key]*MetricSummaryRow)
	sumStdDev := make(map[key]float64)

	for _, r := range results {
		if r.Analysis == nil {
			continue
		}
		for metric, s := range r.Analysis.Summary {
			k := key{r.Formula, metric}
			row, ok := groups[k]
			if !ok {
				row = &MetricSummaryRow{Formula: r.Formula, Metric: metric, MinMean: s.Mean, MaxMean: s.Mean}
				groups[k] = row
			}
			row.Runs++
			row.MeanOfMeans += s.Mean
			sumStdDev[k] += s.StdDev
			if s.Mean < row.MinMean {
				row.MinMean = s.Mean
			}
			if s.Mean > row.MaxMean {
				row.MaxMean = s.Mean
			}
		}
	}

	rows := make([]MetricSummaryRow, 0, len(groups))
	for k, row := range groups {
		n := float64(row.Runs)
		row.MeanOfMeans /= n
		row.MeanStdDev = sumStdDev[k] / n
		rows = append(rows, *row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Formula != rows[j].Formula {
			return rows[i].Formula < rows[j].Formula
		}
		return rows[i].Metric < rows[j].Metric
	})
	return rows
}
