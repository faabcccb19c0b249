package reporting

import (
	"fmt"
	"strings"
	"time"

	"valuation-lab/internal/domain"
)

// RenderMarkdown renders a cross-run report as Markdown.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString("# Simulation Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Runs: %d\n\n", r.RunCount))

	sb.WriteString("## Runs\n\n")
	if len(r.Runs) > 0 {
		sb.WriteString("| Run | Formula | Started | Iterations | Failed | Seed | Metric | Mean | Median | P5 | P95 | VaR | CVaR |\n")
		sb.WriteString("|-----|---------|---------|------------|--------|------|--------|------|--------|----|-----|-----|------|\n")
		for _, row := range r.Runs {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %d | %d | %d | %s | %.4f | %.4f | %.4f | %.4f | %.4f | %.4f |\n",
				row.ID, row.Formula, row.StartedAt.Format(time.RFC3339),
				row.Iterations, row.Failed, row.Seed, row.Metric,
				row.Mean, row.Median, row.P5, row.P95, row.VaR, row.CVaR))
		}
	} else {
		sb.WriteString("No runs available.\n")
	}
	sb.WriteString("\n")

	sb.WriteString("## Metrics Across Runs\n\n")
	if len(r.Metrics) > 0 {
		sb.WriteString("| Formula | Metric | Runs | Mean of Means | Min Mean | Max Mean | Avg StdDev |\n")
		sb.WriteString("|---------|--------|------|---------------|----------|----------|------------|\n")
		for _, m := range r.Metrics {
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %.4f | %.4f | %.4f | %.4f |\n",
				m.Formula, m.Metric, m.Runs, m.MeanOfMeans, m.MinMean, m.MaxMean, m.MeanStdDev))
		}
	} else {
		sb.WriteString("No metrics available.\n")
	}

	return sb.String()
}

// RenderResultMarkdown renders a single run's analysis as Markdown.
func RenderResultMarkdown(r *domain.SimulationResult) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s Simulation %s\n\n", r.Formula, r.ID))
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Status | %s |\n", r.Status))
	sb.WriteString(fmt.Sprintf("| Iterations | %d |\n", r.Iterations))
	sb.WriteString(fmt.Sprintf("| Completed | %d |\n", r.Completed))
	sb.WriteString(fmt.Sprintf("| Failed | %d |\n", r.Failed))
	sb.WriteString(fmt.Sprintf("| Seed | %d |\n", r.RandomSeed))
	sb.WriteString(fmt.Sprintf("| Confidence Level | %.2f |\n", r.ConfidenceLevel))
	sb.WriteString(fmt.Sprintf("| Duration (ms) | %d |\n", r.DurationMs))
	sb.WriteString("\n")

	metrics := orderedMetrics(r.Formula, r.Analysis)
	if len(metrics) == 0 {
		sb.WriteString("No analysis available.\n")
		return sb.String()
	}

	a := r.Analysis
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Mean | Median | StdDev | Min | Max | P5 | P95 |\n")
	sb.WriteString("|--------|------|--------|--------|-----|-----|----|-----|\n")
	for _, m := range metrics {
		s, p := a.Summary[m], a.Percentiles[m]
		sb.WriteString(fmt.Sprintf("| %s | %.4f | %.4f | %.4f | %.4f | %.4f | %.4f | %.4f |\n",
			m, s.Mean, s.Median, s.StdDev, s.Min, s.Max, p.P5, p.P95))
	}
	sb.WriteString("\n")

	sb.WriteString("## Risk\n\n")
	sb.WriteString("| Metric | CI Lower | CI Upper | VaR | CVaR | Skewness | Kurtosis |\n")
	sb.WriteString("|--------|----------|----------|-----|------|----------|----------|\n")
	for _, m := range metrics {
		ci, risk := a.ConfidenceIntervals[m], a.RiskMetrics[m]
		sb.WriteString(fmt.Sprintf("| %s | %.4f | %.4f | %.4f | %.4f | %.4f | %.4f |\n",
			m, ci.LowerBound, ci.UpperBound, risk.VaR, risk.CVaR, risk.Skewness, risk.Kurtosis))
	}

	return sb.String()
}
