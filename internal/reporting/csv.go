package reporting

import (
	"fmt"
	"strings"

	"valuation-lab/internal/domain"
)

// RenderCSV renders report run rows as CSV.
func RenderCSV(rows []RunRow) string {
	var sb strings.Builder

	sb.WriteString("id,formula,started_at,iterations,completed,failed,seed,")
	sb.WriteString("metric,mean,median,std_dev,p5,p95,var,cvar\n")

	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%s,%s,%d,%d,%d,%d,%d,%s,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f\n",
			r.ID,
			r.Formula,
			r.StartedAt.UnixMilli(),
			r.Iterations,
			r.Completed,
			r.Failed,
			r.Seed,
			r.Metric,
			r.Mean,
			r.Median,
			r.StdDev,
			r.P5,
			r.P95,
			r.VaR,
			r.CVaR,
		))
	}

	return sb.String()
}

// RenderResultCSV renders one row per metric of a single run.
func RenderResultCSV(r *domain.SimulationResult) string {
	var sb strings.Builder

	sb.WriteString("metric,mean,median,std_dev,min,max,p5,p25,p50,p75,p95,")
	sb.WriteString("ci_lower,ci_upper,ci_level,var,cvar,skewness,kurtosis\n")

	a := r.Analysis
	for _, m := range orderedMetrics(r.Formula, a) {
		s, p := a.Summary[m], a.Percentiles[m]
		ci, risk := a.ConfidenceIntervals[m], a.RiskMetrics[m]
		sb.WriteString(fmt.Sprintf("%s,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.4f,%.6f,%.6f,%.6f,%.6f\n",
			m,
			s.Mean, s.Median, s.StdDev, s.Min, s.Max,
			p.P5, p.P25, p.P50, p.P75, p.P95,
			ci.LowerBound, ci.UpperBound, ci.Level,
			risk.VaR, risk.CVaR, risk.Skewness, risk.Kurtosis,
		))
	}

	return sb.String()
}
