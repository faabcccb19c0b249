package reporting

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"valuation-lab/internal/domain"
)

// NewTableStyle returns the rounded style used for terminal output.
func NewTableStyle() *table.Style {
	style := table.Style{
		Name:    "StyleRounded",
		Box:     table.StyleBoxRounded,
		Format:  table.FormatOptionsDefault,
		HTML:    table.DefaultHTMLOptions,
		Options: table.OptionsDefault,
		Title:   table.TitleOptionsDefault,
		Color:   table.ColorOptionsDefault,
	}
	style.Format.Header = text.FormatUpper
	return &style
}

// RenderResultTable renders a single run's analysis as a terminal table.
func RenderResultTable(r *domain.SimulationResult) string {
	t := table.NewWriter()
	t.SetStyle(*NewTableStyle())
	t.SetTitle(fmt.Sprintf("%s %s  iterations=%d failed=%d seed=%d",
		r.Formula, r.ID, r.Iterations, r.Failed, r.RandomSeed))
	t.AppendHeader(table.Row{"Metric", "Mean", "Median", "StdDev", "P5", "P95", "CI Lower", "CI Upper", "VaR", "CVaR"})

	a := r.Analysis
	for _, m := range orderedMetrics(r.Formula, a) {
		s, p := a.Summary[m], a.Percentiles[m]
		ci, risk := a.ConfidenceIntervals[m], a.RiskMetrics[m]
		t.AppendRow(table.Row{
			m,
			format(s.Mean), format(s.Median), format(s.StdDev),
			format(p.P5), format(p.P95),
			format(ci.LowerBound), format(ci.UpperBound),
			format(risk.VaR), format(risk.CVaR),
		})
	}

	return t.Render()
}

// RenderRunsTable renders report run rows as a terminal table.
func RenderRunsTable(rows []RunRow) string {
	t := table.NewWriter()
	t.SetStyle(*NewTableStyle())
	t.AppendHeader(table.Row{"Run", "Formula", "Started", "Iterations", "Failed", "Metric", "Mean", "P5", "P95"})
	for _, r := range rows {
		t.AppendRow(table.Row{
			r.ID, r.Formula, r.StartedAt.Format("2006-01-02 15:04:05"),
			r.Iterations, r.Failed, r.Metric,
			format(r.Mean), format(r.P5), format(r.P95),
		})
	}
	return t.Render()
}

func format(v float64) string {
	return fmt.Sprintf("%.4f", v)
}
