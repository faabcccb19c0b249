package reporting

import (
	"sort"

	"valuation-lab/internal/domain"
	"valuation-lab/internal/valuation"
)

// orderedMetrics lists the metrics present in a, formula order first, extras sorted after.
func orderedMetrics(f domain.Formula, a *domain.Analysis) []string {
	if a == nil {
		return nil
	}

	var out []string
	seen := make(map[string]struct{})
	for _, m := range valuation.Metrics(f) {
		if _, ok := a.Summary[m]; ok {
			out = append(out, m)
			seen[m] = struct{}{}
		}
	}

	var extra []string
	for m := range a.Summary {
		if _, ok := seen[m]; !ok {
			extra = append(extra, m)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}
