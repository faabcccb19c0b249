// Package metrics reduces a population of scenario outcomes to summary statistics,
// percentiles, confidence intervals and risk metrics.
package metrics

import (
	"errors"
	"fmt"
	"sort"

	"valuation-lab/internal/domain"
)

var (
	// ErrEmptyPopulation is returned when no usable outcomes reach the reducer.
	ErrEmptyPopulation = errors.New("empty outcome population")

	// ErrInvalidConfidenceLevel is returned when the level is outside (0, 1).
	ErrInvalidConfidenceLevel = errors.New("confidence level must be in (0, 1)")
)

// Reduce computes the analysis block for every metric present in the outcomes.
// Statistics are order-independent; outcomes are not modified.
func Reduce(outcomes []*domain.ScenarioOutcome, confidenceLevel float64) (*domain.Analysis, error) {
	if !(confidenceLevel > 0 && confidenceLevel < 1) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidConfidenceLevel, confidenceLevel)
	}
	if len(outcomes) == 0 {
		return nil, ErrEmptyPopulation
	}

	columns := collectColumns(outcomes)
	if len(columns) == 0 {
		return nil, ErrEmptyPopulation
	}

	analysis := &domain.Analysis{
		Summary:             make(map[string]domain.SummaryStats, len(columns)),
		Percentiles:         make(map[string]domain.Percentiles, len(columns)),
		ConfidenceIntervals: make(map[string]domain.ConfidenceInterval, len(columns)),
		RiskMetrics:         make(map[string]domain.RiskMetrics, len(columns)),
	}
	for _, name := range sortedKeys(columns) {
		s := Compute(columns[name], confidenceLevel)
		analysis.Summary[name] = s.Summary
		analysis.Percentiles[name] = s.Percentiles
		analysis.ConfidenceIntervals[name] = s.Interval
		analysis.RiskMetrics[name] = s.Risk
	}
	return analysis, nil
}

// collectColumns pivots outcomes into one value slice per output metric, in outcome order.
func collectColumns(outcomes []*domain.ScenarioOutcome) map[string][]float64 {
	columns := make(map[string][]float64)
	for _, o := range outcomes {
		if o == nil {
			continue
		}
		for name, v := range o.Outputs {
			if columns[name] == nil {
				columns[name] = make([]float64, 0, len(outcomes))
			}
			columns[name] = append(columns[name], v)
		}
	}
	return columns
}

func sortedKeys(m map[string][]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
