package domain

// Output metric names produced by the valuation formulas.
const (
	MetricEnterpriseValue     = "enterpriseValue"
	MetricEquityValue         = "equityValue"
	MetricPricePerShare       = "pricePerShare"
	MetricUpside              = "upside"
	MetricIRR                 = "irr"
	MetricMOIC                = "moic"
	MetricExitEquityValue     = "exitEquityValue"
	MetricExitEnterpriseValue = "exitEnterpriseValue"
)

// Analysis is the statistics block of a SimulationResult.
// Field paths (analysis.summary.<metric> etc.) are consumed by presentation layers.
type Analysis struct {
	Summary             map[string]SummaryStats       `json:"summary"`
	Percentiles         map[string]Percentiles        `json:"percentiles"`
	ConfidenceIntervals map[string]ConfidenceInterval `json:"confidenceIntervals"`
	RiskMetrics         map[string]RiskMetrics        `json:"riskMetrics"`
}

// SummaryStats holds location and spread of one metric.
type SummaryStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"stdDev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Percentiles holds fixed empirical percentiles of one metric.
type Percentiles struct {
	P5  float64 `json:"p5"`
	P25 float64 `json:"p25"`
	P50 float64 `json:"p50"`
	P75 float64 `json:"p75"`
	P95 float64 `json:"p95"`
}

// ConfidenceInterval is a two-sided empirical interval.
type ConfidenceInterval struct {
	LowerBound float64 `json:"lowerBound"`
	UpperBound float64 `json:"upperBound"`
	Width      float64 `json:"width"`
	Level      float64 `json:"level"`
}

// RiskMetrics holds tail and shape measures of one metric.
type RiskMetrics struct {
	VaR      float64 `json:"var"`
	CVaR     float64 `json:"cvar"`
	Skewness float64 `json:"skewness"`
	// Kurtosis is excess kurtosis: the fourth standardized moment minus 3, so a
	// normal population reports 0 and a constant one reports 0 as well.
	Kurtosis float64 `json:"kurtosis"`
}

// Clone returns a deep copy.
func (a *Analysis) Clone() *Analysis {
	if a == nil {
		return nil
	}
	return &Analysis{
		Summary:             cloneMap(a.Summary),
		Percentiles:         cloneMap(a.Percentiles),
		ConfidenceIntervals: cloneMap(a.ConfidenceIntervals),
		RiskMetrics:         cloneMap(a.RiskMetrics),
	}
}

func cloneMap[V any](m map[string]V) map[string]V {
	if m == nil {
		return nil
	}
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
