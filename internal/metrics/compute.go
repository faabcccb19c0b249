package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"valuation-lab/internal/domain"
)

// degenerateTolerance is the relative spread below which a sample is treated as constant.
const degenerateTolerance = 1e-12

// MetricStats holds every statistic computed for one metric.
type MetricStats struct {
	Summary     domain.SummaryStats
	Percentiles domain.Percentiles
	Interval    domain.ConfidenceInterval
	Risk        domain.RiskMetrics
}

// Compute reduces one metric's values. values must be non-empty; it is not modified.
func Compute(values []float64, confidenceLevel float64) MetricStats {
	n := len(values)
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	mean, stddev := stat.PopMeanStdDev(values, nil)
	if stddev <= degenerateTolerance*math.Max(1, math.Abs(mean)) {
		stddev = 0
	}

	tail := 1 - confidenceLevel
	lower := computePercentile(sorted, tail/2)
	upper := computePercentile(sorted, 1-tail/2)
	valueAtRisk := computePercentile(sorted, tail)

	return MetricStats{
		Summary: domain.SummaryStats{
			Mean:   mean,
			Median: computePercentile(sorted, 0.50),
			StdDev: stddev,
			Min:    sorted[0],
			Max:    sorted[n-1],
		},
		Percentiles: domain.Percentiles{
			P5:  computePercentile(sorted, 0.05),
			P25: computePercentile(sorted, 0.25),
			P50: computePercentile(sorted, 0.50),
			P75: computePercentile(sorted, 0.75),
			P95: computePercentile(sorted, 0.95),
		},
		Interval: domain.ConfidenceInterval{
			LowerBound: lower,
			UpperBound: upper,
			Width:      upper - lower,
			Level:      confidenceLevel,
		},
		Risk: domain.RiskMetrics{
			VaR:      valueAtRisk,
			CVaR:     computeTailMean(sorted, valueAtRisk),
			Skewness: computeStandardizedMoment(values, 3, stddev),
			Kurtosis: excessKurtosis(values, stddev),
		},
	}
}

// computePercentile uses linear interpolation between closest ranks.
// sorted must be pre-sorted ASC.
// p is percentile (0.10 = 10th percentile).
func computePercentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// computeTailMean is the mean of all values at or below threshold (CVaR).
// The minimum is always in the tail since the threshold is an interpolated percentile.
func computeTailMean(sorted []float64, threshold float64) float64 {
	sum := 0.0
	count := 0
	for _, v := range sorted {
		if v > threshold {
			break
		}
		sum += v
		count++
	}
	if count == 0 {
		return sorted[0]
	}
	return sum / float64(count)
}

// computeStandardizedMoment returns E[(x-mu)^k] / sigma^k, or 0 for a constant sample.
func computeStandardizedMoment(values []float64, k, stddev float64) float64 {
	if stddev == 0 {
		return 0
	}
	return stat.Moment(k, values, nil) / math.Pow(stddev, k)
}

// excessKurtosis is the fourth standardized moment minus 3 (zero for a normal sample).
func excessKurtosis(values []float64, stddev float64) float64 {
	if stddev == 0 {
		return 0
	}
	return computeStandardizedMoment(values, 4, stddev) - 3
}
