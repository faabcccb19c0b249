package metrics

import (
	"math"
	"math/rand/v2"
	"testing"
)

func sequence(n int) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = float64(i + 1)
	}
	return values
}

func TestComputePercentile_LinearInterpolation(t *testing.T) {
	sorted := []float64{10, 20, 30, 40}

	tests := []struct {
		p    float64
		want float64
	}{
		{0, 10},
		{0.5, 25},
		{1, 40},
		{0.25, 17.5},
	}
	for _, tt := range tests {
		if got := computePercentile(sorted, tt.p); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("percentile(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}

	if got := computePercentile([]float64{7}, 0.95); got != 7 {
		t.Errorf("single value percentile = %v, want 7", got)
	}
}

func TestCompute_Sequence(t *testing.T) {
	s := Compute(sequence(100), 0.95)

	checks := []struct {
		name      string
		got, want float64
	}{
		{"mean", s.Summary.Mean, 50.5},
		{"median", s.Summary.Median, 50.5},
		{"stddev", s.Summary.StdDev, math.Sqrt(9999.0 / 12)},
		{"min", s.Summary.Min, 1},
		{"max", s.Summary.Max, 100},
		{"p5", s.Percentiles.P5, 5.95},
		{"p95", s.Percentiles.P95, 95.05},
		{"ci lower", s.Interval.LowerBound, 3.475},
		{"ci upper", s.Interval.UpperBound, 97.525},
		{"ci width", s.Interval.Width, 94.05},
		{"var", s.Risk.VaR, 5.95},
		{"cvar", s.Risk.CVaR, 3},
		{"skewness", s.Risk.Skewness, 0},
		{"kurtosis", s.Risk.Kurtosis, -6 * 10001.0 / (5 * 9999.0)},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > 1e-9 {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if s.Interval.Level != 0.95 {
		t.Errorf("level = %v, want 0.95", s.Interval.Level)
	}
}

func TestCompute_Constant(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		values[i] = 15.188550133187617
	}
	s := Compute(values, 0.9)

	if s.Summary.StdDev != 0 {
		t.Errorf("stddev = %v, want 0", s.Summary.StdDev)
	}
	if s.Risk.Skewness != 0 || s.Risk.Kurtosis != 0 {
		t.Errorf("shape = %v/%v, want 0/0", s.Risk.Skewness, s.Risk.Kurtosis)
	}
	if s.Interval.Width != 0 {
		t.Errorf("width = %v, want 0", s.Interval.Width)
	}
	if math.Abs(s.Risk.CVaR-values[0]) > 1e-12 {
		t.Errorf("cvar = %v, want %v", s.Risk.CVaR, values[0])
	}
}

func TestCompute_KurtosisIsExcess(t *testing.T) {
	// A symmetric two-point population has a fourth standardized moment of 1.
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(2*(i%2) - 1)
	}
	s := Compute(values, 0.95)

	if math.Abs(s.Risk.Kurtosis-(-2)) > 1e-12 {
		t.Errorf("kurtosis = %v, want -2", s.Risk.Kurtosis)
	}
}

func TestCompute_PercentileMonotonicity(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 0))
	for trial := 0; trial < 20; trial++ {
		values := make([]float64, 1+rng.IntN(500))
		for i := range values {
			values[i] = math.Exp(rng.NormFloat64())
		}
		p := Compute(values, 0.95).Percentiles
		if !(p.P5 <= p.P25 && p.P25 <= p.P50 && p.P50 <= p.P75 && p.P75 <= p.P95) {
			t.Fatalf("trial %d: percentiles not monotonic: %+v", trial, p)
		}
	}
}

func TestCompute_RightSkewed(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 0))
	values := make([]float64, 20000)
	for i := range values {
		values[i] = math.Exp(0.5 * rng.NormFloat64())
	}
	s := Compute(values, 0.95)
	if s.Risk.Skewness <= 0 {
		t.Errorf("lognormal skewness = %v, want > 0", s.Risk.Skewness)
	}
	if s.Risk.CVaR > s.Risk.VaR {
		t.Errorf("cvar %v above var %v", s.Risk.CVaR, s.Risk.VaR)
	}
}
