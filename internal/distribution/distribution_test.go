package distribution

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valuation-lab/internal/domain"
)

func newRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 0))
}

func TestUniform_Bounds(t *testing.T) {
	d, err := FromSpec(domain.DistributionSpec{
		Kind:       domain.KindUniform,
		Parameters: map[string]float64{"min": 0.02, "max": 0.03},
		Enabled:    true,
	})
	require.NoError(t, err)

	rng := newRNG(42)
	for i := 0; i < 10000; i++ {
		v := d.Sample(rng)
		if v < 0.02 || v > 0.03 {
			t.Fatalf("draw %d out of bounds: %v", i, v)
		}
	}
}

func TestTriangular_ModeBelowMin(t *testing.T) {
	_, err := FromSpec(domain.DistributionSpec{
		Kind:       domain.KindTriangular,
		Parameters: map[string]float64{"min": 0.2, "mode": 0.1, "max": 0.3},
		Enabled:    true,
	})
	if !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("expected ErrInvalidParameters, got %v", err)
	}
}

func TestTriangular_BoundsAndDegenerate(t *testing.T) {
	d, err := NewTriangular(1, 2, 5)
	require.NoError(t, err)
	rng := newRNG(7)
	for i := 0; i < 5000; i++ {
		v := d.Sample(rng)
		require.True(t, v >= 1 && v <= 5, "draw %v out of [1,5]", v)
	}

	point, err := NewTriangular(3, 3, 3)
	require.NoError(t, err)
	assert.Equal(t, 3.0, point.Sample(rng))
}

func TestFromSpec_InvalidParameters(t *testing.T) {
	tests := []struct {
		name string
		spec domain.DistributionSpec
	}{
		{"normal missing stdDev", domain.DistributionSpec{Kind: domain.KindNormal, Parameters: map[string]float64{"mean": 1}}},
		{"normal negative stdDev", domain.DistributionSpec{Kind: domain.KindNormal, Parameters: map[string]float64{"mean": 1, "stdDev": -0.1}}},
		{"uniform inverted", domain.DistributionSpec{Kind: domain.KindUniform, Parameters: map[string]float64{"min": 2, "max": 1}}},
		{"lognormal negative sigma", domain.DistributionSpec{Kind: domain.KindLogNormal, Parameters: map[string]float64{"mu": 0, "sigma": -1}}},
		{"beta zero alpha", domain.DistributionSpec{Kind: domain.KindBeta, Parameters: map[string]float64{"alpha": 0, "beta": 2}}},
		{"nan mean", domain.DistributionSpec{Kind: domain.KindNormal, Parameters: map[string]float64{"mean": math.NaN(), "stdDev": 1}}},
		{"unknown kind", domain.DistributionSpec{Kind: "cauchy"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromSpec(tt.spec)
			assert.ErrorIs(t, err, ErrInvalidParameters)
		})
	}
}

func TestSample_Deterministic(t *testing.T) {
	specs := []domain.DistributionSpec{
		{Kind: domain.KindNormal, Parameters: map[string]float64{"mean": 0.1, "stdDev": 0.02}},
		{Kind: domain.KindLogNormal, Parameters: map[string]float64{"mu": 0, "sigma": 0.5}},
		{Kind: domain.KindBeta, Parameters: map[string]float64{"alpha": 2, "beta": 5}},
	}
	for _, spec := range specs {
		d, err := FromSpec(spec)
		require.NoError(t, err)

		a, b := newRNG(99), newRNG(99)
		for i := 0; i < 100; i++ {
			require.Equal(t, d.Sample(a), d.Sample(b), "%s draw %d", spec.Kind, i)
		}
	}
}

func TestSample_Support(t *testing.T) {
	ln, err := NewLogNormal(0, 1)
	require.NoError(t, err)
	beta, err := NewBeta(2, 3)
	require.NoError(t, err)

	rng := newRNG(3)
	sum := 0.0
	for i := 0; i < 5000; i++ {
		require.Greater(t, ln.Sample(rng), 0.0)
		v := beta.Sample(rng)
		require.True(t, v >= 0 && v <= 1, "beta draw %v outside [0,1]", v)
		sum += v
	}
	// Beta(2,3) mean is 0.4.
	assert.InDelta(t, 0.4, sum/5000, 0.02)
}

func TestNormal_ZeroStdDev(t *testing.T) {
	d, err := NewNormal(0.10, 0)
	require.NoError(t, err)
	rng := newRNG(1)
	for i := 0; i < 100; i++ {
		require.Equal(t, 0.10, d.Sample(rng))
	}
}

func TestCentral(t *testing.T) {
	n, _ := NewNormal(5, 1)
	tri, _ := NewTriangular(1, 2, 4)
	u, _ := NewUniform(2, 4)
	ln, _ := NewLogNormal(0, 0)
	b, _ := NewBeta(1, 3)

	assert.Equal(t, 5.0, n.Central())
	assert.Equal(t, 2.0, tri.Central())
	assert.Equal(t, 3.0, u.Central())
	assert.Equal(t, 1.0, ln.Central())
	assert.Equal(t, 0.25, b.Central())
}

func TestNewSet(t *testing.T) {
	baseline := 0.07
	set, err := NewSet(map[string]domain.DistributionSpec{
		"wacc":          {Kind: domain.KindNormal, Parameters: map[string]float64{"mean": 0.1, "stdDev": 0.01}, Enabled: true},
		"revenueGrowth": {Kind: domain.KindUniform, Parameters: map[string]float64{"min": 0.02, "max": 0.08}, Enabled: true},
		"taxRate":       {Kind: domain.KindTriangular, Parameters: map[string]float64{"min": 0.2, "mode": 0.25, "max": 0.3}},
		"margin":        {Kind: domain.KindNormal, Enabled: false, Baseline: &baseline},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"revenueGrowth", "wacc"}, set.Names())
	assert.Equal(t, 0.25, set.Fixed["taxRate"])
	assert.Equal(t, 0.07, set.Fixed["margin"])
}

func TestNewSet_FailsFast(t *testing.T) {
	_, err := NewSet(map[string]domain.DistributionSpec{
		"wacc": {Kind: domain.KindTriangular, Parameters: map[string]float64{"min": 0.2, "mode": 0.1, "max": 0.3}, Enabled: true},
	})
	assert.ErrorIs(t, err, ErrInvalidParameters)
}

func TestRequireParams(t *testing.T) {
	spec := domain.DistributionSpec{Kind: domain.KindTriangular, Parameters: map[string]float64{"min": 1, "mode": 2, "max": 3}}

	p, err := requireParams(spec, domain.ParamMax, domain.ParamMin)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 1}, p)

	_, err = requireParams(spec, domain.ParamMean)
	require.ErrorIs(t, err, ErrInvalidParameters)
	assert.Contains(t, err.Error(), `"mean"`)
}
