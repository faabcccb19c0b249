package domain

// DistributionKind names a supported probability distribution.
type DistributionKind string

// Distribution kinds.
const (
	KindNormal     DistributionKind = "normal"
	KindTriangular DistributionKind = "triangular"
	KindUniform    DistributionKind = "uniform"
	KindLogNormal  DistributionKind = "lognormal"
	KindBeta       DistributionKind = "beta"
)

// Parameter keys recognised per distribution kind.
const (
	ParamMean   = "mean"
	ParamStdDev = "stdDev"
	ParamMin    = "min"
	ParamMode   = "mode"
	ParamMax    = "max"
	ParamMu     = "mu"
	ParamSigma  = "sigma"
	ParamAlpha  = "alpha"
	ParamBeta   = "beta"
)

// DistributionSpec describes one random input variable.
// Constructed from configuration before a run and never mutated during it.
type DistributionSpec struct {
	Kind       DistributionKind   `json:"kind" yaml:"kind"`
	Parameters map[string]float64 `json:"parameters" yaml:"parameters"`
	Enabled    bool               `json:"enabled" yaml:"enabled"`

	// Baseline overrides the central value held when the variable is disabled.
	Baseline *float64 `json:"baseline,omitempty" yaml:"baseline,omitempty"`
}

// Param returns a parameter value and whether it was present.
func (s DistributionSpec) Param(key string) (float64, bool) {
	v, ok := s.Parameters[key]
	return v, ok
}
