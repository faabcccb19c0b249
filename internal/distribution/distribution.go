// Package distribution draws scalar samples from parameterised probability distributions.
//
// Every variant samples by inverse CDF: a uniform draw u in (0,1) is mapped through the
// variant's quantile function. The correlation transform relies on the same Quantile to
// restore marginals after coupling, so the two paths share one algorithm.
package distribution

import (
	"errors"

	"valuation-lab/internal/domain"
)

// ErrInvalidParameters is returned when a spec is missing keys or violates its invariants.
var ErrInvalidParameters = errors.New("invalid distribution parameters")

// RandomSource yields uniform floats in [0, 1). *rand.Rand from math/rand/v2 satisfies it.
type RandomSource interface {
	Float64() float64
}

// Distribution is one validated probability distribution.
type Distribution interface {
	// Kind returns the distribution family.
	Kind() domain.DistributionKind

	// Sample draws one value. Deterministic for a given rng state.
	Sample(rng RandomSource) float64

	// Quantile returns the inverse CDF at p, with p in (0, 1).
	Quantile(p float64) float64

	// Central returns the value held when the variable is disabled.
	Central() float64
}

// UnitDraw returns a uniform draw in the open interval (0, 1).
// Quantile functions diverge at 0, so zero draws are rejected.
func UnitDraw(rng RandomSource) float64 {
	for {
		if u := rng.Float64(); u > 0 {
			return u
		}
	}
}
