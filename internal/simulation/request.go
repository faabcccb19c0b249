package simulation

import (
	"fmt"

	"valuation-lab/internal/domain"
	"valuation-lab/internal/valuation"
)

// Defaults applied to unset settings.
const (
	DefaultIterations      = 10000
	DefaultConfidenceLevel = 0.95
	DefaultMaxFailureRate  = 0.5
	DefaultProgressBatch   = 256
)

// ProgressFunc receives the running completion fraction in [0, 1].
// Calls are serialised and fractions never decrease.
type ProgressFunc func(fraction float64)

// Request describes one simulation.
type Request struct {
	Formula       domain.Formula
	BaseInputs    map[string]float64
	Distributions map[string]domain.DistributionSpec
	Config        domain.SimulationConfig

	OnProgress ProgressFunc

	// KeepOutcomes retains the outcome population on the handle after completion.
	KeepOutcomes bool
}

// withDefaults fills zero-valued settings and validates the rest.
func (r Request) withDefaults() (Request, error) {
	cfg := r.Config
	if cfg.Iterations == 0 {
		cfg.Iterations = DefaultIterations
	}
	if cfg.ConfidenceLevel == 0 {
		cfg.ConfidenceLevel = DefaultConfidenceLevel
	}
	if cfg.MaxFailureRate == nil {
		rate := DefaultMaxFailureRate
		cfg.MaxFailureRate = &rate
	}
	if cfg.ProgressBatch == 0 {
		cfg.ProgressBatch = DefaultProgressBatch
	}
	if cfg.Workers == 0 {
		cfg.Workers = 1
	}

	switch {
	case !valuation.ValidFormula(r.Formula):
		return r, fmt.Errorf("%w: unknown formula %q", ErrInvalidConfig, r.Formula)
	case cfg.Iterations < 0:
		return r, fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalidConfig, cfg.Iterations)
	case !(cfg.ConfidenceLevel > 0 && cfg.ConfidenceLevel < 1):
		return r, fmt.Errorf("%w: confidence level must be in (0,1), got %v", ErrInvalidConfig, cfg.ConfidenceLevel)
	case *cfg.MaxFailureRate < 0 || *cfg.MaxFailureRate > 1:
		return r, fmt.Errorf("%w: max failure rate must be in [0,1], got %v", ErrInvalidConfig, *cfg.MaxFailureRate)
	case cfg.ProgressBatch < 0:
		return r, fmt.Errorf("%w: progress batch must be positive, got %d", ErrInvalidConfig, cfg.ProgressBatch)
	case cfg.Workers < 0:
		return r, fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, cfg.Workers)
	}

	r.Config = cfg
	return r, nil
}

// Options mirrors the invocation options of the DCF/LBO entry points.
type Options struct {
	Iterations        int
	ConfidenceLevel   float64
	RandomSeed        *uint64
	CorrelationMatrix *domain.CorrelationMatrix
	OnProgress        ProgressFunc
	Workers           int
	MaxFailureRate    *float64
}

func (o Options) request(formula domain.Formula, base map[string]float64, dists map[string]domain.DistributionSpec) Request {
	return Request{
		Formula:       formula,
		BaseInputs:    base,
		Distributions: dists,
		Config: domain.SimulationConfig{
			Iterations:        o.Iterations,
			ConfidenceLevel:   o.ConfidenceLevel,
			RandomSeed:        o.RandomSeed,
			CorrelationMatrix: o.CorrelationMatrix,
			Workers:           o.Workers,
			MaxFailureRate:    o.MaxFailureRate,
		},
		OnProgress: o.OnProgress,
	}
}
