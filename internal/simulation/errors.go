package simulation

import (
	"errors"
	"fmt"

	"valuation-lab/internal/metrics"
)

// Run errors
var (
	// ErrCancelled is returned when a run is stopped before completion. No partial result
	// accompanies it.
	ErrCancelled = errors.New("simulation cancelled")

	// ErrExcessiveEvaluationFailures is returned when the share of dropped iterations
	// exceeds the configured ceiling.
	ErrExcessiveEvaluationFailures = errors.New("excessive evaluation failures")

	// ErrEmptyPopulation aliases the reducer error so callers need one import.
	ErrEmptyPopulation = metrics.ErrEmptyPopulation

	// ErrInvalidConfig is returned for out-of-range run settings.
	ErrInvalidConfig = errors.New("invalid simulation config")

	// ErrUnknownSimulation is returned by Engine.Stop for IDs with no active run.
	ErrUnknownSimulation = errors.New("unknown simulation")
)

// RunError carries progress counts alongside a terminal failure so callers can decide
// whether to retry with adjusted inputs.
type RunError struct {
	Kind       error
	Iterations int
	Completed  int
	Failed     int
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%v (iterations=%d completed=%d failed=%d)", e.Kind, e.Iterations, e.Completed, e.Failed)
}

func (e *RunError) Unwrap() error { return e.Kind }
