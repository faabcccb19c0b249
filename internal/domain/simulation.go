package domain

import "time"

// Formula selects the valuation model applied to each sample vector.
type Formula string

// Supported formulas.
const (
	FormulaDCF Formula = "DCF"
	FormulaLBO Formula = "LBO"
)

// RunStatus is the lifecycle state of a simulation.
type RunStatus string

// Run states: Idle -> Running -> {Completed | Cancelled | Failed}.
const (
	StatusIdle      RunStatus = "idle"
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusCancelled RunStatus = "cancelled"
	StatusFailed    RunStatus = "failed"
)

// Terminal reports whether no further transitions are possible.
func (s RunStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusFailed
}

// SimulationConfig holds run-level settings. Owned by the caller, read-only during a run.
type SimulationConfig struct {
	Iterations        int                `json:"iterations" yaml:"iterations"`
	ConfidenceLevel   float64            `json:"confidenceLevel" yaml:"confidenceLevel"`
	RandomSeed        *uint64            `json:"randomSeed,omitempty" yaml:"randomSeed,omitempty"`
	CorrelationMatrix *CorrelationMatrix `json:"correlationMatrix,omitempty" yaml:"correlationMatrix,omitempty"`

	// Workers bounds concurrent chunk evaluation. 0 or 1 runs sequentially.
	Workers int `json:"workers,omitempty" yaml:"workers,omitempty"`
	// MaxFailureRate is the tolerated fraction of dropped iterations. nil means the default;
	// an explicit 0 tolerates no failures.
	MaxFailureRate *float64 `json:"maxFailureRate,omitempty" yaml:"maxFailureRate,omitempty"`
	// ProgressBatch is the number of iterations between progress notifications.
	ProgressBatch int `json:"progressBatch,omitempty" yaml:"progressBatch,omitempty"`
}

// ScenarioOutcome is one simulated trial.
type ScenarioOutcome struct {
	Iteration int                `json:"iteration"`
	Inputs    map[string]float64 `json:"inputs"`
	Outputs   map[string]float64 `json:"outputs"`
}

// SimulationResult is the aggregate produced by a completed run.
type SimulationResult struct {
	ID              string    `json:"id"`
	Formula         Formula   `json:"formula"`
	Status          RunStatus `json:"status"`
	Iterations      int       `json:"iterations"`
	Completed       int       `json:"completed"`
	Failed          int       `json:"failed"`
	RandomSeed      uint64    `json:"randomSeed"`
	ConfidenceLevel float64   `json:"confidenceLevel"`
	StartedAt       time.Time `json:"startedAt"`
	FinishedAt      time.Time `json:"finishedAt"`
	DurationMs      int64     `json:"durationMs"`
	Analysis        *Analysis `json:"analysis"`
}

// Clone returns a deep copy.
func (r *SimulationResult) Clone() *SimulationResult {
	if r == nil {
		return nil
	}
	c := *r
	c.Analysis = r.Analysis.Clone()
	return &c
}

// Clone returns a deep copy.
func (o *ScenarioOutcome) Clone() *ScenarioOutcome {
	if o == nil {
		return nil
	}
	return &ScenarioOutcome{
		Iteration: o.Iteration,
		Inputs:    cloneMap(o.Inputs),
		Outputs:   cloneMap(o.Outputs),
	}
}
