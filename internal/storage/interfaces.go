package storage

import (
	"context"

	"valuation-lab/internal/domain"
)

// SimulationStore provides access to simulation_runs storage.
type SimulationStore interface {
	// Insert adds a completed run. Returns ErrDuplicateKey if the ID exists.
	Insert(ctx context.Context, r *domain.SimulationResult) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.SimulationResult, error)

	// GetByFormula retrieves all runs of a formula, ordered by started_at ASC.
	GetByFormula(ctx context.Context, formula domain.Formula) ([]*domain.SimulationResult, error)

	// GetAll retrieves all runs, ordered by started_at ASC, id ASC.
	GetAll(ctx context.Context) ([]*domain.SimulationResult, error)
}

// OutcomeStore provides access to simulation_outcomes storage.
type OutcomeStore interface {
	// InsertBulk adds a run's outcome population atomically.
	// Returns ErrDuplicateKey if outcomes for the run already exist.
	InsertBulk(ctx context.Context, simulationID string, outcomes []*domain.ScenarioOutcome) error

	// GetBySimulationID retrieves a run's outcomes ordered by iteration ASC.
	GetBySimulationID(ctx context.Context, simulationID string) ([]*domain.ScenarioOutcome, error)
}
