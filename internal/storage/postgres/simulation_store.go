package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"valuation-lab/internal/domain"
	"valuation-lab/internal/storage"
)

// SimulationStore implements storage.SimulationStore using PostgreSQL.
type SimulationStore struct {
	pool *Pool
}

// NewSimulationStore creates a new SimulationStore.
func NewSimulationStore(pool *Pool) *SimulationStore {
	return &SimulationStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SimulationStore = (*SimulationStore)(nil)

const selectRuns = `
	SELECT id, formula, status, iterations, completed, failed, random_seed,
		confidence_level, started_at, finished_at, duration_ms, analysis
	FROM simulation_runs
`

// Insert adds a completed run. Returns ErrDuplicateKey if the ID exists.
func (s *SimulationStore) Insert(ctx context.Context, r *domain.SimulationResult) error {
	if r == nil || r.ID == "" {
		return storage.ErrInvalidInput
	}

	analysis, err := json.Marshal(r.Analysis)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}

	query := `
		INSERT INTO simulation_runs (
			id, formula, status, iterations, completed, failed, random_seed,
			confidence_level, started_at, finished_at, duration_ms, analysis
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = s.pool.Exec(ctx, query,
		r.ID,
		string(r.Formula),
		string(r.Status),
		r.Iterations,
		r.Completed,
		r.Failed,
		int64(r.RandomSeed),
		r.ConfidenceLevel,
		r.StartedAt,
		r.FinishedAt,
		r.DurationMs,
		analysis,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert simulation run: %w", err)
	}
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *SimulationStore) GetByID(ctx context.Context, id string) (*domain.SimulationResult, error) {
	row := s.pool.QueryRow(ctx, selectRuns+` WHERE id = $1`, id)
	r, err := scanRun(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get simulation run by id: %w", err)
	}
	return r, nil
}

// GetByFormula retrieves all runs of a formula, ordered by started_at ASC.
func (s *SimulationStore) GetByFormula(ctx context.Context, formula domain.Formula) ([]*domain.SimulationResult, error) {
	rows, err := s.pool.Query(ctx, selectRuns+` WHERE formula = $1 ORDER BY started_at ASC, id ASC`, string(formula))
	if err != nil {
		return nil, fmt.Errorf("get simulation runs by formula: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// GetAll retrieves all runs, ordered by started_at ASC, id ASC.
func (s *SimulationStore) GetAll(ctx context.Context) ([]*domain.SimulationResult, error) {
	rows, err := s.pool.Query(ctx, selectRuns+` ORDER BY started_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("get all simulation runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

func scanRun(row pgx.Row) (*domain.SimulationResult, error) {
	var (
		r        domain.SimulationResult
		formula  string
		status   string
		seed     int64
		analysis []byte
	)

	err := row.Scan(
		&r.ID,
		&formula,
		&status,
		&r.Iterations,
		&r.Completed,
		&r.Failed,
		&seed,
		&r.ConfidenceLevel,
		&r.StartedAt,
		&r.FinishedAt,
		&r.DurationMs,
		&analysis,
	)
	if err != nil {
		return nil, err
	}

	r.Formula = domain.Formula(formula)
	r.Status = domain.RunStatus(status)
	r.RandomSeed = uint64(seed)
	if err := json.Unmarshal(analysis, &r.Analysis); err != nil {
		return nil, fmt.Errorf("unmarshal analysis: %w", err)
	}
	return &r, nil
}

func scanRuns(rows pgx.Rows) ([]*domain.SimulationResult, error) {
	var runs []*domain.SimulationResult

	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan simulation run row: %w", err)
		}
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate simulation run rows: %w", err)
	}

	return runs, nil
}
