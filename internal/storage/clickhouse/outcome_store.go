package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"valuation-lab/internal/domain"
	"valuation-lab/internal/storage"
)

// OutcomeStore implements storage.OutcomeStore using ClickHouse.
type OutcomeStore struct {
	conn *Conn
}

// NewOutcomeStore creates a new OutcomeStore.
func NewOutcomeStore(conn *Conn) *OutcomeStore {
	return &OutcomeStore{conn: conn}
}

// Compile-time interface check.
var _ storage.OutcomeStore = (*OutcomeStore)(nil)

// InsertBulk adds a run's outcomes in one batch. Fails the entire batch on any duplicate.
// MergeTree does not enforce keys, so duplicates are checked before the insert.
func (s *OutcomeStore) InsertBulk(ctx context.Context, simulationID string, outcomes []*domain.ScenarioOutcome) error {
	if simulationID == "" {
		return storage.ErrInvalidInput
	}
	if len(outcomes) == 0 {
		return nil
	}

	seen := make(map[int]struct{}, len(outcomes))
	for _, o := range outcomes {
		if o == nil || o.Iteration < 0 {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[o.Iteration]; exists {
			return storage.ErrDuplicateKey
		}
		seen[o.Iteration] = struct{}{}
	}

	exists, err := s.exists(ctx, simulationID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO simulation_outcomes (simulation_id, iteration, inputs, outputs)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	return sendOutcomes(batch, simulationID, outcomes)
}

// sendOutcomes appends every outcome and sends the batch. The batch is aborted
// when an append fails so its connection goes back to the pool.
func sendOutcomes(batch driver.Batch, simulationID string, outcomes []*domain.ScenarioOutcome) error {
	for _, o := range outcomes {
		if err := batch.Append(simulationID, uint32(o.Iteration), nonNil(o.Inputs), nonNil(o.Outputs)); err != nil {
			_ = batch.Abort()
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetBySimulationID retrieves a run's outcomes ordered by iteration ASC.
func (s *OutcomeStore) GetBySimulationID(ctx context.Context, simulationID string) ([]*domain.ScenarioOutcome, error) {
	query := `
		SELECT iteration, inputs, outputs
		FROM simulation_outcomes
		WHERE simulation_id = ?
		ORDER BY iteration ASC
	`

	rows, err := s.conn.Query(ctx, query, simulationID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []*domain.ScenarioOutcome
	for rows.Next() {
		var (
			iteration uint32
			o         domain.ScenarioOutcome
		)
		if err := rows.Scan(&iteration, &o.Inputs, &o.Outputs); err != nil {
			return nil, fmt.Errorf("scan outcome row: %w", err)
		}
		o.Iteration = int(iteration)
		outcomes = append(outcomes, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcome rows: %w", err)
	}

	return outcomes, nil
}

func (s *OutcomeStore) exists(ctx context.Context, simulationID string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx,
		`SELECT count(*) FROM simulation_outcomes WHERE simulation_id = ?`, simulationID,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func nonNil(m map[string]float64) map[string]float64 {
	if m == nil {
		return map[string]float64{}
	}
	return m
}
