package memory

import (
	"context"
	"sort"
	"sync"

	"valuation-lab/internal/domain"
	"valuation-lab/internal/storage"
)

// OutcomeStore is an in-memory implementation of storage.OutcomeStore.
type OutcomeStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.ScenarioOutcome // keyed by simulation ID
}

// NewOutcomeStore creates a new in-memory outcome store.
func NewOutcomeStore() *OutcomeStore {
	return &OutcomeStore{
		data: make(map[string][]*domain.ScenarioOutcome),
	}
}

// InsertBulk adds a run's outcomes atomically. Fails entire batch on any duplicate.
func (s *OutcomeStore) InsertBulk(_ context.Context, simulationID string, outcomes []*domain.ScenarioOutcome) error {
	if simulationID == "" {
		return storage.ErrInvalidInput
	}
	if len(outcomes) == 0 {
		return nil
	}

	batch := make([]*domain.ScenarioOutcome, 0, len(outcomes))
	seen := make(map[int]struct{}, len(outcomes))
	for _, o := range outcomes {
		if o == nil {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[o.Iteration]; exists {
			return storage.ErrDuplicateKey
		}
		seen[o.Iteration] = struct{}{}
		batch = append(batch, o.Clone())
	}
	sort.Slice(batch, func(i, j int) bool { return batch[i].Iteration < batch[j].Iteration })

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[simulationID]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[simulationID] = batch
	return nil
}

// GetBySimulationID retrieves a run's outcomes ordered by iteration ASC.
// Returns an empty slice for unknown runs.
func (s *OutcomeStore) GetBySimulationID(_ context.Context, simulationID string) ([]*domain.ScenarioOutcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.data[simulationID]
	result := make([]*domain.ScenarioOutcome, len(stored))
	for i, o := range stored {
		result[i] = o.Clone()
	}
	return result, nil
}

var _ storage.OutcomeStore = (*OutcomeStore)(nil)
