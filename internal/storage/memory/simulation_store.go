package memory

import (
	"context"
	"sort"
	"sync"

	"valuation-lab/internal/domain"
	"valuation-lab/internal/storage"
)

// SimulationStore is an in-memory implementation of storage.SimulationStore.
type SimulationStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SimulationResult
}

// NewSimulationStore creates a new in-memory simulation store.
func NewSimulationStore() *SimulationStore {
	return &SimulationStore{
		data: make(map[string]*domain.SimulationResult),
	}
}

// Insert adds a completed run. Returns ErrDuplicateKey if the ID exists.
func (s *SimulationStore) Insert(_ context.Context, r *domain.SimulationResult) error {
	if r == nil || r.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.ID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[r.ID] = r.Clone()
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *SimulationStore) GetByID(_ context.Context, id string) (*domain.SimulationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return r.Clone(), nil
}

// GetByFormula retrieves all runs of a formula, ordered by started_at ASC.
func (s *SimulationStore) GetByFormula(_ context.Context, formula domain.Formula) ([]*domain.SimulationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SimulationResult
	for _, r := range s.data {
		if r.Formula == formula {
			result = append(result, r.Clone())
		}
	}
	sortRuns(result)
	return result, nil
}

// GetAll retrieves all runs, ordered by started_at ASC, id ASC.
func (s *SimulationStore) GetAll(_ context.Context) ([]*domain.SimulationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.SimulationResult, 0, len(s.data))
	for _, r := range s.data {
		result = append(result, r.Clone())
	}
	sortRuns(result)
	return result, nil
}

func sortRuns(runs []*domain.SimulationResult) {
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].StartedAt.Before(runs[j].StartedAt)
		}
		return runs[i].ID < runs[j].ID
	})
}

var _ storage.SimulationStore = (*SimulationStore)(nil)
