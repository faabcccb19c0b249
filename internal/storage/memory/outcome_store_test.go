package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valuation-lab/internal/domain"
	"valuation-lab/internal/storage"
)

func testOutcome(iteration int, wacc, price float64) *domain.ScenarioOutcome {
	return &domain.ScenarioOutcome{
		Iteration: iteration,
		Inputs:    map[string]float64{"wacc": wacc},
		Outputs:   map[string]float64{domain.MetricPricePerShare: price},
	}
}

func TestOutcomeStore_InsertBulk(t *testing.T) {
	store := NewOutcomeStore()
	ctx := context.Background()

	err := store.InsertBulk(ctx, "run-1", []*domain.ScenarioOutcome{
		testOutcome(2, 0.11, 14.0),
		testOutcome(0, 0.09, 17.5),
		testOutcome(1, 0.10, 15.2),
	})
	require.NoError(t, err)

	got, err := store.GetBySimulationID(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, o := range got {
		assert.Equal(t, i, o.Iteration)
	}
	assert.Equal(t, 0.09, got[0].Inputs["wacc"])
	assert.Equal(t, 17.5, got[0].Outputs[domain.MetricPricePerShare])
}

func TestOutcomeStore_Duplicates(t *testing.T) {
	store := NewOutcomeStore()
	ctx := context.Background()

	// Intra-batch duplicate
	err := store.InsertBulk(ctx, "run-1", []*domain.ScenarioOutcome{
		testOutcome(0, 0.1, 15),
		testOutcome(0, 0.1, 15),
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// Nothing from the failed batch was stored
	got, err := store.GetBySimulationID(ctx, "run-1")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, store.InsertBulk(ctx, "run-1", []*domain.ScenarioOutcome{testOutcome(0, 0.1, 15)}))
	err = store.InsertBulk(ctx, "run-1", []*domain.ScenarioOutcome{testOutcome(1, 0.1, 15)})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestOutcomeStore_InvalidInput(t *testing.T) {
	store := NewOutcomeStore()
	ctx := context.Background()

	assert.ErrorIs(t, store.InsertBulk(ctx, "", []*domain.ScenarioOutcome{testOutcome(0, 0.1, 1)}), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.InsertBulk(ctx, "run-1", []*domain.ScenarioOutcome{nil}), storage.ErrInvalidInput)
	assert.NoError(t, store.InsertBulk(ctx, "run-1", nil))
}
