package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valuation-lab/internal/config"
	"valuation-lab/internal/domain"
	"valuation-lab/internal/valuation"
)

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Chdir(t.TempDir())
	cfg, err := config.Load(config.NewViper(), "")
	require.NoError(t, err)
	return cfg
}

func TestBuild_MemoryBackends(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Simulation.KeepOutcomes = true

	a, err := Build(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	job := &config.Job{
		Formula:    domain.FormulaLBO,
		BaseInputs: map[string]float64{valuation.InputEntryEBITDA: 100},
		Distributions: map[string]domain.DistributionSpec{
			valuation.InputExitMultiple: {
				Kind:       domain.KindUniform,
				Parameters: map[string]float64{domain.ParamMin: 8, domain.ParamMax: 12},
				Enabled:    true,
			},
		},
		Options: domain.SimulationConfig{Iterations: 200},
	}

	res, err := a.Service.Run(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, res.Status)

	outcomes, err := a.Service.Outcomes(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Len(t, outcomes, 200)

	stored, err := a.Runs.GetByID(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, res.ID, stored.ID)
}

func TestBuild_UnreachableRedis(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Redis.Addr = "127.0.0.1:1"

	_, err := Build(context.Background(), cfg, nil)
	assert.Error(t, err)
}
