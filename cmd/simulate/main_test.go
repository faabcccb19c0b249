package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valuation-lab/internal/domain"
)

func TestResultRenderer_UnknownFormat(t *testing.T) {
	_, err := resultRenderer("xml")
	assert.Error(t, err)
}

func TestRunCommand_JSON(t *testing.T) {
	jobPath, err := filepath.Abs("../../jobs/lbo.yaml")
	require.NoError(t, err)
	t.Chdir(t.TempDir())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"run", "--job", jobPath, "--format", "json", "--iterations", "500", "--seed", "7"})
	require.NoError(t, rootCmd.Execute())

	var res domain.SimulationResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, domain.StatusCompleted, res.Status)
	assert.Equal(t, 500, res.Iterations)
	assert.Equal(t, uint64(7), res.RandomSeed)
	assert.Contains(t, res.Analysis.Summary, domain.MetricIRR)
}
