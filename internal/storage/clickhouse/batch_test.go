package clickhouse

import (
	"errors"
	"testing"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valuation-lab/internal/domain"
)

// recordingBatch fails Append after a number of rows and records Abort/Send calls.
type recordingBatch struct {
	driver.Batch
	failAfter int
	appended  int
	aborted   bool
	sent      bool
}

func (b *recordingBatch) Append(...any) error {
	if b.appended == b.failAfter {
		return errors.New("column type mismatch")
	}
	b.appended++
	return nil
}

func (b *recordingBatch) Abort() error {
	b.aborted = true
	return nil
}

func (b *recordingBatch) Send() error {
	b.sent = true
	return nil
}

func testOutcomes(n int) []*domain.ScenarioOutcome {
	out := make([]*domain.ScenarioOutcome, n)
	for i := range out {
		out[i] = &domain.ScenarioOutcome{Iteration: i, Outputs: map[string]float64{"enterpriseValue": float64(i)}}
	}
	return out
}

func TestSendOutcomes_AbortsOnAppendFailure(t *testing.T) {
	batch := &recordingBatch{failAfter: 2}

	err := sendOutcomes(batch, "sim-1", testOutcomes(5))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "append to batch")
	assert.True(t, batch.aborted)
	assert.False(t, batch.sent)
}

func TestSendOutcomes_SendsAllRows(t *testing.T) {
	batch := &recordingBatch{failAfter: -1}

	require.NoError(t, sendOutcomes(batch, "sim-1", testOutcomes(5)))
	assert.Equal(t, 5, batch.appended)
	assert.True(t, batch.sent)
	assert.False(t, batch.aborted)
}
