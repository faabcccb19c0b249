package clickhouse_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"valuation-lab/internal/domain"
	"valuation-lab/internal/storage"
	"valuation-lab/internal/storage/clickhouse"
	"valuation-lab/internal/storage/migrations"
)

// setupTestDB starts a ClickHouse container and applies the embedded migrations.
// Returns a cleanup function that must be called when done.
func setupTestDB(t *testing.T) (*clickhouse.Conn, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "clickhouse/clickhouse-server:24.1-alpine",
			ExposedPorts: []string{"9000/tcp", "8123/tcp"},
			WaitingFor: wait.ForAll(
				wait.ForLog("Application: Ready for connections").
					WithStartupTimeout(60*time.Second),
				wait.ForListeningPort("9000/tcp"),
			),
			Env: map[string]string{
				"CLICKHOUSE_USER":     "default",
				"CLICKHOUSE_PASSWORD": "",
			},
		},
		Started: true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "9000")
	require.NoError(t, err)

	dsn := fmt.Sprintf("clickhouse://%s:%s/valuation_test", host, port.Port())
	conn, err := migrations.RunClickhouseMigrations(ctx, dsn)
	require.NoError(t, err)

	cleanup := func() {
		conn.Close()
		_ = container.Terminate(ctx)
	}
	return conn, cleanup
}

func TestOutcomeStore_InsertBulkAndGet(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := clickhouse.NewOutcomeStore(conn)
	ctx := context.Background()

	outcomes := []*domain.ScenarioOutcome{
		{
			Iteration: 1,
			Inputs:    map[string]float64{"wacc": 0.11, "revenueGrowth": 0.04},
			Outputs:   map[string]float64{domain.MetricPricePerShare: 13.9},
		},
		{
			Iteration: 0,
			Inputs:    map[string]float64{"wacc": 0.09, "revenueGrowth": 0.06},
			Outputs:   map[string]float64{domain.MetricPricePerShare: 18.2},
		},
	}
	require.NoError(t, store.InsertBulk(ctx, "run-1", outcomes))

	got, err := store.GetBySimulationID(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].Iteration)
	assert.Equal(t, 0.09, got[0].Inputs["wacc"])
	assert.Equal(t, 18.2, got[0].Outputs[domain.MetricPricePerShare])
	assert.Equal(t, 1, got[1].Iteration)

	err = store.InsertBulk(ctx, "run-1", outcomes[:1])
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	none, err := store.GetBySimulationID(ctx, "run-2")
	require.NoError(t, err)
	assert.Empty(t, none)
}
