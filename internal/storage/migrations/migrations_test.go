package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	sql := `
-- leading comment; with a semicolon
CREATE TABLE a (x String DEFAULT 'a;b');
CREATE TABLE b (y UInt8)
;
-- trailing
`
	stmts := splitStatements(sql)
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (x String DEFAULT 'a;b')", stmts[0])
	assert.Equal(t, "CREATE TABLE b (y UInt8)", stmts[1])
}

func TestSplitStatements_EscapedQuote(t *testing.T) {
	// '' toggles twice and stays inside the literal
	stmts := splitStatements("SELECT 'it''s;fine'; SELECT 1")
	require.Len(t, stmts, 2)
	assert.Equal(t, "SELECT 'it''s;fine'", stmts[0])
}

func TestLoad_Embedded(t *testing.T) {
	pg, err := load(PostgresFS, "postgres")
	require.NoError(t, err)
	require.NotEmpty(t, pg)
	assert.Contains(t, pg[0].sql, "simulation_runs")

	ch, err := load(ClickhouseFS, "clickhouse")
	require.NoError(t, err)
	require.NotEmpty(t, ch)
	assert.Len(t, splitStatements(ch[0].sql), 1)
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://default@localhost:9000/valuation")
	require.NoError(t, err)
	assert.Equal(t, "valuation", db)

	_, err = databaseFromDSN("clickhouse://localhost:9000")
	assert.Error(t, err)
}
