package migrations

import (
	"context"
	"fmt"

	"valuation-lab/internal/storage/postgres"
)

// RunPostgresMigrations applies every embedded PostgreSQL file.
// Files may hold several statements; they run through the simple protocol.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	files, err := load(PostgresFS, "postgres")
	if err != nil {
		return err
	}

	for _, m := range files {
		if _, err := pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.name, err)
		}
	}
	return nil
}
