package migrations

import (
	"context"

	"prop-simulator/internal/storage/postgres"
)

// RunPostgresMigrations applies the run-store DDL. pgx accepts whole scripts,
// so each file is sent as one statement batch.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	return apply(ctx, PostgresFS, "postgres", false, func(ctx context.Context, sql string) error {
		_, err := pool.Exec(ctx, sql)
		return err
	})
}
