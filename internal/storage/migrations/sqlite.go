package migrations

import (
	"context"
	"database/sql"
)

// RunSqliteMigrations applies the run-store DDL one statement at a time.
func RunSqliteMigrations(ctx context.Context, db *sql.DB) error {
	return apply(ctx, SqliteFS, "sqlite", true, func(ctx context.Context, stmt string) error {
		_, err := db.ExecContext(ctx, stmt)
		return err
	})
}
