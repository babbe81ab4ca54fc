// Package stores selects and opens storage backends from connection settings.
package stores

import (
	"context"
	"fmt"

	"prop-simulator/internal/storage"
	chstore "prop-simulator/internal/storage/clickhouse"
	"prop-simulator/internal/storage/memory"
	"prop-simulator/internal/storage/migrations"
	pgstore "prop-simulator/internal/storage/postgres"
	sqlitestore "prop-simulator/internal/storage/sqlite"
)

// Config selects backends. Runs go to PostgreSQL, else SQLite, else memory.
// Trials go to ClickHouse, else memory.
type Config struct {
	PostgresDSN   string
	ClickhouseDSN string
	SqlitePath    string

	// Migrate applies embedded PostgreSQL and ClickHouse migrations on open.
	// SQLite migrations always run.
	Migrate bool
}

// Stores holds the opened stores and their backend names.
type Stores struct {
	Runs   storage.RunStore
	Trials storage.TrialResultStore

	RunBackend   string
	TrialBackend string
}

// Open opens the configured backends. The returned cleanup closes every
// connection that was opened and must be called even when only memory is used.
func Open(ctx context.Context, cfg Config) (*Stores, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	s := &Stores{}

	switch {
	case cfg.PostgresDSN != "":
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		closers = append(closers, pool.Close)
		if cfg.Migrate {
			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("postgres migrations: %w", err)
			}
		}
		s.Runs = pgstore.NewRunStore(pool)
		s.RunBackend = "postgres"

	case cfg.SqlitePath != "":
		db, err := sqlitestore.Open(ctx, cfg.SqlitePath)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { _ = db.Close() })
		if err := migrations.RunSqliteMigrations(ctx, db.DB); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("sqlite migrations: %w", err)
		}
		s.Runs = sqlitestore.NewRunStore(db)
		s.RunBackend = "sqlite"

	default:
		s.Runs = memory.NewRunStore()
		s.RunBackend = "memory"
	}

	if cfg.ClickhouseDSN != "" {
		var (
			conn *chstore.Conn
			err  error
		)
		if cfg.Migrate {
			conn, err = migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		} else {
			conn, err = chstore.NewConn(ctx, cfg.ClickhouseDSN)
		}
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		closers = append(closers, func() { _ = conn.Close() })
		s.Trials = chstore.NewTrialResultStore(conn)
		s.TrialBackend = "clickhouse"
	} else {
		s.Trials = memory.NewTrialResultStore()
		s.TrialBackend = "memory"
	}

	return s, cleanup, nil
}
