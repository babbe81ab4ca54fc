package migrations

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	chstore "prop-simulator/internal/storage/clickhouse"
)

// RunClickhouseMigrations creates the DSN's database if missing, applies the
// trial-result DDL and returns a connection bound to that database.
func RunClickhouseMigrations(ctx context.Context, dsn string) (*chstore.Conn, error) {
	dbName, err := databaseFromDSN(dsn)
	if err != nil {
		return nil, err
	}
	if err := ensureDatabase(ctx, dsn, dbName); err != nil {
		return nil, err
	}

	conn, err := chstore.NewConnWithDatabase(ctx, dsn, dbName)
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse db: %w", err)
	}
	// The driver rejects multi-statement Exec.
	err = apply(ctx, ClickhouseFS, "clickhouse", true, func(ctx context.Context, stmt string) error {
		return conn.Exec(ctx, stmt)
	})
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

func ensureDatabase(ctx context.Context, dsn, dbName string) error {
	admin, err := chstore.NewConnWithDatabase(ctx, dsn, "")
	if err != nil {
		return fmt.Errorf("connect clickhouse admin: %w", err)
	}
	defer admin.Close()

	if err := admin.Exec(ctx, "CREATE DATABASE IF NOT EXISTS "+quoteIdent(dbName)); err != nil {
		return fmt.Errorf("create database %s: %w", dbName, err)
	}
	return nil
}

func databaseFromDSN(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse clickhouse dsn: %w", err)
	}
	db := strings.TrimPrefix(u.Path, "/")
	if db == "" {
		return "", fmt.Errorf("clickhouse dsn missing database")
	}
	return db, nil
}

func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
