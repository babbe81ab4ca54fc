package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"prop-simulator/internal/domain"
	"prop-simulator/internal/storage"
)

// RunStore implements storage.RunStore using PostgreSQL.
// Config, summary and histogram are stored as JSONB documents.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(ctx context.Context, run *domain.SimulationRun) error {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}

	cfg, summary, hist, err := encodeRun(run)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO simulation_runs (
			run_id, created_at, account_type, iterations, condition_end_state,
			config, summary, histogram
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = s.pool.Exec(ctx, query,
		run.RunID,
		run.CreatedAt,
		run.Config.AccountType,
		run.Config.Iterations,
		run.Summary.ConditionEndState,
		cfg,
		summary,
		hist,
	)
	return translateError("insert simulation run", err)
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(ctx context.Context, runID string) (*domain.SimulationRun, error) {
	query := `
		SELECT run_id, created_at, config, summary, histogram
		FROM simulation_runs
		WHERE run_id = $1
	`

	run, err := scanRun(s.pool.QueryRow(ctx, query, runID))
	if err != nil {
		return nil, translateError("get simulation run by id", err)
	}
	return run, nil
}

// List returns up to limit runs ordered by created_at DESC, run_id ASC.
func (s *RunStore) List(ctx context.Context, limit int) ([]*domain.SimulationRun, error) {
	query := `
		SELECT run_id, created_at, config, summary, histogram
		FROM simulation_runs
		ORDER BY created_at DESC, run_id ASC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list simulation runs: %w", err)
	}
	defer rows.Close()

	var runs []*domain.SimulationRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan simulation run row: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate simulation run rows: %w", err)
	}
	return runs, nil
}

// encodeRun marshals the JSONB columns of a run.
func encodeRun(run *domain.SimulationRun) (cfg, summary, hist []byte, err error) {
	if cfg, err = json.Marshal(run.Config); err != nil {
		return nil, nil, nil, fmt.Errorf("encode config: %w", err)
	}
	if summary, err = json.Marshal(run.Summary); err != nil {
		return nil, nil, nil, fmt.Errorf("encode summary: %w", err)
	}
	bins := run.Histogram
	if bins == nil {
		bins = []domain.HistogramBin{}
	}
	if hist, err = json.Marshal(bins); err != nil {
		return nil, nil, nil, fmt.Errorf("encode histogram: %w", err)
	}
	return cfg, summary, hist, nil
}

// scanRun scans a single row into a SimulationRun.
func scanRun(row pgx.Row) (*domain.SimulationRun, error) {
	var (
		run                domain.SimulationRun
		cfg, summary, hist []byte
	)
	if err := row.Scan(&run.RunID, &run.CreatedAt, &cfg, &summary, &hist); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(cfg, &run.Config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := json.Unmarshal(summary, &run.Summary); err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}
	if err := json.Unmarshal(hist, &run.Histogram); err != nil {
		return nil, fmt.Errorf("decode histogram: %w", err)
	}
	if len(run.Histogram) == 0 {
		run.Histogram = nil
	}
	run.CreatedAt = run.CreatedAt.UTC()
	return &run, nil
}
