package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"prop-simulator/internal/domain"
	"prop-simulator/internal/storage"
)

// timeLayout is fixed-width so created_at sorts chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// RunStore implements storage.RunStore on SQLite.
// JSON documents are stored as TEXT.
type RunStore struct {
	db *DB
}

// NewRunStore creates a new RunStore.
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(ctx context.Context, run *domain.SimulationRun) error {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}

	cfg, err := json.Marshal(run.Config)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	summary, err := json.Marshal(run.Summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	bins := run.Histogram
	if bins == nil {
		bins = []domain.HistogramBin{}
	}
	hist, err := json.Marshal(bins)
	if err != nil {
		return fmt.Errorf("encode histogram: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO simulation_runs(
  run_id, created_at, account_type, iterations, condition_end_state, config, summary, histogram
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`,
		run.RunID,
		run.CreatedAt.UTC().Format(timeLayout),
		run.Config.AccountType,
		run.Config.Iterations,
		run.Summary.ConditionEndState,
		string(cfg),
		string(summary),
		string(hist),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert simulation run: %w", err)
	}
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(ctx context.Context, runID string) (*domain.SimulationRun, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT run_id, created_at, config, summary, histogram
FROM simulation_runs
WHERE run_id = ?
`, runID)

	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get simulation run by id: %w", err)
	}
	return run, nil
}

// List returns up to limit runs ordered by created_at DESC, run_id ASC.
func (s *RunStore) List(ctx context.Context, limit int) ([]*domain.SimulationRun, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT run_id, created_at, config, summary, histogram
FROM simulation_runs
ORDER BY created_at DESC, run_id ASC
LIMIT ?
`, limit)
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

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*domain.SimulationRun, error) {
	var (
		run                           domain.SimulationRun
		createdAt, cfg, summary, hist string
	)
	if err := row.Scan(&run.RunID, &createdAt, &cfg, &summary, &hist); err != nil {
		return nil, err
	}

	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("decode created_at: %w", err)
	}
	run.CreatedAt = ts

	if err := json.Unmarshal([]byte(cfg), &run.Config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := json.Unmarshal([]byte(summary), &run.Summary); err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}
	if err := json.Unmarshal([]byte(hist), &run.Histogram); err != nil {
		return nil, fmt.Errorf("decode histogram: %w", err)
	}
	if len(run.Histogram) == 0 {
		run.Histogram = nil
	}
	return &run, nil
}
