package clickhouse

import (
	"context"
	"fmt"

	"prop-simulator/internal/domain"
	"prop-simulator/internal/storage"
)

// TrialResultStore implements storage.TrialResultStore using ClickHouse.
type TrialResultStore struct {
	conn *Conn
}

// NewTrialResultStore creates a new TrialResultStore.
func NewTrialResultStore(conn *Conn) *TrialResultStore {
	return &TrialResultStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TrialResultStore = (*TrialResultStore)(nil)

// InsertBulk writes all trials of a run in one batch.
// MergeTree does not enforce uniqueness, so duplicates are checked first.
func (s *TrialResultStore) InsertBulk(ctx context.Context, runID string, results []domain.TrialResult) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(results) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[int]struct{}, len(results))
	for _, r := range results {
		if _, exists := seen[r.TrialIndex]; exists {
			return storage.ErrDuplicateKey
		}
		seen[r.TrialIndex] = struct{}{}
	}

	exists, err := s.exists(ctx, runID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO trial_results (
			run_id, trial_index, final_balance, end_state, simulation_days
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range results {
		err = batch.Append(
			runID,
			uint32(r.TrialIndex),
			r.FinalBalance,
			string(r.EndState),
			uint32(r.SimulationDays),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByRunID retrieves a run's trials ordered by trial_index ASC.
func (s *TrialResultStore) GetByRunID(ctx context.Context, runID string) ([]domain.TrialResult, error) {
	query := `
		SELECT trial_index, final_balance, end_state, simulation_days
		FROM trial_results
		WHERE run_id = ?
		ORDER BY trial_index ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query trial results: %w", err)
	}
	defer rows.Close()

	var results []domain.TrialResult
	for rows.Next() {
		var (
			index, days uint32
			balance     float64
			state       string
		)
		if err := rows.Scan(&index, &balance, &state, &days); err != nil {
			return nil, fmt.Errorf("scan trial result: %w", err)
		}
		results = append(results, domain.TrialResult{
			TrialIndex:     int(index),
			FinalBalance:   balance,
			EndState:       domain.EndState(state),
			SimulationDays: int(days),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trial results: %w", err)
	}

	return results, nil
}

// CountByEndState returns per-state trial counts for a run.
func (s *TrialResultStore) CountByEndState(ctx context.Context, runID string) (map[domain.EndState]int, error) {
	query := `
		SELECT end_state, count()
		FROM trial_results
		WHERE run_id = ?
		GROUP BY end_state
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("count trial results: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.EndState]int)
	for rows.Next() {
		var (
			state string
			n     uint64
		)
		if err := rows.Scan(&state, &n); err != nil {
			return nil, fmt.Errorf("scan end state count: %w", err)
		}
		counts[domain.EndState(state)] = int(n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate end state counts: %w", err)
	}
	return counts, nil
}

func (s *TrialResultStore) exists(ctx context.Context, runID string) (bool, error) {
	var n uint64
	row := s.conn.QueryRow(ctx, `SELECT count() FROM trial_results WHERE run_id = ?`, runID)
	if err := row.Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}
