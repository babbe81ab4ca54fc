package storage

import (
	"context"

	"prop-simulator/internal/domain"
)

// RunStore provides access to simulation_runs storage.
type RunStore interface {
	// Insert adds a completed run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, run *domain.SimulationRun) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.SimulationRun, error)

	// List returns up to limit runs, newest first. limit <= 0 means no limit.
	List(ctx context.Context, limit int) ([]*domain.SimulationRun, error)
}

// TrialResultStore provides access to trial_results storage.
type TrialResultStore interface {
	// InsertBulk adds all trials of a run atomically.
	// Returns ErrDuplicateKey if the run already has trials.
	InsertBulk(ctx context.Context, runID string, results []domain.TrialResult) error

	// GetByRunID retrieves a run's trials ordered by trial_index ASC.
	// Returns an empty slice for unknown runs.
	GetByRunID(ctx context.Context, runID string) ([]domain.TrialResult, error)
}
