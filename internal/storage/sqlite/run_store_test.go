package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prop-simulator/internal/domain"
	"prop-simulator/internal/storage"
	"prop-simulator/internal/storage/migrations"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()

	db, err := Open(ctx, filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.RunSqliteMigrations(ctx, db.DB))
	return db
}

func ptr[T any](v T) *T {
	return &v
}

func makeRun(id string, createdAt time.Time) *domain.SimulationRun {
	return &domain.SimulationRun{
		RunID:     id,
		CreatedAt: createdAt,
		Config: domain.SimulationConfig{
			Iterations:        500,
			DailyProfitTarget: ptr(1000.0),
			MaxSimulationDays: 200,
			MaxPayouts:        6,
			AccountType:       "topstep:fifty",
			Multiplier:        2,
			ConditionEndState: "all",
		},
		Summary: domain.SimulationSummary{
			Iterations:        500,
			EndStateCounts:    map[domain.EndState]int{domain.EndStateBusted: 500},
			EndStateRates:     map[domain.EndState]float64{domain.EndStateBusted: 1},
			ConditionEndState: "all",
			Population:        domain.DistributionStats{Count: 500, MeanBalance: -198, MedianBalance: -198},
			Conditioned:       domain.DistributionStats{Count: 500, MeanBalance: -198, MedianBalance: -198},
		},
	}
}

func TestRunStore_InsertAndGetByID(t *testing.T) {
	store := NewRunStore(setupTestDB(t))
	ctx := context.Background()
	run := makeRun("run-001", time.Date(2024, 6, 1, 12, 0, 0, 500, time.UTC))
	run.Histogram = []domain.HistogramBin{{Lower: -198, Upper: -100, Count: 500, Percent: 100}}

	require.NoError(t, store.Insert(ctx, run))

	got, err := store.GetByID(ctx, "run-001")
	require.NoError(t, err)
	assert.True(t, run.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, run.Config, got.Config)
	assert.Equal(t, run.Summary.EndStateRates, got.Summary.EndStateRates)
	assert.Equal(t, run.Summary.Conditioned, got.Summary.Conditioned)
	assert.Equal(t, run.Histogram, got.Histogram)
}

func TestRunStore_NilHistogram(t *testing.T) {
	store := NewRunStore(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, makeRun("run-nohist", time.Now().UTC())))

	got, err := store.GetByID(ctx, "run-nohist")
	require.NoError(t, err)
	assert.Nil(t, got.Histogram)
}

func TestRunStore_DuplicateKey(t *testing.T) {
	store := NewRunStore(setupTestDB(t))
	ctx := context.Background()
	run := makeRun("run-dup", time.Now().UTC())

	require.NoError(t, store.Insert(ctx, run))
	assert.ErrorIs(t, store.Insert(ctx, run), storage.ErrDuplicateKey)
}

func TestRunStore_InvalidInput(t *testing.T) {
	store := NewRunStore(setupTestDB(t))
	assert.ErrorIs(t, store.Insert(context.Background(), nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Insert(context.Background(), makeRun("", time.Now())), storage.ErrInvalidInput)
}

func TestRunStore_NotFound(t *testing.T) {
	_, err := NewRunStore(setupTestDB(t)).GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRunStore_List(t *testing.T) {
	store := NewRunStore(setupTestDB(t))
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	// Sub-second offsets check that text ordering stays chronological.
	offsets := map[string]time.Duration{
		"r1": 0,
		"r2": 500 * time.Millisecond,
		"r3": time.Second,
	}
	for id, off := range offsets {
		require.NoError(t, store.Insert(ctx, makeRun(id, base.Add(off))))
	}

	runs, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "r3", runs[0].RunID)
	assert.Equal(t, "r2", runs[1].RunID)

	all, err := store.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRunSqliteMigrations_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	assert.NoError(t, migrations.RunSqliteMigrations(context.Background(), db.DB))
}
