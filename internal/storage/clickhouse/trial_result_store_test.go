package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prop-simulator/internal/domain"
	"prop-simulator/internal/storage"
)

func sampleTrials() []domain.TrialResult {
	return []domain.TrialResult{
		{TrialIndex: 0, FinalBalance: -599, EndState: domain.EndStateBusted, SimulationDays: 25},
		{TrialIndex: 1, FinalBalance: 2401, EndState: domain.EndStateTimedOut, SimulationDays: 365},
		{TrialIndex: 2, FinalBalance: 35401, EndState: domain.EndStateMaxPayouts, SimulationDays: 210},
		{TrialIndex: 3, FinalBalance: -599, EndState: domain.EndStateBusted, SimulationDays: 7},
	}
}

func TestTrialResultStore_InsertBulkAndGet(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTrialResultStore(conn)
	ctx := context.Background()

	require.NoError(t, store.InsertBulk(ctx, "run-abc", sampleTrials()))

	got, err := store.GetByRunID(ctx, "run-abc")
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, sampleTrials(), got)

	other, err := store.GetByRunID(ctx, "run-other")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestTrialResultStore_DuplicateRun(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTrialResultStore(conn)
	ctx := context.Background()

	require.NoError(t, store.InsertBulk(ctx, "run-dup", sampleTrials()))

	err := store.InsertBulk(ctx, "run-dup", sampleTrials())
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestTrialResultStore_IntraBatchDuplicate(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTrialResultStore(conn)
	trials := append(sampleTrials(), domain.TrialResult{TrialIndex: 0})

	err := store.InsertBulk(context.Background(), "run-x", trials)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestTrialResultStore_CountByEndState(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTrialResultStore(conn)
	ctx := context.Background()
	require.NoError(t, store.InsertBulk(ctx, "run-counts", sampleTrials()))

	counts, err := store.CountByEndState(ctx, "run-counts")
	require.NoError(t, err)
	assert.Equal(t, 2, counts[domain.EndStateBusted])
	assert.Equal(t, 1, counts[domain.EndStateTimedOut])
	assert.Equal(t, 1, counts[domain.EndStateMaxPayouts])
}
