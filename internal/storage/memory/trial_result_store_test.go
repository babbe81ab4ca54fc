package memory

import (
	"context"
	"errors"
	"testing"

	"prop-simulator/internal/domain"
	"prop-simulator/internal/storage"
)

func TestTrialResultStore_InsertBulkAndGet(t *testing.T) {
	store := NewTrialResultStore()
	ctx := context.Background()

	results := []domain.TrialResult{
		{TrialIndex: 2, FinalBalance: 100, EndState: domain.EndStateTimedOut, SimulationDays: 365},
		{TrialIndex: 0, FinalBalance: -599, EndState: domain.EndStateBusted, SimulationDays: 10},
		{TrialIndex: 1, FinalBalance: 2401, EndState: domain.EndStateMaxPayouts, SimulationDays: 90},
	}
	if err := store.InsertBulk(ctx, "run-1", results); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByRunID(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 trials, got %d", len(got))
	}
	for i, r := range got {
		if r.TrialIndex != i {
			t.Errorf("expected trial_index %d at position %d, got %d", i, i, r.TrialIndex)
		}
	}
}

func TestTrialResultStore_DuplicateRun(t *testing.T) {
	store := NewTrialResultStore()
	ctx := context.Background()
	results := []domain.TrialResult{{TrialIndex: 0, EndState: domain.EndStateBusted}}

	if err := store.InsertBulk(ctx, "run-1", results); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
	if err := store.InsertBulk(ctx, "run-1", results); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestTrialResultStore_IntraBatchDuplicate(t *testing.T) {
	store := NewTrialResultStore()
	results := []domain.TrialResult{{TrialIndex: 0}, {TrialIndex: 0}}

	err := store.InsertBulk(context.Background(), "run-1", results)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestTrialResultStore_UnknownRunIsEmpty(t *testing.T) {
	got, err := NewTrialResultStore().GetByRunID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no trials, got %d", len(got))
	}
}
