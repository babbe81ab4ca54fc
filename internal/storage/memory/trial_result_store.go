package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"prop-simulator/internal/domain"
	"prop-simulator/internal/storage"
)

// TrialResultStore is an in-memory implementation of storage.TrialResultStore.
type TrialResultStore struct {
	mu   sync.RWMutex
	data map[string][]domain.TrialResult // keyed by run_id
}

// NewTrialResultStore creates a new in-memory trial result store.
func NewTrialResultStore() *TrialResultStore {
	return &TrialResultStore{
		data: make(map[string][]domain.TrialResult),
	}
}

// InsertBulk stores all trials of a run. Returns ErrDuplicateKey if the run
// already has trials or the batch repeats a trial_index.
func (s *TrialResultStore) InsertBulk(_ context.Context, runID string, results []domain.TrialResult) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(results) == 0 {
		return nil
	}

	seen := make(map[int]struct{}, len(results))
	for _, r := range results {
		if _, dup := seen[r.TrialIndex]; dup {
			return storage.ErrDuplicateKey
		}
		seen[r.TrialIndex] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[runID]; exists {
		return storage.ErrDuplicateKey
	}

	stored := slices.Clone(results)
	sort.Slice(stored, func(i, j int) bool { return stored[i].TrialIndex < stored[j].TrialIndex })
	s.data[runID] = stored
	return nil
}

// GetByRunID returns trials ordered by trial_index ASC.
func (s *TrialResultStore) GetByRunID(_ context.Context, runID string) ([]domain.TrialResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.data[runID]), nil
}

// Ensure TrialResultStore implements storage.TrialResultStore
var _ storage.TrialResultStore = (*TrialResultStore)(nil)
