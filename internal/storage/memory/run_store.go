package memory

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"

	"prop-simulator/internal/domain"
	"prop-simulator/internal/storage"
)

// RunStore is an in-memory implementation of storage.RunStore.
type RunStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SimulationRun // keyed by run_id
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		data: make(map[string]*domain.SimulationRun),
	}
}

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(_ context.Context, run *domain.SimulationRun) error {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[run.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[run.RunID] = cloneRun(run)
	return nil
}

// GetByID retrieves a run by ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(_ context.Context, runID string) (*domain.SimulationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return cloneRun(run), nil
}

// List returns runs ordered by created_at DESC, run_id ASC.
func (s *RunStore) List(_ context.Context, limit int) ([]*domain.SimulationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.SimulationRun, 0, len(s.data))
	for _, run := range s.data {
		result = append(result, cloneRun(run))
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].RunID < result[j].RunID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// cloneRun copies a run so callers never share maps or slices with the store.
func cloneRun(run *domain.SimulationRun) *domain.SimulationRun {
	c := *run
	c.Summary.EndStateCounts = maps.Clone(run.Summary.EndStateCounts)
	c.Summary.EndStateRates = maps.Clone(run.Summary.EndStateRates)
	c.Summary.FinalBalances = slices.Clone(run.Summary.FinalBalances)
	c.Summary.Warnings = slices.Clone(run.Summary.Warnings)
	c.Histogram = slices.Clone(run.Histogram)
	return &c
}

// Ensure RunStore implements storage.RunStore
var _ storage.RunStore = (*RunStore)(nil)
