package metrics

import (
	"context"
	"errors"
	"fmt"

	"prop-simulator/internal/domain"
	"prop-simulator/internal/storage"
)

// ErrNoTrials is returned when the end-state condition selects no trials.
var ErrNoTrials = errors.New("no trials available for aggregation")

// Aggregate reduces trial results to a summary. condition is "all" or an
// end state name; an unknown condition falls back to "all" with a warning.
// Returns ErrNoTrials if the condition selects nothing.
func Aggregate(results []domain.TrialResult, condition string) (*domain.SimulationSummary, error) {
	if len(results) == 0 {
		return nil, ErrNoTrials
	}

	summary := &domain.SimulationSummary{
		Iterations:        len(results),
		EndStateCounts:    make(map[domain.EndState]int, len(domain.AllEndStates)),
		EndStateRates:     make(map[domain.EndState]float64, len(domain.AllEndStates)),
		ConditionEndState: domain.EndStateFilterAll,
	}

	filter, warning := domain.ParseEndStateFilter(condition)
	if warning != "" {
		summary.Warnings = append(summary.Warnings, warning)
	}

	grouped := make(map[domain.EndState][]domain.TrialResult, len(domain.AllEndStates))
	for _, r := range results {
		grouped[r.EndState] = append(grouped[r.EndState], r)
	}
	for _, s := range domain.AllEndStates {
		summary.EndStateCounts[s] = len(grouped[s])
		summary.EndStateRates[s] = computeRate(len(grouped[s]), len(results))
	}

	conditioned := results
	if filter != nil {
		conditioned = grouped[*filter]
		summary.ConditionEndState = string(*filter)
	}
	if len(conditioned) == 0 {
		return nil, fmt.Errorf("%w: condition %s", ErrNoTrials, summary.ConditionEndState)
	}

	summary.Population = computeDistribution(results)
	summary.Conditioned = computeDistribution(conditioned)

	summary.FinalBalances = make([]float64, len(conditioned))
	for i, r := range conditioned {
		summary.FinalBalances[i] = r.FinalBalance
	}

	return summary, nil
}

// Aggregator recomputes summaries from persisted trial results.
type Aggregator struct {
	trialStore storage.TrialResultStore
}

// NewAggregator creates a new metrics aggregator.
func NewAggregator(trialStore storage.TrialResultStore) *Aggregator {
	return &Aggregator{trialStore: trialStore}
}

// ComputeForRun loads a run's trials and aggregates them under condition.
// Propagates storage.ErrNotFound for unknown runs.
func (a *Aggregator) ComputeForRun(ctx context.Context, runID, condition string) (*domain.SimulationSummary, error) {
	results, err := a.trialStore.GetByRunID(ctx, runID)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, storage.ErrNotFound
	}
	return Aggregate(results, condition)
}
