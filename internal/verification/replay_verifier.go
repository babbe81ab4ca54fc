package verification

import (
	"context"
	"errors"
	"fmt"

	"prop-simulator/internal/domain"
	"prop-simulator/internal/orchestrator"
	"prop-simulator/internal/storage"
)

var (
	// ErrRunNotFound is returned when run ID doesn't exist.
	ErrRunNotFound = errors.New("run not found")

	// ErrNotReplayable is returned for runs whose uploaded trade data was not retained.
	ErrNotReplayable = errors.New("run trade data was not retained")
)

// Simulator replays a run config. It must not consult caches or stores,
// otherwise the stored run would be returned instead of being recomputed.
type Simulator interface {
	Run(ctx context.Context, cfg domain.SimulationConfig) (*orchestrator.Result, error)
}

// ReplayVerifier re-executes stored runs and compares them to what was stored.
type ReplayVerifier struct {
	runStore   storage.RunStore
	trialStore storage.TrialResultStore // optional
	sim        Simulator
}

// ReplayVerifierOptions contains configuration for creating a ReplayVerifier.
type ReplayVerifierOptions struct {
	RunStore         storage.RunStore
	TrialResultStore storage.TrialResultStore
	Simulator        Simulator // nil = store-less orchestrator
}

// NewReplayVerifier creates a new ReplayVerifier.
func NewReplayVerifier(opts ReplayVerifierOptions) *ReplayVerifier {
	sim := opts.Simulator
	if sim == nil {
		sim = orchestrator.New(orchestrator.Options{})
	}
	return &ReplayVerifier{
		runStore:   opts.RunStore,
		trialStore: opts.TrialResultStore,
		sim:        sim,
	}
}

// VerifyRun verifies a single run by ID.
func (v *ReplayVerifier) VerifyRun(ctx context.Context, runID string) (*VerificationResult, error) {
	// 1. Load stored run
	stored, err := v.runStore.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	if !replayable(stored.Config) {
		return nil, ErrNotReplayable
	}

	// 2. Replay with the recorded config, seed included
	res, err := v.sim.Run(ctx, stored.Config)
	if err != nil {
		return nil, fmt.Errorf("replay run %s: %w", runID, err)
	}
	replayed := res.Run

	// 3. Compare
	var divergences []FieldDivergence
	if stored.RunID != replayed.RunID {
		divergences = append(divergences, FieldDivergence{"RunID", stored.RunID, replayed.RunID})
	}
	divergences = append(divergences, CompareSummaries(&stored.Summary, &replayed.Summary)...)

	result := &VerificationResult{RunID: runID}
	if v.trialStore != nil {
		trials, err := v.trialStore.GetByRunID(ctx, runID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		if len(trials) > 0 {
			divergences = append(divergences, CompareTrials(trials, res.Trials)...)
			result.TrialsCompared = len(trials)
		}
	}

	result.Divergences = divergences
	result.Match = len(divergences) == 0
	return result, nil
}

// VerifyRecent verifies up to limit of the most recent runs. Runs that
// cannot be replayed are counted as skipped; other failures are recorded
// as divergences.
func (v *ReplayVerifier) VerifyRecent(ctx context.Context, limit int) (*VerificationReport, error) {
	runs, err := v.runStore.List(ctx, limit)
	if err != nil {
		return nil, err
	}

	report := &VerificationReport{
		TotalRuns: len(runs),
		Results:   make([]VerificationResult, 0, len(runs)),
	}

	for _, run := range runs {
		result, err := v.VerifyRun(ctx, run.RunID)
		switch {
		case errors.Is(err, ErrNotReplayable):
			report.SkippedRuns++
			continue
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			report.Results = append(report.Results, VerificationResult{
				RunID:       run.RunID,
				Divergences: []FieldDivergence{{Field: "Error", Expected: nil, Actual: err.Error()}},
			})
			report.DivergentRuns++
			continue
		}

		report.Results = append(report.Results, *result)
		if result.Match {
			report.MatchedRuns++
		} else {
			report.DivergentRuns++
		}
	}

	return report, nil
}

// replayable reports whether a stored config still identifies its trades.
// Inline CSV data is stripped before persisting, so only synthetic and
// file-backed runs can be replayed.
func replayable(cfg domain.SimulationConfig) bool {
	return cfg.CSVFile != "" || (cfg.StopLoss != nil && cfg.TakeProfit != nil &&
		cfg.WinPercentage != nil && cfg.AvgTradesPerDay != nil)
}
