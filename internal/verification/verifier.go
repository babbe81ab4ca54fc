// Package verification checks that stored runs are reproducible: a seeded
// run replayed from its recorded config must yield the same run ID, summary
// and per-trial results.
package verification

import (
	"fmt"
	"math"

	"prop-simulator/internal/domain"
)

// FloatTolerance is the tolerance for float64 comparisons.
const FloatTolerance = 1e-7

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string // field name, e.g. "Conditioned.MeanBalance" or "Trial[12].EndState"
	Expected any    // stored value
	Actual   any    // replayed value
}

// VerificationResult contains the result of verifying a single run.
type VerificationResult struct {
	RunID          string
	Match          bool
	Divergences    []FieldDivergence
	TrialsCompared int // 0 when no trial store is configured
}

// VerificationReport contains results for batch verification.
type VerificationReport struct {
	TotalRuns     int
	MatchedRuns   int
	DivergentRuns int
	SkippedRuns   int // runs whose trade data was not retained
	Results       []VerificationResult
}

// CompareSummaries compares two run summaries and returns divergences.
// Uses FloatTolerance for float64 comparisons.
func CompareSummaries(stored, replayed *domain.SimulationSummary) []FieldDivergence {
	var divergences []FieldDivergence

	if stored.Iterations != replayed.Iterations {
		divergences = append(divergences, FieldDivergence{"Iterations", stored.Iterations, replayed.Iterations})
	}
	if stored.ConditionEndState != replayed.ConditionEndState {
		divergences = append(divergences, FieldDivergence{"ConditionEndState", stored.ConditionEndState, replayed.ConditionEndState})
	}
	for _, s := range domain.AllEndStates {
		if stored.EndStateCounts[s] != replayed.EndStateCounts[s] {
			divergences = append(divergences, FieldDivergence{
				Field:    fmt.Sprintf("EndStateCounts[%s]", s),
				Expected: stored.EndStateCounts[s],
				Actual:   replayed.EndStateCounts[s],
			})
		}
	}

	divergences = append(divergences, compareDistribution("Population", stored.Population, replayed.Population)...)
	divergences = append(divergences, compareDistribution("Conditioned", stored.Conditioned, replayed.Conditioned)...)
	return divergences
}

func compareDistribution(prefix string, stored, replayed domain.DistributionStats) []FieldDivergence {
	var divergences []FieldDivergence

	if stored.Count != replayed.Count {
		divergences = append(divergences, FieldDivergence{prefix + ".Count", stored.Count, replayed.Count})
	}

	floats := []struct {
		name   string
		stored float64
		actual float64
	}{
		{"MeanBalance", stored.MeanBalance, replayed.MeanBalance},
		{"MedianBalance", stored.MedianBalance, replayed.MedianBalance},
		{"StdDev", stored.StdDev, replayed.StdDev},
		{"MeanAbsDeviation", stored.MeanAbsDeviation, replayed.MeanAbsDeviation},
		{"IQR", stored.IQR, replayed.IQR},
		{"MedianAbsDeviation", stored.MedianAbsDeviation, replayed.MedianAbsDeviation},
		{"MeanDays", stored.MeanDays, replayed.MeanDays},
		{"PositiveBalanceRate", stored.PositiveBalanceRate, replayed.PositiveBalanceRate},
	}
	for _, f := range floats {
		if !floatEquals(f.stored, f.actual) {
			divergences = append(divergences, FieldDivergence{prefix + "." + f.name, f.stored, f.actual})
		}
	}
	return divergences
}

// CompareTrials compares per-trial results index by index.
func CompareTrials(stored, replayed []domain.TrialResult) []FieldDivergence {
	var divergences []FieldDivergence

	if len(stored) != len(replayed) {
		divergences = append(divergences, FieldDivergence{"TrialCount", len(stored), len(replayed)})
	}

	n := min(len(stored), len(replayed))
	for i := 0; i < n; i++ {
		s, r := stored[i], replayed[i]
		field := func(name string) string { return fmt.Sprintf("Trial[%d].%s", s.TrialIndex, name) }

		if s.TrialIndex != r.TrialIndex {
			divergences = append(divergences, FieldDivergence{field("TrialIndex"), s.TrialIndex, r.TrialIndex})
			continue
		}
		if s.EndState != r.EndState {
			divergences = append(divergences, FieldDivergence{field("EndState"), s.EndState, r.EndState})
		}
		if s.SimulationDays != r.SimulationDays {
			divergences = append(divergences, FieldDivergence{field("SimulationDays"), s.SimulationDays, r.SimulationDays})
		}
		if !floatEquals(s.FinalBalance, r.FinalBalance) {
			divergences = append(divergences, FieldDivergence{field("FinalBalance"), s.FinalBalance, r.FinalBalance})
		}
	}
	return divergences
}

// floatEquals compares two float64 values within FloatTolerance.
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= FloatTolerance
}
