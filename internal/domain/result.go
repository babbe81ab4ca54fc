package domain

import "time"

// TrialResult is the outcome of one independent trial.
type TrialResult struct {
	TrialIndex     int      `json:"trial_index"`
	FinalBalance   float64  `json:"final_balance"`   // bank ledger at termination
	EndState       EndState `json:"end_state"`       // exactly one terminal state
	SimulationDays int      `json:"simulation_days"` // completed trading days
}

// DistributionStats summarizes final balances and trial lengths of a trial population.
type DistributionStats struct {
	Count               int     `json:"count"`
	MeanBalance         float64 `json:"mean_balance"`
	MedianBalance       float64 `json:"median_balance"`
	StdDev              float64 `json:"std_dev"`              // sample (n-1)
	MeanAbsDeviation    float64 `json:"mad"`                  // around the mean
	IQR                 float64 `json:"iqr"`                  // Q3 - Q1, median-of-halves
	MedianAbsDeviation  float64 `json:"mad_median"`           // around the median
	MeanDays            float64 `json:"mean_days"`
	PositiveBalanceRate float64 `json:"positive_balance_rate"` // fraction with final balance > 0
}

// SimulationSummary is the aggregator output for one run.
type SimulationSummary struct {
	Iterations     int                  `json:"iterations"`
	EndStateCounts map[EndState]int     `json:"end_state_counts"`
	EndStateRates  map[EndState]float64 `json:"end_state_rates"` // fraction of all trials

	// ConditionEndState is the applied filter: "all" or an EndState value.
	ConditionEndState string            `json:"condition_end_state"`
	Population        DistributionStats `json:"population"`
	Conditioned       DistributionStats `json:"conditioned"`

	// FinalBalances holds the filtered final balances for downstream plotting.
	FinalBalances []float64 `json:"-"`

	Warnings []string `json:"warnings,omitempty"`
}

// HistogramBin is one bar of a final-balance histogram.
type HistogramBin struct {
	Lower   float64 `json:"lower"`
	Upper   float64 `json:"upper"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// SimulationRun is a completed, identifiable run.
type SimulationRun struct {
	RunID     string            `json:"run_id"`
	CreatedAt time.Time         `json:"created_at"`
	Config    SimulationConfig  `json:"config"`
	Summary   SimulationSummary `json:"summary"`
	Histogram []HistogramBin    `json:"histogram,omitempty"`
}
