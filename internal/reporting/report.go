package reporting

import (
	"time"

	"prop-simulator/internal/domain"
)

// Report is the rendered view of one simulation run.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	RunID       string
	CreatedAt   time.Time

	// Parameters as configured
	Parameters []ParameterRow

	// Outcome breakdown over the whole population, in domain.AllEndStates order
	EndStates []EndStateRow

	// Distribution of the whole population and of the conditioned subset
	ConditionEndState string
	Population        domain.DistributionStats
	Conditioned       domain.DistributionStats

	// Histogram of conditioned final balances, empty when not requested
	Histogram []domain.HistogramBin

	Warnings []string
}

// ParameterRow is one configuration key/value pair.
type ParameterRow struct {
	Name  string
	Value string
}

// EndStateRow is the count and fraction of trials ending in State.
type EndStateRow struct {
	State domain.EndState
	Count int
	Rate  float64 // fraction of all trials
}
