package reporting

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"prop-simulator/internal/domain"
	"prop-simulator/internal/metrics"
	"prop-simulator/internal/storage"
)

// Generator produces reports from stored runs.
type Generator struct {
	runStore   storage.RunStore
	aggregator *metrics.Aggregator
	now        func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(runStore storage.RunStore) *Generator {
	return &Generator{
		runStore: runStore,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// WithAggregator enables re-conditioning stored runs from their persisted trials.
func (g *Generator) WithAggregator(agg *metrics.Aggregator) *Generator {
	g.aggregator = agg
	return g
}

// Generate loads a run and builds its report. A non-empty condition
// re-aggregates the run's trials under that end-state filter, which
// requires an aggregator; the histogram is rebuilt to match.
func (g *Generator) Generate(ctx context.Context, runID, condition string) (*Report, error) {
	run, err := g.runStore.GetByID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}

	if condition != "" {
		if g.aggregator == nil {
			return nil, fmt.Errorf("re-conditioning run %s: no trial store configured", runID)
		}
		summary, err := g.aggregator.ComputeForRun(ctx, runID, condition)
		if err != nil {
			return nil, fmt.Errorf("aggregate run %s: %w", runID, err)
		}
		run.Summary = *summary
		run.Config.ConditionEndState = summary.ConditionEndState
		if run.Config.Histogram {
			run.Histogram = Histogram(summary.FinalBalances, DefaultHistogramBins)
		}
	}

	return g.FromRun(run), nil
}

// FromRun builds a report from an in-memory run.
func (g *Generator) FromRun(run *domain.SimulationRun) *Report {
	r := &Report{
		GeneratedAt:       g.now(),
		RunID:             run.RunID,
		CreatedAt:         run.CreatedAt,
		Parameters:        parameterRows(run.Config),
		ConditionEndState: run.Summary.ConditionEndState,
		Population:        run.Summary.Population,
		Conditioned:       run.Summary.Conditioned,
		Histogram:         run.Histogram,
		Warnings:          run.Summary.Warnings,
	}

	for _, s := range domain.AllEndStates {
		r.EndStates = append(r.EndStates, EndStateRow{
			State: s,
			Count: run.Summary.EndStateCounts[s],
			Rate:  run.Summary.EndStateRates[s],
		})
	}

	return r
}

// parameterRows lists the config fields that influence results.
func parameterRows(c domain.SimulationConfig) []ParameterRow {
	rows := []ParameterRow{
		{"account_type", c.AccountType},
		{"iterations", strconv.Itoa(c.Iterations)},
		{"max_simulation_days", strconv.Itoa(c.MaxSimulationDays)},
		{"max_payouts", strconv.Itoa(c.MaxPayouts)},
		{"multiplier", formatFloat(c.Multiplier)},
		{"round_trip_cost", formatFloat(c.RoundTripCost)},
	}

	if c.MaxTradesPerDay != nil {
		rows = append(rows, ParameterRow{"max_trades_per_day", strconv.Itoa(*c.MaxTradesPerDay)})
	}
	if c.DailyProfitTarget != nil {
		rows = append(rows, ParameterRow{"daily_profit_target", formatFloat(*c.DailyProfitTarget)})
	}
	if c.DailyStopLoss != nil {
		rows = append(rows, ParameterRow{"daily_stop_loss", formatFloat(*c.DailyStopLoss)})
	}

	switch {
	case c.CSVFile != "":
		rows = append(rows, ParameterRow{"trade_source", c.CSVFile})
	case c.UsesSyntheticTrades():
		rows = append(rows, ParameterRow{"trade_source", "synthetic"})
		rows = appendOptional(rows, "avg_trades_per_day", c.AvgTradesPerDay)
		rows = appendOptional(rows, "stop_loss", c.StopLoss)
		rows = appendOptional(rows, "take_profit", c.TakeProfit)
		rows = appendOptional(rows, "win_percentage", c.WinPercentage)
	default:
		rows = append(rows, ParameterRow{"trade_source", "uploaded csv"})
	}

	if c.Seed != 0 {
		rows = append(rows, ParameterRow{"seed", strconv.FormatUint(c.Seed, 10)})
	}
	return rows
}

func appendOptional(rows []ParameterRow, name string, v *float64) []ParameterRow {
	if v == nil {
		return rows
	}
	return append(rows, ParameterRow{name, formatFloat(*v)})
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
