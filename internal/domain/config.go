package domain

import (
	"errors"
	"fmt"
)

// Configuration errors. All are reported before any trial runs.
var (
	ErrInvalidConfig         = errors.New("invalid simulation config")
	ErrNoIterations          = fmt.Errorf("%w: iterations must be positive", ErrInvalidConfig)
	ErrNoMaxSimulationDays   = fmt.Errorf("%w: max_simulation_days must be positive", ErrInvalidConfig)
	ErrNoMaxPayouts          = fmt.Errorf("%w: max_payouts must be positive", ErrInvalidConfig)
	ErrMaxTradesPerDay       = fmt.Errorf("%w: max_trades_per_day must be positive", ErrInvalidConfig)
	ErrProfitTargetSign      = fmt.Errorf("%w: daily_profit_target must be positive", ErrInvalidConfig)
	ErrStopLossSign          = fmt.Errorf("%w: daily_stop_loss must be negative", ErrInvalidConfig)
	ErrMissingAccountType    = fmt.Errorf("%w: account_type is required", ErrInvalidConfig)
	ErrMissingGeneratorParam = fmt.Errorf("%w: synthetic trades require stop_loss, take_profit, win_percentage and avg_trades_per_day", ErrInvalidConfig)
	ErrWinPercentageRange    = fmt.Errorf("%w: win_percentage must be within [0, 100]", ErrInvalidConfig)
	ErrInvalidMultiplier     = fmt.Errorf("%w: multiplier must be positive", ErrInvalidConfig)
)

// SimulationConfig is the full request for one Monte Carlo run.
// JSON field names match the request payload accepted by the server.
type SimulationConfig struct {
	// Trade source: CSVData wins over CSVFile; neither means synthetic generation.
	CSVFile string `json:"csv_file,omitempty"`
	CSVData string `json:"csv_data,omitempty"`

	Iterations        int      `json:"iterations"`
	MaxTradesPerDay   *int     `json:"max_trades_per_day,omitempty"`
	DailyProfitTarget *float64 `json:"daily_profit_target,omitempty"` // positive if set
	DailyStopLoss     *float64 `json:"daily_stop_loss,omitempty"`     // negative if set
	RoundTripCost     float64  `json:"round_trip_cost,omitempty"`

	// Synthetic generator parameters
	AvgTradesPerDay *float64 `json:"avg_trades_per_day,omitempty"`
	StopLoss        *float64 `json:"stop_loss,omitempty"`
	TakeProfit      *float64 `json:"take_profit,omitempty"`
	WinPercentage   *float64 `json:"win_percentage,omitempty"`

	MaxSimulationDays int     `json:"max_simulation_days"`
	MaxPayouts        int     `json:"max_payouts"`
	AccountType       string  `json:"account_type"` // "company:tier"
	Multiplier        float64 `json:"multiplier"`

	Histogram         bool   `json:"histogram,omitempty"`
	ConditionEndState string `json:"condition_end_state,omitempty"`

	// Seed makes runs reproducible when non-zero.
	Seed uint64 `json:"seed,omitempty"`
	// Workers bounds trial parallelism; zero means GOMAXPROCS.
	Workers int `json:"workers,omitempty"`
}

// WithDefaults returns a copy with zero-valued optional fields filled in.
func (c SimulationConfig) WithDefaults() SimulationConfig {
	if c.Multiplier == 0 {
		c.Multiplier = 1.0
	}
	if c.ConditionEndState == "" {
		c.ConditionEndState = EndStateFilterAll
	}
	return c
}

// UsesSyntheticTrades reports whether no trade data was supplied.
func (c *SimulationConfig) UsesSyntheticTrades() bool {
	return c.CSVData == "" && c.CSVFile == ""
}

// Validate checks parameters that do not depend on the account registry.
func (c *SimulationConfig) Validate() error {
	if c == nil {
		return ErrInvalidConfig
	}
	if c.Iterations <= 0 {
		return ErrNoIterations
	}
	if c.MaxSimulationDays <= 0 {
		return ErrNoMaxSimulationDays
	}
	if c.MaxPayouts <= 0 {
		return ErrNoMaxPayouts
	}
	if c.AccountType == "" {
		return ErrMissingAccountType
	}
	if c.Multiplier <= 0 {
		return ErrInvalidMultiplier
	}
	if c.MaxTradesPerDay != nil && *c.MaxTradesPerDay <= 0 {
		return ErrMaxTradesPerDay
	}
	if c.DailyProfitTarget != nil && *c.DailyProfitTarget <= 0 {
		return ErrProfitTargetSign
	}
	if c.DailyStopLoss != nil && *c.DailyStopLoss >= 0 {
		return ErrStopLossSign
	}

	if c.UsesSyntheticTrades() {
		if c.StopLoss == nil || c.TakeProfit == nil || c.WinPercentage == nil || c.AvgTradesPerDay == nil {
			return ErrMissingGeneratorParam
		}
		if *c.WinPercentage < 0 || *c.WinPercentage > 100 {
			return ErrWinPercentageRange
		}
	}

	return nil
}
