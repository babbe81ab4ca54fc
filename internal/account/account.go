// Package account implements prop-firm account rule engines.
// Each engine is a state machine over trades and trading days; the
// Trader drives it without knowing which program family it belongs to.
package account

import "prop-simulator/internal/domain"

// Status is the account state after a single trade.
type Status int

// Trade status values
const (
	StatusActive Status = iota
	StatusBlown
	StatusPassedEvaluation
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "ACTIVE"
	case StatusBlown:
		return "BLOWN"
	case StatusPassedEvaluation:
		return "PASSED_EVALUATION"
	default:
		return "UNKNOWN"
	}
}

// Outcome is the result of applying one trade.
// Amount is the balance change: the return for Active, the breaching
// value (return or excursion) for Blown, zero for PassedEvaluation.
type Outcome struct {
	Status Status
	Amount float64
}

// WithdrawalResult reports the account state after a payout.
type WithdrawalResult struct {
	PayoutCount int  // payouts made so far, including this one
	Depleted    bool // funded balance exhausted; the trial ends
}

// PropAccount is the capability contract shared by all account families.
type PropAccount interface {
	// ProcessTrade applies a trade and reports whether the account survived it.
	ProcessTrade(t domain.Trade) Outcome
	// UpdateEndOfDay refreshes the trailing threshold and day counters.
	UpdateEndOfDay(dailyPnL float64)
	// AllowedWithdrawalAmount returns the payout available now, if any.
	AllowedWithdrawalAmount() (float64, bool)
	// MakeWithdrawal removes amount from the account balance.
	MakeWithdrawal(amount float64) WithdrawalResult

	CurrentBalance() float64
	SimulationDays() int
	IncrementSimulationDay()
	// Cost is the purchase price of the account tier.
	Cost() float64
	// FundedAccountCost is the one-time fee charged on passing evaluation.
	FundedAccountCost() float64
}
