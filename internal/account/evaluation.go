package account

import "prop-simulator/internal/domain"

// Evaluation family rule constants.
const (
	WinningDayAmount              = 200.0
	EvaluationConsistencyFraction = 0.5
	FundedAccountFee              = 149.0
	LifetimeWinningDaysFullPayout = 30
	WinningDaysHalfPayout         = 5
	// DepletionEpsilon is the balance at or below which a funded account is spent.
	DepletionEpsilon = 0.01
)

// EvaluationTier configures a two-phase combine-then-funded program.
type EvaluationTier struct {
	Name         string
	Cost         float64
	Drawdown     float64 // trailing distance
	ProfitTarget float64 // combine pass line; trailing freezes once the HWM reaches it
}

// EvaluationAccount is the state of an evaluation-family account.
type EvaluationAccount struct {
	tier EvaluationTier

	balance       float64
	hwm           float64
	lossThreshold float64

	passedEvaluation bool

	winningDaysSinceLastPayout int
	totalWinningDays           int
	maxWinningDayProfit        float64
	payoutCount                int
	simulationDays             int
}

// NewEvaluationAccount returns a fresh account in the combine phase.
func NewEvaluationAccount(tier EvaluationTier) *EvaluationAccount {
	return &EvaluationAccount{
		tier:          tier,
		lossThreshold: -tier.Drawdown,
	}
}

// ProcessTrade dispatches to the combine or funded rule set.
func (a *EvaluationAccount) ProcessTrade(t domain.Trade) Outcome {
	if !a.passedEvaluation {
		return a.tradeOnCombine(t)
	}
	return a.tradeOnFunded(t)
}

// tradeOnCombine applies a trade before the evaluation is passed.
// Reaching the profit target, at settlement for winners or via the
// favorable excursion for losers, clamps the balance to the target.
func (a *EvaluationAccount) tradeOnCombine(t domain.Trade) Outcome {
	if t.IsWin() {
		if a.balance+t.MaxOppositeExcursion <= a.lossThreshold {
			a.balance += t.MaxOppositeExcursion
			return Outcome{Status: StatusBlown, Amount: t.MaxOppositeExcursion}
		}
		a.balance += t.ReturnValue
		if a.balance >= a.tier.ProfitTarget {
			return a.pass()
		}
		return Outcome{Status: StatusActive, Amount: t.ReturnValue}
	}

	if a.balance+t.ReturnValue <= a.lossThreshold {
		a.balance += t.ReturnValue
		return Outcome{Status: StatusBlown, Amount: t.ReturnValue}
	}
	if a.balance+t.MaxOppositeExcursion >= a.tier.ProfitTarget {
		return a.pass()
	}
	a.balance += t.ReturnValue
	return Outcome{Status: StatusActive, Amount: t.ReturnValue}
}

func (a *EvaluationAccount) pass() Outcome {
	a.balance = a.tier.ProfitTarget
	a.passedEvaluation = true
	return Outcome{Status: StatusPassedEvaluation}
}

// tradeOnFunded applies a trade in the funded phase.
func (a *EvaluationAccount) tradeOnFunded(t domain.Trade) Outcome {
	if t.IsWin() {
		if a.balance+t.MaxOppositeExcursion <= a.lossThreshold {
			a.balance += t.MaxOppositeExcursion
			return Outcome{Status: StatusBlown, Amount: t.MaxOppositeExcursion}
		}
		a.balance += t.ReturnValue
		return Outcome{Status: StatusActive, Amount: t.ReturnValue}
	}

	a.balance += t.ReturnValue
	if a.balance <= a.lossThreshold {
		return Outcome{Status: StatusBlown, Amount: t.ReturnValue}
	}
	return Outcome{Status: StatusActive, Amount: t.ReturnValue}
}

// UpdateEndOfDay trails the loss threshold and, once funded, counts winning days.
func (a *EvaluationAccount) UpdateEndOfDay(dailyPnL float64) {
	if a.hwm < a.tier.ProfitTarget && a.balance > a.hwm {
		a.lossThreshold = min(a.balance-a.tier.Drawdown, 0)
		a.hwm = a.balance
	}

	if !a.passedEvaluation {
		return
	}
	if dailyPnL >= WinningDayAmount {
		a.totalWinningDays++
		a.winningDaysSinceLastPayout++
	}
	if dailyPnL > a.maxWinningDayProfit {
		a.maxWinningDayProfit = dailyPnL
	}
}

// PassesConsistencyRule reports whether the best day is within 50% of balance.
// Informational only: funded payouts are gated by winning days alone.
func (a *EvaluationAccount) PassesConsistencyRule() bool {
	return a.maxWinningDayProfit <= EvaluationConsistencyFraction*a.balance
}

// AllowedWithdrawalAmount returns the payout available in the funded phase.
// Eligibility depends only on winning-day counts, not on PassesConsistencyRule.
func (a *EvaluationAccount) AllowedWithdrawalAmount() (float64, bool) {
	if !a.passedEvaluation || a.balance <= 0 {
		return 0, false
	}
	switch {
	case a.totalWinningDays >= LifetimeWinningDaysFullPayout:
		return a.balance, true
	case a.winningDaysSinceLastPayout >= WinningDaysHalfPayout:
		return a.balance * 0.5, true
	default:
		return 0, false
	}
}

// MakeWithdrawal pays out amount. A funded balance at or below
// DepletionEpsilon afterwards ends the trial.
func (a *EvaluationAccount) MakeWithdrawal(amount float64) WithdrawalResult {
	a.balance -= amount
	// Reset on every withdrawal; unconfirmed against the firm's rules.
	a.maxWinningDayProfit = 0
	a.winningDaysSinceLastPayout = 0
	a.payoutCount++
	return WithdrawalResult{
		PayoutCount: a.payoutCount,
		Depleted:    a.balance <= DepletionEpsilon,
	}
}

func (a *EvaluationAccount) CurrentBalance() float64    { return a.balance }
func (a *EvaluationAccount) SimulationDays() int        { return a.simulationDays }
func (a *EvaluationAccount) IncrementSimulationDay()    { a.simulationDays++ }
func (a *EvaluationAccount) Cost() float64              { return a.tier.Cost }
func (a *EvaluationAccount) FundedAccountCost() float64 { return FundedAccountFee }

// PassedEvaluation reports whether the combine phase is complete.
func (a *EvaluationAccount) PassedEvaluation() bool { return a.passedEvaluation }

// LossThreshold returns the live blow-out line.
func (a *EvaluationAccount) LossThreshold() float64 { return a.lossThreshold }

// WinningDays returns (since last payout, lifetime) winning-day counts.
func (a *EvaluationAccount) WinningDays() (int, int) {
	return a.winningDaysSinceLastPayout, a.totalWinningDays
}

var _ PropAccount = (*EvaluationAccount)(nil)
