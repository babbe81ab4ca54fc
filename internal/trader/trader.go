// Package trader drives one simulated account through trading days.
package trader

import (
	"log"

	"prop-simulator/internal/account"
	"prop-simulator/internal/domain"
)

// Boundary records which daily limit a clipped trade landed on.
type Boundary int

// Daily limit boundaries
const (
	BoundaryNone Boundary = iota
	BoundaryStopHit
	BoundaryTargetHit
)

func (b Boundary) String() string {
	switch b {
	case BoundaryStopHit:
		return "STOP_HIT"
	case BoundaryTargetHit:
		return "TARGET_HIT"
	default:
		return "NONE"
	}
}

// Options configures a Trader.
type Options struct {
	MaxTradesPerDay   *int     // nil = unlimited
	DailyProfitTarget *float64 // positive when set
	DailyStopLoss     *float64 // negative when set
	MaxSimulationDays int
	MaxPayouts        int
	Logger            *log.Logger // day-level debug lines; nil = silent
}

// Trader owns the bank ledger and one account engine.
// The bank starts at minus the account cost and only the Trader moves it.
type Trader struct {
	account account.PropAccount
	opts    Options
	bank    float64
}

// New creates a Trader for a fresh account.
func New(acct account.PropAccount, opts Options) *Trader {
	return &Trader{
		account: acct,
		opts:    opts,
		bank:    -acct.Cost(),
	}
}

// Bank returns the cumulative real-money cash flow.
func (t *Trader) Bank() float64 { return t.bank }

// Account returns the underlying engine.
func (t *Trader) Account() account.PropAccount { return t.account }

// ClipTrade rewrites a trade so that cumulative daily P&L lands exactly on
// a daily stop or target it would otherwise cross. The input is never
// modified. The stop is checked before the target, and the settled return
// before the excursion.
func ClipTrade(tr domain.Trade, dailyPnL float64, stop, target *float64) (domain.Trade, Boundary) {
	if stop != nil {
		if tr.ReturnValue+dailyPnL <= *stop || tr.MaxOppositeExcursion+dailyPnL <= *stop {
			tr.ReturnValue = *stop - dailyPnL
			return tr, BoundaryStopHit
		}
	}

	if target != nil {
		if tr.ReturnValue+dailyPnL >= *target {
			tr.ReturnValue = *target - dailyPnL
			return tr, BoundaryTargetHit
		}
		if tr.MaxOppositeExcursion+dailyPnL >= *target {
			// Assume the trade went against us by its full loss first.
			tr.MaxOppositeExcursion = tr.ReturnValue
			tr.ReturnValue = *target - dailyPnL
			return tr, BoundaryTargetHit
		}
	}

	return tr, BoundaryNone
}

// TradeDay applies one day's trades in order and closes the day.
// It returns the terminal state and true when the trial has ended.
func (t *Trader) TradeDay(trades []domain.Trade) (domain.EndState, bool) {
	dailyPnL := 0.0
	taken := 0

	for _, tr := range trades {
		if t.opts.MaxTradesPerDay != nil && taken >= *t.opts.MaxTradesPerDay {
			t.logf("max trades per day reached: %d", *t.opts.MaxTradesPerDay)
			break
		}

		clipped, boundary := ClipTrade(tr, dailyPnL, t.opts.DailyStopLoss, t.opts.DailyProfitTarget)

		out := t.account.ProcessTrade(clipped)
		switch out.Status {
		case account.StatusBlown:
			t.logf("account blown: trade %.2f, daily pnl %.2f, trades %d", out.Amount, dailyPnL+out.Amount, taken+1)
			return domain.EndStateBusted, true
		case account.StatusPassedEvaluation:
			fee := t.account.FundedAccountCost()
			t.bank -= fee
			t.logf("evaluation passed: funded fee %.2f, bank %.2f", fee, t.bank)
		default:
			dailyPnL += out.Amount
		}

		if out.Status == account.StatusPassedEvaluation {
			break
		}
		if boundary != BoundaryNone {
			t.logf("daily limit %s with pnl %.2f", boundary, dailyPnL)
			break
		}
		taken++
	}

	return t.closeDay(dailyPnL, taken)
}

// closeDay runs end-of-day bookkeeping: trailing, counters, withdrawal, timeout.
func (t *Trader) closeDay(dailyPnL float64, taken int) (domain.EndState, bool) {
	t.account.UpdateEndOfDay(dailyPnL)
	t.account.IncrementSimulationDay()

	t.logf("end of day %d: pnl %.2f, trades %d, bank %.2f, account %.2f",
		t.account.SimulationDays(), dailyPnL, taken, t.bank, t.account.CurrentBalance())

	if amount, ok := t.account.AllowedWithdrawalAmount(); ok {
		res := t.account.MakeWithdrawal(amount)
		t.bank += amount
		t.logf("withdrawal %.2f (payout %d), bank %.2f", amount, res.PayoutCount, t.bank)

		if res.PayoutCount >= t.opts.MaxPayouts {
			return domain.EndStateMaxPayouts, true
		}
		if res.Depleted {
			return domain.EndStateBusted, true
		}
	}

	if t.account.SimulationDays() >= t.opts.MaxSimulationDays {
		return domain.EndStateTimedOut, true
	}
	return "", false
}

func (t *Trader) logf(format string, args ...any) {
	if t.opts.Logger != nil {
		t.opts.Logger.Printf(format, args...)
	}
}
