package account

import "prop-simulator/internal/domain"

// Drawdown family rule constants.
const (
	DrawdownConsistencyFraction = 0.2
	MinTradingDaysToWithdraw    = 10
	firstPayoutCapCount         = 8
)

// DrawdownTier configures a single-phase trailing-drawdown program.
type DrawdownTier struct {
	Name string
	Cost float64

	// Drawdown is both the trailing distance and the balance at which trailing freezes.
	Drawdown float64

	PayoutCapFirst8 float64 // payouts 1-8
	PayoutCapLater  float64 // payouts 9+

	// A day qualifies when P&L > QualifyingWin or P&L < QualifyingLoss.
	QualifyingLoss float64
	QualifyingWin  float64

	MinBalanceFirstPayout     float64
	MinBalanceLaterPayouts    float64
	MinBalanceAfterWithdrawal float64
}

// DrawdownAccount is the state of a drawdown-family account.
type DrawdownAccount struct {
	tier DrawdownTier

	balance       float64
	hwm           float64
	lossThreshold float64 // blown when balance crosses below; never above zero

	payoutCount         int
	maxWinningDayProfit float64 // since last withdrawal, for the consistency rule
	tradingDays         int     // qualifying days since last withdrawal
	simulationDays      int
}

// NewDrawdownAccount returns a fresh account for the tier.
func NewDrawdownAccount(tier DrawdownTier) *DrawdownAccount {
	return &DrawdownAccount{
		tier:          tier,
		lossThreshold: -tier.Drawdown,
	}
}

// ProcessTrade applies a trade. A winner is checked against its adverse
// excursion first: if the excursion crosses the loss threshold the account
// is blown at the excursion, even though the trade settled positive.
func (a *DrawdownAccount) ProcessTrade(t domain.Trade) Outcome {
	if t.IsWin() {
		if a.balance+t.MaxOppositeExcursion < a.lossThreshold {
			a.balance += t.MaxOppositeExcursion
			return Outcome{Status: StatusBlown, Amount: t.MaxOppositeExcursion}
		}
		a.balance += t.ReturnValue
		return Outcome{Status: StatusActive, Amount: t.ReturnValue}
	}

	a.balance += t.ReturnValue
	if a.balance < a.lossThreshold {
		return Outcome{Status: StatusBlown, Amount: t.ReturnValue}
	}
	return Outcome{Status: StatusActive, Amount: t.ReturnValue}
}

// UpdateEndOfDay trails the loss threshold and counts qualifying days.
func (a *DrawdownAccount) UpdateEndOfDay(dailyPnL float64) {
	a.updateLossThreshold()

	if dailyPnL > a.tier.QualifyingWin || dailyPnL < a.tier.QualifyingLoss {
		a.tradingDays++
	}
	if dailyPnL > a.maxWinningDayProfit {
		a.maxWinningDayProfit = dailyPnL
	}
}

// updateLossThreshold trails the EOD high-water mark until it reaches the drawdown.
func (a *DrawdownAccount) updateLossThreshold() {
	if a.hwm >= a.tier.Drawdown {
		return
	}
	if a.balance > a.hwm {
		a.lossThreshold = min(a.balance-a.tier.Drawdown, 0)
		a.hwm = a.balance
	}
}

// PassesConsistencyRule reports whether the best day is within 20% of balance.
func (a *DrawdownAccount) PassesConsistencyRule() bool {
	return a.maxWinningDayProfit <= DrawdownConsistencyFraction*a.balance
}

// AllowedWithdrawalAmount returns the capped payout when all rules pass.
func (a *DrawdownAccount) AllowedWithdrawalAmount() (float64, bool) {
	if a.tradingDays < MinTradingDaysToWithdraw {
		return 0, false
	}

	minBalance := a.tier.MinBalanceLaterPayouts
	if a.payoutCount == 0 {
		minBalance = a.tier.MinBalanceFirstPayout
	}
	if a.balance < minBalance || !a.PassesConsistencyRule() {
		return 0, false
	}

	payoutCap := a.tier.PayoutCapFirst8
	if a.payoutCount+1 > firstPayoutCapCount {
		payoutCap = a.tier.PayoutCapLater
	}
	return min(payoutCap, a.balance-a.tier.MinBalanceAfterWithdrawal), true
}

// MakeWithdrawal pays out amount and resets the per-payout trackers.
func (a *DrawdownAccount) MakeWithdrawal(amount float64) WithdrawalResult {
	a.balance -= amount
	// Reset on every withdrawal; whether the firm resets only on some
	// payouts is unconfirmed.
	a.maxWinningDayProfit = 0
	a.tradingDays = 0
	a.payoutCount++
	return WithdrawalResult{PayoutCount: a.payoutCount}
}

func (a *DrawdownAccount) CurrentBalance() float64    { return a.balance }
func (a *DrawdownAccount) SimulationDays() int        { return a.simulationDays }
func (a *DrawdownAccount) IncrementSimulationDay()    { a.simulationDays++ }
func (a *DrawdownAccount) Cost() float64              { return a.tier.Cost }
func (a *DrawdownAccount) FundedAccountCost() float64 { return 0 }

// LossThreshold returns the live blow-out line.
func (a *DrawdownAccount) LossThreshold() float64 { return a.lossThreshold }

// TradingDays returns qualifying days since the last withdrawal.
func (a *DrawdownAccount) TradingDays() int { return a.tradingDays }

// PayoutCount returns the number of withdrawals made.
func (a *DrawdownAccount) PayoutCount() int { return a.payoutCount }

var _ PropAccount = (*DrawdownAccount)(nil)
