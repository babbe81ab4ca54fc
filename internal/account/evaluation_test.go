package account

import (
	"testing"

	"prop-simulator/internal/domain"
)

func newFifty() *EvaluationAccount {
	return NewEvaluationAccount(EvaluationTiers["fifty"])
}

func TestEvaluationAccount_PassOnWinningTradeClampsToTarget(t *testing.T) {
	a := newFifty()

	out := a.ProcessTrade(domain.Trade{ReturnValue: 2500, MaxOppositeExcursion: -100})
	if out.Status != StatusActive {
		t.Fatalf("expected ACTIVE, got %s", out.Status)
	}

	out = a.ProcessTrade(domain.Trade{ReturnValue: 1000, MaxOppositeExcursion: -50})
	if out.Status != StatusPassedEvaluation {
		t.Fatalf("expected PASSED_EVALUATION, got %s", out.Status)
	}
	if a.CurrentBalance() != 3000 {
		t.Errorf("expected balance clamped to 3000, got %f", a.CurrentBalance())
	}
	if !a.PassedEvaluation() {
		t.Error("expected passed flag set")
	}
}

func TestEvaluationAccount_PassOnLosingTradeExcursion(t *testing.T) {
	a := newFifty()
	a.ProcessTrade(domain.Trade{ReturnValue: 2800})

	// Favorable excursion touches the target before the trade closes red.
	out := a.ProcessTrade(domain.Trade{ReturnValue: -100, MaxOppositeExcursion: 250})

	if out.Status != StatusPassedEvaluation {
		t.Fatalf("expected PASSED_EVALUATION, got %s", out.Status)
	}
	if a.CurrentBalance() != 3000 {
		t.Errorf("expected balance 3000, got %f", a.CurrentBalance())
	}
}

func TestEvaluationAccount_PassesOnlyOnce(t *testing.T) {
	a := newFifty()

	passes := 0
	for range 10 {
		out := a.ProcessTrade(domain.Trade{ReturnValue: 1500, MaxOppositeExcursion: -10})
		if out.Status == StatusPassedEvaluation {
			passes++
		}
	}

	if passes != 1 {
		t.Errorf("expected exactly one pass, got %d", passes)
	}
	// Funded phase keeps accumulating above the target.
	if a.CurrentBalance() <= 3000 {
		t.Errorf("expected funded balance above target, got %f", a.CurrentBalance())
	}
}

func TestEvaluationAccount_InclusiveBreach(t *testing.T) {
	a := newFifty()

	out := a.ProcessTrade(domain.Trade{ReturnValue: -2000, MaxOppositeExcursion: 10})

	if out.Status != StatusBlown {
		t.Fatalf("expected BLOWN at threshold, got %s", out.Status)
	}
	if out.Amount != -2000 {
		t.Errorf("expected amount -2000, got %f", out.Amount)
	}
}

func TestEvaluationAccount_WinnerBlownByExcursion(t *testing.T) {
	a := newFifty()

	out := a.ProcessTrade(domain.Trade{ReturnValue: 400, MaxOppositeExcursion: -2000})

	if out.Status != StatusBlown || out.Amount != -2000 {
		t.Fatalf("expected BLOWN -2000, got %s %f", out.Status, out.Amount)
	}
}

func TestEvaluationAccount_FundedBreach(t *testing.T) {
	a := newFifty()
	a.ProcessTrade(domain.Trade{ReturnValue: 3000})
	a.UpdateEndOfDay(0)

	// HWM reached target: threshold frozen at min(3000-2000, 0) = 0.
	if a.LossThreshold() != 0 {
		t.Fatalf("expected threshold 0, got %f", a.LossThreshold())
	}

	out := a.ProcessTrade(domain.Trade{ReturnValue: -3000})
	if out.Status != StatusBlown {
		t.Errorf("expected BLOWN, got %s", out.Status)
	}
}

func TestEvaluationAccount_WinningDaysOnlyWhenFunded(t *testing.T) {
	a := newFifty()

	runDays(a, 250, 250)
	since, total := a.WinningDays()
	if since != 0 || total != 0 {
		t.Fatalf("expected no winning days in combine, got %d/%d", since, total)
	}

	a.ProcessTrade(domain.Trade{ReturnValue: 3000})
	if !a.PassedEvaluation() {
		t.Fatal("setup: expected evaluation passed")
	}

	runDays(a, 200, 199, 500)
	since, total = a.WinningDays()
	if since != 2 || total != 2 {
		t.Errorf("expected 2/2 winning days, got %d/%d", since, total)
	}
}

func TestEvaluationAccount_NoWithdrawalInCombine(t *testing.T) {
	a := newFifty()
	a.balance = 2500
	a.winningDaysSinceLastPayout = 10
	a.totalWinningDays = 40

	if _, ok := a.AllowedWithdrawalAmount(); ok {
		t.Error("expected no withdrawal before passing")
	}
}

func TestEvaluationAccount_HalfPayout(t *testing.T) {
	a := newFifty()
	a.ProcessTrade(domain.Trade{ReturnValue: 3000})

	runDays(a, 250, 250, 250, 250, 250)

	amount, ok := a.AllowedWithdrawalAmount()
	if !ok {
		t.Fatal("expected half payout")
	}
	if amount != 2125 {
		t.Errorf("expected 2125, got %f", amount)
	}

	res := a.MakeWithdrawal(amount)
	if res.Depleted || res.PayoutCount != 1 {
		t.Errorf("unexpected result %+v", res)
	}
	since, total := a.WinningDays()
	if since != 0 || total != 5 {
		t.Errorf("expected 0/5 winning days after payout, got %d/%d", since, total)
	}
}

func TestEvaluationAccount_FullPayoutDepletes(t *testing.T) {
	a := newFifty()
	a.ProcessTrade(domain.Trade{ReturnValue: 3000})
	a.totalWinningDays = LifetimeWinningDaysFullPayout

	amount, ok := a.AllowedWithdrawalAmount()
	if !ok || amount != 3000 {
		t.Fatalf("expected full 3000, got %f (ok=%v)", amount, ok)
	}

	res := a.MakeWithdrawal(amount)
	if !res.Depleted {
		t.Error("expected account depleted")
	}
}

func TestEvaluationAccount_ConsistencyDoesNotGatePayout(t *testing.T) {
	a := newFifty()
	if out := a.ProcessTrade(domain.Trade{ReturnValue: 3000}); out.Status != StatusPassedEvaluation {
		t.Fatalf("expected PASSED_EVALUATION, got %s", out.Status)
	}
	// 3000 + 2000 - 1900 + 4*200 = 3900, best day 2000
	for _, pnl := range []float64{2000, -1900, 200, 200, 200, 200} {
		a.balance += pnl
		a.UpdateEndOfDay(pnl)
	}

	if a.PassesConsistencyRule() {
		t.Fatal("expected 2000 best day to exceed half of 3900")
	}
	amount, ok := a.AllowedWithdrawalAmount()
	if !ok {
		t.Fatal("expected half payout after 5 winning days")
	}
	if amount != 1950 {
		t.Errorf("expected 1950, got %f", amount)
	}
}

func TestEvaluationAccount_Costs(t *testing.T) {
	a := NewEvaluationAccount(EvaluationTiers["onefifty"])

	if a.Cost() != 149 {
		t.Errorf("expected cost 149, got %f", a.Cost())
	}
	if a.FundedAccountCost() != FundedAccountFee {
		t.Errorf("expected funded fee %f, got %f", FundedAccountFee, a.FundedAccountCost())
	}
}
