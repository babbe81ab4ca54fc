package trader

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prop-simulator/internal/account"
	"prop-simulator/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func mustAccount(t *testing.T, selector string) account.PropAccount {
	t.Helper()
	typ, err := account.ParseType(selector)
	require.NoError(t, err)
	acct, err := account.New(typ)
	require.NoError(t, err)
	return acct
}

func trades(returns ...float64) []domain.Trade {
	out := make([]domain.Trade, len(returns))
	for i, r := range returns {
		out[i] = domain.Trade{ReturnValue: r}
	}
	return out
}

func TestClipTrade_Cases(t *testing.T) {
	stop, target := ptr(-500.0), ptr(1000.0)

	tests := []struct {
		name     string
		in       domain.Trade
		pnl      float64
		want     domain.Trade
		boundary Boundary
	}{
		{
			name:     "no limit reached",
			in:       domain.Trade{ReturnValue: 100, MaxOppositeExcursion: -50},
			pnl:      0,
			want:     domain.Trade{ReturnValue: 100, MaxOppositeExcursion: -50},
			boundary: BoundaryNone,
		},
		{
			name:     "stop via return",
			in:       domain.Trade{ReturnValue: -400, MaxOppositeExcursion: 20},
			pnl:      -200,
			want:     domain.Trade{ReturnValue: -300, MaxOppositeExcursion: 20},
			boundary: BoundaryStopHit,
		},
		{
			name:     "stop via excursion on a winner",
			in:       domain.Trade{ReturnValue: 150, MaxOppositeExcursion: -450},
			pnl:      -100,
			want:     domain.Trade{ReturnValue: -400, MaxOppositeExcursion: -450},
			boundary: BoundaryStopHit,
		},
		{
			name:     "target via return",
			in:       domain.Trade{ReturnValue: 700, MaxOppositeExcursion: -100},
			pnl:      400,
			want:     domain.Trade{ReturnValue: 600, MaxOppositeExcursion: -100},
			boundary: BoundaryTargetHit,
		},
		{
			name:     "target via excursion on a loser",
			in:       domain.Trade{ReturnValue: -200, MaxOppositeExcursion: 800},
			pnl:      300,
			want:     domain.Trade{ReturnValue: 700, MaxOppositeExcursion: -200},
			boundary: BoundaryTargetHit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.in
			got, boundary := ClipTrade(in, tt.pnl, stop, target)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.boundary, boundary)
			assert.Equal(t, tt.in, in, "input trade must not change")
		})
	}
}

func TestClipTrade_NoLimits(t *testing.T) {
	in := domain.Trade{ReturnValue: -5000, MaxOppositeExcursion: 9000}
	got, boundary := ClipTrade(in, 0, nil, nil)
	assert.Equal(t, in, got)
	assert.Equal(t, BoundaryNone, boundary)
}

func TestClipTrade_NeverCrossesLimit(t *testing.T) {
	const eps = 1e-9
	rng := rand.New(rand.NewPCG(7, 11))

	for i := 0; i < 20000; i++ {
		stop := -(50 + rng.Float64()*1000)
		target := 50 + rng.Float64()*1000
		pnl := stop + rng.Float64()*(target-stop)
		in := domain.Trade{
			ReturnValue:          rng.Float64()*4000 - 2000,
			MaxOppositeExcursion: rng.Float64()*4000 - 2000,
		}

		got, boundary := ClipTrade(in, pnl, &stop, &target)
		after := pnl + got.ReturnValue

		switch boundary {
		case BoundaryStopHit:
			require.InDelta(t, stop, after, eps, "case %d: %+v pnl=%f", i, in, pnl)
		case BoundaryTargetHit:
			require.InDelta(t, target, after, eps, "case %d: %+v pnl=%f", i, in, pnl)
		default:
			require.Greater(t, after, stop, "case %d", i)
			require.Less(t, after, target, "case %d", i)
		}
		require.GreaterOrEqual(t, after, stop-eps)
		require.LessOrEqual(t, after, target+eps)
	}
}

func TestTrader_BankStartsAtCost(t *testing.T) {
	tr := New(mustAccount(t, "ftt:gt"), Options{MaxSimulationDays: 365, MaxPayouts: 12})
	assert.Equal(t, -599.0, tr.Bank())
}

func TestTrader_LosingStreakBusts(t *testing.T) {
	tr := New(mustAccount(t, "ftt:gt"), Options{MaxSimulationDays: 365, MaxPayouts: 12})

	var (
		state domain.EndState
		done  bool
		days  int
	)
	for !done {
		days++
		state, done = tr.TradeDay(trades(-300))
		require.LessOrEqual(t, days, 100, "trial did not end")
	}

	// -7500 sits on the line; the 26th loss crosses it.
	assert.Equal(t, domain.EndStateBusted, state)
	assert.Equal(t, 26, days)
	assert.Equal(t, 25, tr.Account().SimulationDays())
	assert.Equal(t, -599.0, tr.Bank())
	assert.InDelta(t, -7800.0, tr.Account().CurrentBalance(), 1e-9)
}

func TestTrader_AlternatingPoolTimesOutWithoutPayout(t *testing.T) {
	tr := New(mustAccount(t, "ftt:gt"), Options{MaxSimulationDays: 30, MaxPayouts: 12})

	var (
		state domain.EndState
		done  bool
	)
	for day := 0; !done; day++ {
		r := 400.0
		if day%2 == 1 {
			r = -300
		}
		state, done = tr.TradeDay(trades(r))
	}

	assert.Equal(t, domain.EndStateTimedOut, state)
	assert.Equal(t, 30, tr.Account().SimulationDays())
	assert.Equal(t, -599.0, tr.Bank())
	assert.InDelta(t, 1500.0, tr.Account().CurrentBalance(), 1e-9)
}

func TestTrader_MaxTradesPerDay(t *testing.T) {
	tr := New(mustAccount(t, "ftt:gt"), Options{
		MaxTradesPerDay:   ptr(2),
		MaxSimulationDays: 365,
		MaxPayouts:        12,
	})

	_, done := tr.TradeDay(trades(100, 100, 100))

	assert.False(t, done)
	assert.Equal(t, 200.0, tr.Account().CurrentBalance())
}

func TestTrader_DailyStopEndsDay(t *testing.T) {
	tr := New(mustAccount(t, "ftt:gt"), Options{
		DailyStopLoss:     ptr(-500.0),
		MaxSimulationDays: 365,
		MaxPayouts:        12,
	})

	_, done := tr.TradeDay(trades(-300, -300, -300))

	assert.False(t, done)
	assert.Equal(t, -500.0, tr.Account().CurrentBalance())
	assert.Equal(t, 1, tr.Account().SimulationDays())
}

func TestTrader_MaxPayoutsReached(t *testing.T) {
	tr := New(mustAccount(t, "ftt:gt"), Options{MaxSimulationDays: 365, MaxPayouts: 1})

	var (
		state domain.EndState
		done  bool
	)
	for !done {
		state, done = tr.TradeDay(trades(800))
	}

	assert.Equal(t, domain.EndStateMaxPayouts, state)
	assert.Equal(t, 10, tr.Account().SimulationDays())
	assert.Equal(t, -599.0+3000.0, tr.Bank())
}

func TestTrader_OutsizedDayBlocksWithdrawal(t *testing.T) {
	tr := New(mustAccount(t, "ftt:gt"), Options{MaxSimulationDays: 365, MaxPayouts: 12})

	// One 6000 day, then qualifying 400 days: balance stays well above the
	// first-payout minimum, but 6000 > 0.2 * balance throughout.
	_, done := tr.TradeDay(trades(6000))
	require.False(t, done)
	for day := 0; day < 14; day++ {
		_, done = tr.TradeDay(trades(400))
		require.False(t, done)
		assert.Equal(t, -599.0, tr.Bank(), "day %d", day+2)
	}

	dd, ok := tr.Account().(*account.DrawdownAccount)
	require.True(t, ok)
	assert.Equal(t, 15, dd.TradingDays())
	assert.Equal(t, 0, dd.PayoutCount())
	assert.InDelta(t, 11600.0, dd.CurrentBalance(), 1e-9)
	assert.False(t, dd.PassesConsistencyRule())
}

func TestTrader_PassDayPnLCountsAsFundedDay(t *testing.T) {
	tr := New(mustAccount(t, "topstep:fifty"), Options{MaxSimulationDays: 365, MaxPayouts: 12})

	// The third trade passes; the first two (2000) close the day in the funded phase.
	_, done := tr.TradeDay(trades(1000, 1000, 1000))
	require.False(t, done)

	ev, ok := tr.Account().(*account.EvaluationAccount)
	require.True(t, ok)
	since, total := ev.WinningDays()
	assert.Equal(t, 1, since)
	assert.Equal(t, 1, total)
	assert.Equal(t, 3000.0, ev.CurrentBalance())
	assert.False(t, ev.PassesConsistencyRule())

	// Consistency does not hold back the half payout after 5 winning days.
	for i := 0; i < 4; i++ {
		_, done = tr.TradeDay(trades(250))
		require.False(t, done)
	}
	assert.Equal(t, -49.0-149.0+2000.0, tr.Bank())
	assert.Equal(t, 2000.0, ev.CurrentBalance())
}

func TestTrader_EvaluationPassChargedOnce(t *testing.T) {
	tr := New(mustAccount(t, "topstep:fifty"), Options{MaxSimulationDays: 3, MaxPayouts: 12})

	state, done := tr.TradeDay(trades(1000, 1000, 1000, 500))
	require.False(t, done)
	// The trade after the pass is not applied on the pass day.
	assert.Equal(t, 3000.0, tr.Account().CurrentBalance())
	assert.Equal(t, -49.0-149.0, tr.Bank())

	ev, ok := tr.Account().(*account.EvaluationAccount)
	require.True(t, ok)
	require.True(t, ev.PassedEvaluation())

	for !done {
		state, done = tr.TradeDay(trades(1000, 1000, 1000, 500))
	}

	assert.Equal(t, domain.EndStateTimedOut, state)
	assert.Equal(t, -198.0, tr.Bank(), "funded fee charged exactly once")
	assert.Equal(t, 10000.0, tr.Account().CurrentBalance())
}

func TestTrader_FundedDepletionBusts(t *testing.T) {
	tr := New(mustAccount(t, "topstep:fifty"), Options{MaxSimulationDays: 365, MaxPayouts: 12})

	_, done := tr.TradeDay(trades(3000))
	require.False(t, done)

	var state domain.EndState
	for !done {
		state, done = tr.TradeDay(trades(250))
	}

	_, total := tr.Account().(*account.EvaluationAccount).WinningDays()
	assert.Equal(t, domain.EndStateBusted, state)
	assert.Equal(t, 31, tr.Account().SimulationDays())
	assert.Equal(t, account.LifetimeWinningDaysFullPayout, total)
	assert.LessOrEqual(t, tr.Account().CurrentBalance(), account.DepletionEpsilon)
	assert.Greater(t, tr.Bank(), 0.0)
}
