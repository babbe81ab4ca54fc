package simulation

import (
	"errors"
	"math/rand/v2"

	"prop-simulator/internal/domain"
)

// Pool errors
var (
	ErrEmptyTradePool    = errors.New("trade pool is empty")
	ErrEmptyDayCountPool = errors.New("trades-per-day pool is empty")
)

// Pool holds the read-only sampling pools shared by every trial.
type Pool struct {
	trades    []domain.Trade
	dayCounts []int
}

// NewPool copies the inputs into an immutable pool.
func NewPool(trades []domain.Trade, dayCounts []int) (*Pool, error) {
	if len(trades) == 0 {
		return nil, ErrEmptyTradePool
	}
	if len(dayCounts) == 0 {
		return nil, ErrEmptyDayCountPool
	}
	return &Pool{
		trades:    append([]domain.Trade(nil), trades...),
		dayCounts: append([]int(nil), dayCounts...),
	}, nil
}

// TradeCount returns the number of trades in the pool.
func (p *Pool) TradeCount() int { return len(p.trades) }

// DayCount returns the number of observed days in the pool.
func (p *Pool) DayCount() int { return len(p.dayCounts) }

// SampleDay draws one day-count uniformly, then that many trades with
// replacement. The result reuses buf's backing array.
func (p *Pool) SampleDay(rng *rand.Rand, buf []domain.Trade) []domain.Trade {
	n := p.dayCounts[rng.IntN(len(p.dayCounts))]
	buf = buf[:0]
	for i := 0; i < n; i++ {
		buf = append(buf, p.trades[rng.IntN(len(p.trades))])
	}
	return buf
}
