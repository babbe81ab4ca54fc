package domain

import "time"

// Trade is a single realized outcome sampled from history or a generator.
// Both fields are in account currency (multiplier and round-trip cost applied).
type Trade struct {
	ReturnValue          float64 `json:"return_value"`           // signed P&L at settlement
	MaxOppositeExcursion float64 `json:"max_opposite_excursion"` // MAE for winners, MFE for losers
}

// IsWin reports whether the trade settled with positive P&L.
func (t Trade) IsWin() bool {
	return t.ReturnValue > 0
}

// TradeRecord is a timestamped trade as read from a source.
// The timestamp is only used to derive the trades-per-day pool.
type TradeRecord struct {
	Time  time.Time
	Trade Trade
}
