package tradedata

import (
	"sort"
	"time"

	"prop-simulator/internal/domain"
)

// Trades strips timestamps, keeping input order.
func Trades(records []domain.TradeRecord) []domain.Trade {
	out := make([]domain.Trade, len(records))
	for i, r := range records {
		out[i] = r.Trade
	}
	return out
}

// TradesPerDay counts records per UTC calendar date, ordered by date.
// Dates without trades are absent.
func TradesPerDay(records []domain.TradeRecord) []int {
	counts := make(map[time.Time]int)
	for _, r := range records {
		y, m, d := r.Time.UTC().Date()
		counts[time.Date(y, m, d, 0, 0, 0, 0, time.UTC)]++
	}

	dates := make([]time.Time, 0, len(counts))
	for d := range counts {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	out := make([]int, len(dates))
	for i, d := range dates {
		out[i] = counts[d]
	}
	return out
}
