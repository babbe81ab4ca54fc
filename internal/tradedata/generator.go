package tradedata

import (
	"math"
	"math/rand/v2"
	"time"

	"prop-simulator/internal/domain"
)

// Synthetic series shape.
const (
	GeneratedDays = 365
	// poissonChunk bounds the rate handed to Knuth's method; larger rates are
	// split into independent chunks and summed.
	poissonChunk = 30.0
)

// GeneratedStart is the timestamp of the first synthetic trading day.
var GeneratedStart = time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

// GeneratorParams describes a synthetic trade stream.
// StopLoss and TakeProfit are positive distances before the multiplier.
type GeneratorParams struct {
	AvgTradesPerDay float64
	StopLoss        float64
	TakeProfit      float64
	WinPercentage   float64 // 0..100
	Multiplier      float64
	RoundTripCost   float64
}

// Generate produces GeneratedDays of trades. Each day draws a Poisson trade
// count; winners settle at TakeProfit with an adverse excursion drawn from
// |N(SL/2, SL/4)| capped at SL, losers settle at -StopLoss with a favorable
// excursion drawn from |N(TP/2, TP/4)| capped at TP.
func Generate(rng *rand.Rand, p GeneratorParams) []domain.TradeRecord {
	winProb := p.WinPercentage / 100

	var records []domain.TradeRecord
	for day := 0; day < GeneratedDays; day++ {
		ts := GeneratedStart.AddDate(0, 0, day)
		n := poisson(rng, p.AvgTradesPerDay)

		for i := 0; i < n; i++ {
			var ret, moe float64
			if rng.Float64() < winProb {
				mae := math.Min(math.Abs(normal(rng, p.StopLoss*0.5, p.StopLoss*0.25)), p.StopLoss)
				ret = p.TakeProfit * p.Multiplier
				moe = -mae * p.Multiplier
			} else {
				mfe := math.Min(math.Abs(normal(rng, p.TakeProfit*0.5, p.TakeProfit*0.25)), p.TakeProfit)
				ret = -p.StopLoss * p.Multiplier
				moe = mfe * p.Multiplier
			}

			records = append(records, domain.TradeRecord{
				Time: ts,
				Trade: domain.Trade{
					ReturnValue:          ret - p.RoundTripCost,
					MaxOppositeExcursion: moe - p.RoundTripCost,
				},
			})
		}
	}
	return records
}

func normal(rng *rand.Rand, mean, stddev float64) float64 {
	return mean + stddev*rng.NormFloat64()
}

// poisson samples Poisson(lambda) with Knuth's multiplication method.
func poisson(rng *rand.Rand, lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	n := 0
	for lambda > poissonChunk {
		n += knuth(rng, poissonChunk)
		lambda -= poissonChunk
	}
	return n + knuth(rng, lambda)
}

func knuth(rng *rand.Rand, lambda float64) int {
	limit := math.Exp(-lambda)
	k := 0
	p := rng.Float64()
	for p > limit {
		k++
		p *= rng.Float64()
	}
	return k
}
