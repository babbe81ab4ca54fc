package metrics

import (
	"math"
	"sort"

	"prop-simulator/internal/domain"
)

// computeDistribution calculates distribution statistics over trials.
// Returns a zero value (Count 0) for an empty slice.
func computeDistribution(trials []domain.TrialResult) domain.DistributionStats {
	n := len(trials)
	if n == 0 {
		return domain.DistributionStats{}
	}

	balances := make([]float64, n)
	days := make([]float64, n)
	positive := 0
	for i, t := range trials {
		balances[i] = t.FinalBalance
		days[i] = float64(t.SimulationDays)
		if t.FinalBalance > 0 {
			positive++
		}
	}

	sorted := make([]float64, n)
	copy(sorted, balances)
	sort.Float64s(sorted)

	mean := computeMean(balances)
	median := computeMedian(sorted)
	q1, q3 := computeQuartiles(sorted)

	return domain.DistributionStats{
		Count:               n,
		MeanBalance:         mean,
		MedianBalance:       median,
		StdDev:              computeStddev(balances, mean),
		MeanAbsDeviation:    computeMeanAbsDeviation(balances, mean),
		IQR:                 q3 - q1,
		MedianAbsDeviation:  computeMedianAbsDeviation(balances, median),
		MeanDays:            computeMean(days),
		PositiveBalanceRate: computeRate(positive, n),
	}
}

// computeRate calculates part / total.
func computeRate(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total)
}

// computeMean calculates arithmetic mean.
func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// computeStddev calculates sample standard deviation (n-1 denominator).
func computeStddev(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return 0 // Need at least 2 samples for sample stddev
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// computeMedian returns the middle element, or the average of the two
// middle elements for even lengths. sorted must be pre-sorted ASC.
func computeMedian(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// computeQuartiles returns Q1 and Q3 as medians of the lower and upper
// halves. For odd lengths the middle element belongs to neither half.
func computeQuartiles(sorted []float64) (float64, float64) {
	n := len(sorted)
	if n < 2 {
		return computeMedian(sorted), computeMedian(sorted)
	}
	half := n / 2
	return computeMedian(sorted[:half]), computeMedian(sorted[n-half:])
}

// computeMeanAbsDeviation calculates mean |v - mean|.
func computeMeanAbsDeviation(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += math.Abs(v - mean)
	}
	return sum / float64(len(values))
}

// computeMedianAbsDeviation calculates median |v - median|.
func computeMedianAbsDeviation(values []float64, median float64) float64 {
	if len(values) == 0 {
		return 0
	}
	devs := make([]float64, len(values))
	for i, v := range values {
		devs[i] = math.Abs(v - median)
	}
	sort.Float64s(devs)
	return computeMedian(devs)
}
