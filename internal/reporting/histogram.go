package reporting

import (
	"math"

	"prop-simulator/internal/domain"
)

// DefaultHistogramBins is the bin count used for run histograms.
const DefaultHistogramBins = 50

// Histogram buckets values into equal-width bins spanning [min, max].
// The last bin is closed on the right. Percent is relative to len(values).
// Returns nil for empty input; identical values produce a single bin.
func Histogram(values []float64, bins int) []domain.HistogramBin {
	if len(values) == 0 {
		return nil
	}
	if bins <= 0 {
		bins = DefaultHistogramBins
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	n := float64(len(values))
	if lo == hi {
		return []domain.HistogramBin{{Lower: lo, Upper: hi, Count: len(values), Percent: 100}}
	}

	width := (hi - lo) / float64(bins)
	out := make([]domain.HistogramBin, bins)
	for i := range out {
		out[i].Lower = lo + float64(i)*width
		out[i].Upper = lo + float64(i+1)*width
	}
	out[bins-1].Upper = hi

	for _, v := range values {
		idx := int((v - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		out[idx].Count++
	}
	for i := range out {
		out[i].Percent = float64(out[i].Count) / n * 100
	}
	return out
}
