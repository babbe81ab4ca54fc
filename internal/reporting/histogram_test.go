package reporting

import (
	"math"
	"testing"
)

func TestHistogram_Empty(t *testing.T) {
	if got := Histogram(nil, 10); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestHistogram_SingleValue(t *testing.T) {
	bins := Histogram([]float64{-599, -599, -599}, 50)
	if len(bins) != 1 {
		t.Fatalf("expected 1 bin, got %d", len(bins))
	}
	if bins[0].Count != 3 || bins[0].Percent != 100 {
		t.Errorf("expected 3 trials at 100%%, got %+v", bins[0])
	}
}

func TestHistogram_Buckets(t *testing.T) {
	values := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 10}
	bins := Histogram(values, 5)

	if len(bins) != 5 {
		t.Fatalf("expected 5 bins, got %d", len(bins))
	}

	// width 2: [0,2) [2,4) [4,6) [6,8) [8,10]
	wantCounts := []int{2, 2, 2, 2, 2}
	total := 0
	pct := 0.0
	for i, b := range bins {
		if b.Count != wantCounts[i] {
			t.Errorf("bin %d: expected %d, got %d", i, wantCounts[i], b.Count)
		}
		if b.Lower != float64(2*i) {
			t.Errorf("bin %d: expected lower %d, got %f", i, 2*i, b.Lower)
		}
		total += b.Count
		pct += b.Percent
	}
	if total != len(values) {
		t.Errorf("expected %d values binned, got %d", len(values), total)
	}
	if math.Abs(pct-100) > 1e-9 {
		t.Errorf("expected percents to sum to 100, got %f", pct)
	}
	if bins[4].Upper != 10 {
		t.Errorf("expected last upper 10, got %f", bins[4].Upper)
	}
}

func TestHistogram_DefaultBins(t *testing.T) {
	bins := Histogram([]float64{0, 100}, 0)
	if len(bins) != DefaultHistogramBins {
		t.Errorf("expected %d bins, got %d", DefaultHistogramBins, len(bins))
	}
	if bins[0].Count != 1 || bins[DefaultHistogramBins-1].Count != 1 {
		t.Errorf("expected extremes in first and last bins")
	}
}
