package reporting

import (
	"fmt"
	"strings"

	"prop-simulator/internal/domain"
)

// RenderTrialsCSV renders per-trial results as CSV string.
func RenderTrialsCSV(results []domain.TrialResult) string {
	var sb strings.Builder

	// Header
	sb.WriteString("trial_index,final_balance,end_state,simulation_days\n")

	// Rows
	for _, r := range results {
		sb.WriteString(fmt.Sprintf("%d,%.2f,%s,%d\n",
			r.TrialIndex,
			r.FinalBalance,
			r.EndState,
			r.SimulationDays,
		))
	}

	return sb.String()
}

// RenderHistogramCSV renders histogram bins as CSV string.
func RenderHistogramCSV(bins []domain.HistogramBin) string {
	var sb strings.Builder

	sb.WriteString("lower,upper,count,percent\n")
	for _, b := range bins {
		sb.WriteString(fmt.Sprintf("%.2f,%.2f,%d,%.4f\n", b.Lower, b.Upper, b.Count, b.Percent))
	}

	return sb.String()
}
