package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Simulation Report\n\n")
	sb.WriteString(fmt.Sprintf("Run: `%s`\n\n", r.RunID))
	sb.WriteString(fmt.Sprintf("Created: %s | Generated: %s\n\n",
		r.CreatedAt.UTC().Format(time.RFC3339), r.GeneratedAt.Format(time.RFC3339)))

	// Parameters
	sb.WriteString("## Parameters\n\n")
	sb.WriteString("| Parameter | Value |\n")
	sb.WriteString("|-----------|-------|\n")
	for _, p := range r.Parameters {
		sb.WriteString(fmt.Sprintf("| %s | %s |\n", p.Name, p.Value))
	}
	sb.WriteString("\n")

	// End states
	sb.WriteString("## End States\n\n")
	sb.WriteString("| End State | Trials | Percent |\n")
	sb.WriteString("|-----------|--------|---------|\n")
	for _, e := range r.EndStates {
		sb.WriteString(fmt.Sprintf("| %s | %d | %.2f%% |\n", e.State, e.Count, e.Rate*100))
	}
	sb.WriteString("\n")

	// Distribution
	sb.WriteString("## Final Balance Distribution\n\n")
	sb.WriteString(fmt.Sprintf("Condition: %s\n\n", r.ConditionEndState))
	sb.WriteString("| Metric | Population | Conditioned |\n")
	sb.WriteString("|--------|------------|-------------|\n")
	writeStatRow(&sb, "Trials", float64(r.Population.Count), float64(r.Conditioned.Count), "%.0f")
	writeStatRow(&sb, "Mean", r.Population.MeanBalance, r.Conditioned.MeanBalance, "%.2f")
	writeStatRow(&sb, "Median", r.Population.MedianBalance, r.Conditioned.MedianBalance, "%.2f")
	writeStatRow(&sb, "Std Dev", r.Population.StdDev, r.Conditioned.StdDev, "%.2f")
	writeStatRow(&sb, "Mean Abs Deviation", r.Population.MeanAbsDeviation, r.Conditioned.MeanAbsDeviation, "%.2f")
	writeStatRow(&sb, "IQR", r.Population.IQR, r.Conditioned.IQR, "%.2f")
	writeStatRow(&sb, "Median Abs Deviation", r.Population.MedianAbsDeviation, r.Conditioned.MedianAbsDeviation, "%.2f")
	writeStatRow(&sb, "Mean Days", r.Population.MeanDays, r.Conditioned.MeanDays, "%.1f")
	writeStatRow(&sb, "Positive Balance %", r.Population.PositiveBalanceRate*100, r.Conditioned.PositiveBalanceRate*100, "%.2f")
	sb.WriteString("\n")

	// Histogram
	if len(r.Histogram) > 0 {
		sb.WriteString("## Histogram\n\n")
		sb.WriteString("| Lower | Upper | Trials | Percent |\n")
		sb.WriteString("|-------|-------|--------|---------|\n")
		for _, b := range r.Histogram {
			if b.Count == 0 {
				continue
			}
			sb.WriteString(fmt.Sprintf("| %.2f | %.2f | %d | %.2f%% |\n", b.Lower, b.Upper, b.Count, b.Percent))
		}
		sb.WriteString("\n")
	}

	// Warnings
	if len(r.Warnings) > 0 {
		sb.WriteString("## Warnings\n\n")
		for _, w := range r.Warnings {
			sb.WriteString(fmt.Sprintf("- %s\n", w))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func writeStatRow(sb *strings.Builder, name string, pop, cond float64, format string) {
	sb.WriteString(fmt.Sprintf("| %s | "+format+" | "+format+" |\n", name, pop, cond))
}
