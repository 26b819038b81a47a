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
	sb.WriteString("# Lead-Lag Run Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	// Data Summary
	sb.WriteString("## Data Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Frequency | %s |\n", r.Frequency))
	sb.WriteString(fmt.Sprintf("| Master Rows | %d |\n", r.DataSummary.MasterRows))
	sb.WriteString(fmt.Sprintf("| Factor Rows | %d |\n", r.DataSummary.FactorRows))
	if r.DataSummary.FactorRows > 0 {
		sb.WriteString(fmt.Sprintf("| First Date | %s |\n", r.DataSummary.FirstDate.Format(time.DateOnly)))
		sb.WriteString(fmt.Sprintf("| Last Date | %s |\n", r.DataSummary.LastDate.Format(time.DateOnly)))
	}
	sb.WriteString("\n")

	// Regression
	sb.WriteString("## Regression\n\n")
	if reg := r.Regression; reg != nil {
		sb.WriteString(fmt.Sprintf("Run `%s`, target `%s`, %d observations.\n\n", reg.RunID, reg.Target, reg.NObs))
		sb.WriteString("| Term | Coef | Std Err | t | P>\\|t\\| |\n")
		sb.WriteString("|------|------|---------|---|--------|\n")
		for _, t := range reg.Terms {
			sb.WriteString(fmt.Sprintf("| %s | %.6f | %.6f | %.3f | %.4f |\n",
				t.Name, t.Coefficient, t.StdError, t.TStat, t.PValue))
		}
		sb.WriteString("\n")
		sb.WriteString("| Statistic | Value |\n")
		sb.WriteString("|-----------|-------|\n")
		sb.WriteString(fmt.Sprintf("| R-squared | %.4f |\n", reg.RSquared))
		sb.WriteString(fmt.Sprintf("| Adj. R-squared | %.4f |\n", reg.AdjRSquared))
		sb.WriteString(fmt.Sprintf("| F-statistic | %.4f |\n", reg.FStatistic))
		sb.WriteString(fmt.Sprintf("| Prob (F-statistic) | %.4g |\n", reg.FPValue))
		sb.WriteString(fmt.Sprintf("| AIC | %.2f |\n", reg.AIC))
		sb.WriteString(fmt.Sprintf("| BIC | %.2f |\n", reg.BIC))
		sb.WriteString(fmt.Sprintf("| Durbin-Watson | %.3f |\n", reg.DurbinWatson))
	} else {
		sb.WriteString("No model results available.\n")
	}
	sb.WriteString("\n")

	// Lead-lag
	sb.WriteString("## Lead-Lag Test\n\n")
	if g := r.Granger; g != nil {
		sb.WriteString("| Cause | Effect | Shift | Lag | N | F | df | p-value |\n")
		sb.WriteString("|-------|--------|-------|-----|---|---|----|---------|\n")
		sb.WriteString(fmt.Sprintf("| %s | %s | %d | %d | %d | %.4f | (%d, %d) | %.4f |\n",
			g.Cause, g.Effect, g.Shift, g.Lag, g.NObs, g.FStat, g.DFNum, g.DFDenom, g.PValue))
	} else {
		sb.WriteString("No lead-lag test available.\n")
	}
	sb.WriteString("\n")

	// Factor summary
	sb.WriteString("## Factor Summary\n\n")
	if len(r.FactorSummary) > 0 {
		sb.WriteString("| Column | N | Missing | Mean | Stddev | Min | P10 | Median | P90 | Max | Pos% | MaxDD |\n")
		sb.WriteString("|--------|---|---------|------|--------|-----|-----|--------|-----|-----|------|-------|\n")
		for _, s := range r.FactorSummary {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %.4f | %.4f | %.4f | %.4f | %.4f | %.4f | %.4f | %.1f | %.4f |\n",
				s.Column, s.Count, s.Missing, s.Mean, s.Stddev, s.Min, s.P10, s.Median, s.P90, s.Max,
				100*s.PositiveShare, s.MaxDrawdown))
		}
	} else {
		sb.WriteString("No factor summary available.\n")
	}
	sb.WriteString("\n")

	// Correlations
	sb.WriteString("## Correlations\n\n")
	if m := r.Correlations; m != nil && len(m.Columns) > 0 {
		sb.WriteString("| |")
		for _, c := range m.Columns {
			sb.WriteString(" " + c + " |")
		}
		sb.WriteString("\n|---|")
		sb.WriteString(strings.Repeat("---|", len(m.Columns)))
		sb.WriteString("\n")
		for i, c := range m.Columns {
			sb.WriteString("| " + c + " |")
			for j := range m.Columns {
				sb.WriteString(fmt.Sprintf(" %.3f |", m.Values[i][j]))
			}
			sb.WriteString("\n")
		}
	} else {
		sb.WriteString("No correlations available.\n")
	}
	if rs := r.Rolling; rs != nil {
		sb.WriteString(fmt.Sprintf("\nRolling %d-period correlation of %s and %s on %s: %.3f (%d defined points)\n",
			rs.Window, rs.A, rs.B, rs.Date.Format(time.DateOnly), rs.Value, rs.Defined))
	}
	sb.WriteString("\n")

	return sb.String()
}
