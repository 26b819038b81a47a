package reporting

import (
	"fmt"
	"strings"
	"time"

	"altcoin-leadlag/internal/domain"
)

const summaryWidth = 78

// RenderRegressionSummary renders the fitted model as a plain-text table.
// granger may be nil.
func RenderRegressionSummary(reg *domain.RegressionResult, granger *domain.GrangerResult) string {
	var sb strings.Builder
	rule := strings.Repeat("=", summaryWidth) + "\n"
	thin := strings.Repeat("-", summaryWidth) + "\n"

	sb.WriteString(center("OLS Regression Results", summaryWidth) + "\n")
	sb.WriteString(rule)
	sb.WriteString(fmt.Sprintf("%-22s%16s   %-22s%16.3f\n", "Dep. Variable:", reg.Target, "R-squared:", reg.RSquared))
	sb.WriteString(fmt.Sprintf("%-22s%16s   %-22s%16.3f\n", "Model:", "OLS", "Adj. R-squared:", reg.AdjRSquared))
	sb.WriteString(fmt.Sprintf("%-22s%16s   %-22s%16.4g\n", "Method:", "Least Squares", "F-statistic:", reg.FStatistic))
	sb.WriteString(fmt.Sprintf("%-22s%16s   %-22s%16.3g\n", "Date:", reg.FittedAt.UTC().Format(time.DateOnly), "Prob (F-statistic):", reg.FPValue))
	sb.WriteString(fmt.Sprintf("%-22s%16d   %-22s%16.2f\n", "No. Observations:", reg.NObs, "Log-Likelihood:", reg.LogLik))
	sb.WriteString(fmt.Sprintf("%-22s%16d   %-22s%16.4g\n", "Df Residuals:", reg.DFResid, "AIC:", reg.AIC))
	sb.WriteString(fmt.Sprintf("%-22s%16d   %-22s%16.4g\n", "Df Model:", reg.DFModel, "BIC:", reg.BIC))
	sb.WriteString(rule)
	sb.WriteString(fmt.Sprintf("%-22s%12s%12s%12s%12s\n", "", "coef", "std err", "t", "P>|t|"))
	sb.WriteString(thin)
	for _, t := range reg.Terms {
		sb.WriteString(fmt.Sprintf("%-22s%12.4f%12.4f%12.3f%12.3f\n", t.Name, t.Coefficient, t.StdError, t.TStat, t.PValue))
	}
	sb.WriteString(rule)
	sb.WriteString(fmt.Sprintf("%-22s%16.3f\n", "Durbin-Watson:", reg.DurbinWatson))
	sb.WriteString(rule)
	sb.WriteString(fmt.Sprintf("Run ID: %s\n", reg.RunID))

	if granger != nil {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("Granger causality (%s -> %s), shift %d, lag %d\n",
			granger.Cause, granger.Effect, granger.Shift, granger.Lag))
		sb.WriteString(fmt.Sprintf("ssr based F test: F=%.4f, p=%.4f, df_denom=%d, df_num=%d, nobs=%d\n",
			granger.FStat, granger.PValue, granger.DFDenom, granger.DFNum, granger.NObs))
	}

	return sb.String()
}

func center(s string, width int) string {
	if len(s) >= width {
		return s
	}
	pad := (width - len(s)) / 2
	return strings.Repeat(" ", pad) + s
}
