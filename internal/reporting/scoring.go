package reporting

import (
	"fmt"
	"strings"

	"altcoin-leadlag/internal/scoring"
)

// RenderScoringText renders the tier report: tokens grouped by tier, best first,
// followed by summary statistics.
func RenderScoringText(a *scoring.Analysis) string {
	var sb strings.Builder

	sb.WriteString("ETHEREUM BETA PLAYS - S-TIER ANALYSIS\n")
	sb.WriteString(strings.Repeat("=", 60) + "\n")
	sb.WriteString(fmt.Sprintf("Analysis Date: %s\n", a.GeneratedAt.UTC().Format("2006-01-02 15:04 UTC")))

	byTier := a.ByTier()
	for _, tier := range scoring.TierOrder {
		results := byTier[tier]
		if len(results) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("\n[%s TIER]\n", tier))
		sb.WriteString(strings.Repeat("-", 20) + "\n")

		for _, r := range results {
			p := r.Profile
			sb.WriteString(fmt.Sprintf("\n%s - %s | Score: %.1f\n", p.Symbol, p.Category, r.Total))
			if r.Market != nil {
				price, _ := r.Market.CurrentPrice.Float64()
				sb.WriteString(fmt.Sprintf("  Price: %s | Market Cap: %s\n", formatPrice(price), formatCap(r.Market.MarketCap)))
			} else {
				sb.WriteString("  Price: N/A | Market Cap: N/A\n")
			}
			sb.WriteString(fmt.Sprintf("  Market: %.1f | Fundamentals: %.1f\n", r.MarketScore, r.Fundamentals))
			sb.WriteString(fmt.Sprintf("  Adoption: %.1f | Risk: %.1f\n", r.Adoption, r.Risk))
			sb.WriteString(fmt.Sprintf("  Description: %s\n", p.Description))
			sb.WriteString(fmt.Sprintf("  Backing: %s\n", p.Backing))
		}
	}

	sb.WriteString("\n\nSUMMARY STATISTICS\n")
	sb.WriteString(strings.Repeat("=", 30) + "\n")
	sb.WriteString(fmt.Sprintf("S-Tier Tokens: %d/%d\n", a.STierCount(), len(a.Results)))
	sb.WriteString(fmt.Sprintf("Average Score: %.1f\n", a.Average()))
	if top, ok := a.Highest(); ok {
		sb.WriteString(fmt.Sprintf("Highest Score: %.1f (%s tier)\n", top.Total, top.Tier))
	}

	return sb.String()
}

// formatPrice prints sub-dollar prices with eight decimals.
func formatPrice(price float64) string {
	if price >= 1 {
		return fmt.Sprintf("$%.2f", price)
	}
	return fmt.Sprintf("$%.8f", price)
}

// formatCap prints an amount in billions or millions.
func formatCap(v float64) string {
	if v >= 1e9 {
		return fmt.Sprintf("$%.2fB", v/1e9)
	}
	return fmt.Sprintf("$%.2fM", v/1e6)
}

// formatAmount is formatCap with N/A below one million.
func formatAmount(v float64) string {
	if v < 1e6 {
		return "N/A"
	}
	return formatCap(v)
}
