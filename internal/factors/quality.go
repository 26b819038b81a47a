package factors

import (
	"strings"

	"altcoin-leadlag/internal/domain"
)

// QualityOptions controls the liquidity filter of the quality ratio.
type QualityOptions struct {
	TopN               int
	MinLiquidityUSD    float64
	ExcludeStablecoins bool
	StablecoinSymbols  []string
}

// QualityRatio is the share of the "others" cap held by liquid tokens: the
// summed market cap of the top-N snapshot coins whose cap exceeds
// MinLiquidityUSD, divided by othersCap. A zero, negative or undefined
// othersCap yields 0.
func QualityRatio(snapshot []domain.CoinMarket, othersCap float64, opts QualityOptions) float64 {
	if !(othersCap > 0) {
		return 0
	}

	exclude := make(map[string]bool, len(opts.StablecoinSymbols))
	if opts.ExcludeStablecoins {
		for _, s := range opts.StablecoinSymbols {
			exclude[strings.ToUpper(s)] = true
		}
	}

	var qualified float64
	for _, c := range domain.TopByMarketCap(snapshot, opts.TopN) {
		if exclude[strings.ToUpper(c.Symbol)] {
			continue
		}
		if c.MarketCap > opts.MinLiquidityUSD {
			qualified += c.MarketCap
		}
	}
	return qualified / othersCap
}
