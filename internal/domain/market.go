package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// CoinMarket is one entry of a coins/markets listing.
type CoinMarket struct {
	ID                    string          `json:"id"`
	Symbol                string          `json:"symbol"`
	Name                  string          `json:"name"`
	CurrentPrice          decimal.Decimal `json:"current_price"`
	MarketCap             float64         `json:"market_cap"`
	MarketCapRank         int             `json:"market_cap_rank"`
	FullyDilutedValuation float64         `json:"fully_diluted_valuation"`
	TotalVolume           float64         `json:"total_volume"`
	PriceChange24hPct     float64         `json:"price_change_percentage_24h"`
	PriceChange7dPct      float64         `json:"price_change_percentage_7d_in_currency"`
}

// MarketSnapshot is a top-N market cap listing as of a date.
type MarketSnapshot struct {
	Date  time.Time    `json:"date"`
	Coins []CoinMarket `json:"coins"`
}

// TopByMarketCap returns the n coins with the largest market cap, largest
// first. Ties keep their input order.
func TopByMarketCap(coins []CoinMarket, n int) []CoinMarket {
	sorted := make([]CoinMarket, len(coins))
	copy(sorted, coins)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MarketCap > sorted[j].MarketCap
	})
	if n >= 0 && n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// ByID indexes coins by CoinGecko id.
func ByID(coins []CoinMarket) map[string]CoinMarket {
	out := make(map[string]CoinMarket, len(coins))
	for _, c := range coins {
		out[c.ID] = c
	}
	return out
}
