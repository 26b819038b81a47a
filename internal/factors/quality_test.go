package factors

import (
	"math"
	"testing"

	"altcoin-leadlag/internal/domain"
)

func TestQualityRatio(t *testing.T) {
	snap := []domain.CoinMarket{
		{Symbol: "sol", MarketCap: 80e6},
		{Symbol: "usdc", MarketCap: 50e6},
		{Symbol: "doge", MarketCap: 30e6},
		{Symbol: "dust", MarketCap: 5e6},
	}

	tests := []struct {
		name   string
		others float64
		opts   QualityOptions
		want   float64
	}{
		{"filters illiquid", 200e6, QualityOptions{TopN: 300, MinLiquidityUSD: 10e6}, 0.8},
		{"top n applied before filter", 200e6, QualityOptions{TopN: 2, MinLiquidityUSD: 10e6}, 0.65},
		{"threshold is strict", 200e6, QualityOptions{TopN: 300, MinLiquidityUSD: 30e6}, 0.65},
		{"exclude stablecoins", 200e6, QualityOptions{TopN: 300, MinLiquidityUSD: 10e6, ExcludeStablecoins: true, StablecoinSymbols: []string{"USDC"}}, 0.55},
		{"stablecoins kept unless enabled", 200e6, QualityOptions{TopN: 300, MinLiquidityUSD: 10e6, StablecoinSymbols: []string{"USDC"}}, 0.8},
		{"zero denominator", 0, QualityOptions{TopN: 300}, 0},
		{"negative denominator", -10e6, QualityOptions{TopN: 300}, 0},
		{"undefined denominator", math.NaN(), QualityOptions{TopN: 300}, 0},
		{"nothing qualifies", 200e6, QualityOptions{TopN: 300, MinLiquidityUSD: 1e12}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := QualityRatio(snap, tt.others, tt.opts)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("QualityRatio = %v, want %v", got, tt.want)
			}
			if got < 0 {
				t.Errorf("quality ratio must be non-negative, got %v", got)
			}
		})
	}
}

func TestQualityRatio_EmptySnapshot(t *testing.T) {
	if got := QualityRatio(nil, 100, QualityOptions{TopN: 10}); got != 0 {
		t.Errorf("QualityRatio(nil) = %v, want 0", got)
	}
}
