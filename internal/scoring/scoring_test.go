package scoring

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"altcoin-leadlag/internal/coingecko"
	"altcoin-leadlag/internal/domain"
	"altcoin-leadlag/internal/observability"
)

type fakeMarket struct {
	coins []domain.CoinMarket
	err   error
	query coingecko.MarketsQuery
}

func (f *fakeMarket) CoinsMarkets(_ context.Context, q coingecko.MarketsQuery) ([]domain.CoinMarket, error) {
	f.query = q
	return f.coins, f.err
}

func profile(t *testing.T, symbol string) TokenProfile {
	t.Helper()
	for _, p := range DefaultUniverse() {
		if p.Symbol == symbol {
			return p
		}
	}
	t.Fatalf("no profile %s", symbol)
	return TokenProfile{}
}

func newEvaluator(market MarketSource) *Evaluator {
	return NewEvaluator(DefaultUniverse(), DefaultCriteria(), 2024, market, zap.NewNop(), nil)
}

func TestScore_AAVE(t *testing.T) {
	e := newEvaluator(nil)
	coin := &domain.CoinMarket{ID: "aave", Symbol: "aave", MarketCap: 3e9, TotalVolume: 3e8, FullyDilutedValuation: 3.3e9}

	r := e.Score(profile(t, "AAVE"), coin)

	// cap 85*0.4 + volume 60*0.3 + fdv 100*0.3
	assert.InDelta(t, 82.0, r.MarketScore, 1e-9)
	// maturity 100*0.3 + team 95*0.25 + backing 90*0.25 + innovation 90*0.2 = 94.25
	assert.InDelta(t, 94.25, r.Fundamentals, 0.051)
	assert.Equal(t, 90.0, r.Adoption)
	assert.Equal(t, 80.0, r.Risk)
	// 82*0.25 + 94.25*0.30 + 90*0.25 + 80*0.20 = 87.275
	assert.InDelta(t, 87.275, r.Total, 0.051)
	assert.Equal(t, TierSPlus, r.Tier)
}

func TestScore_PEPE(t *testing.T) {
	e := newEvaluator(nil)
	coin := &domain.CoinMarket{ID: "pepe", MarketCap: 4e9, TotalVolume: 1e9, FullyDilutedValuation: 4e9}

	r := e.Score(profile(t, "PEPE"), coin)

	assert.InDelta(t, 88.0, r.MarketScore, 1e-9)
	// one year active: maturity 50
	assert.InDelta(t, 22.0, r.Fundamentals, 1e-9)
	assert.InDelta(t, 44.6, r.Total, 1e-9)
	assert.Equal(t, TierC, r.Tier)
}

func TestScore_MissingTokenIsFTier(t *testing.T) {
	r := newEvaluator(nil).Score(profile(t, "LDO"), nil)
	assert.Equal(t, TierF, r.Tier)
	assert.Zero(t, r.Total)
	assert.Nil(t, r.Market)
}

func TestMarketScore_Bands(t *testing.T) {
	c := DefaultCriteria()
	tests := []struct {
		name string
		coin domain.CoinMarket
		want float64
	}{
		// 10*0.4 + 20*0.3 + fdv premium 1 -> 100*0.3
		{"zero cap", domain.CoinMarket{}, 4 + 6 + 30},
		{"tiny cap", domain.CoinMarket{MarketCap: 10e6, TotalVolume: 0, FullyDilutedValuation: 100e6}, 4 + 6 + 0},
		{"mid cap", domain.CoinMarket{MarketCap: 200e6, TotalVolume: 4e6, FullyDilutedValuation: 500e6}, 20 + 12 + 15},
		{"large cap", domain.CoinMarket{MarketCap: 6e9, TotalVolume: 2e9, FullyDilutedValuation: 6e9}, 40 + 30 + 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, MarketScore(tt.coin, c), 1e-9)
		})
	}
}

func TestTierFor(t *testing.T) {
	tests := []struct {
		total float64
		want  Tier
	}{
		{100, TierSPlus},
		{85, TierSPlus},
		{84.99, TierS},
		{75, TierSMinus},
		{60, TierAMinus},
		{45, TierBMinus},
		{40, TierC},
		{39.9, TierD},
		{0, TierD},
	}
	for _, tt := range tests {
		if got := TierFor(tt.total); got != tt.want {
			t.Errorf("TierFor(%v) = %s, want %s", tt.total, got, tt.want)
		}
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	coins := []domain.CoinMarket{
		{ID: "aave", MarketCap: 3e9, TotalVolume: 3e8, FullyDilutedValuation: 3.3e9},
		{ID: "pepe", MarketCap: 4e9, TotalVolume: 1e9, FullyDilutedValuation: 4e9},
		{ID: "lido-dao", MarketCap: 1.5e9, TotalVolume: 1e8, FullyDilutedValuation: 1.5e9},
	}
	market := &fakeMarket{coins: coins}
	e := NewEvaluator(DefaultUniverse(), DefaultCriteria(), 2024, market, zap.NewNop(), observability.NewMetrics(""))

	first, err := e.Evaluate(context.Background())
	require.NoError(t, err)
	second, err := e.Evaluate(context.Background())
	require.NoError(t, err)

	require.Len(t, first.Results, len(DefaultUniverse()))
	for i := range first.Results {
		assert.Equal(t, first.Results[i].Profile.Symbol, second.Results[i].Profile.Symbol)
		assert.Equal(t, first.Results[i].Tier, second.Results[i].Tier)
		assert.Equal(t, first.Results[i].Total, second.Results[i].Total)
	}

	assert.Equal(t, "AAVE", first.Results[0].Profile.Symbol)
	assert.Len(t, first.ByTier()[TierF], len(DefaultUniverse())-3)
	assert.Len(t, market.query.IDs, len(DefaultUniverse()))
	assert.Equal(t, []string{"1h", "24h", "7d", "30d"}, market.query.PriceChange)

	best, ok := first.Highest()
	require.True(t, ok)
	assert.Equal(t, "AAVE", best.Profile.Symbol)
	assert.GreaterOrEqual(t, first.STierCount(), 1)
}

func TestEvaluate_FetchError(t *testing.T) {
	e := newEvaluator(&fakeMarket{err: errors.New("boom")})
	_, err := e.Evaluate(context.Background())
	assert.Error(t, err)
}

func TestAnalysis_EmptyStats(t *testing.T) {
	a := &Analysis{}
	assert.Zero(t, a.Average())
	_, ok := a.Highest()
	assert.False(t, ok)
}

func TestParseUniverse(t *testing.T) {
	data := []byte(`
tokens:
  - symbol: ldo
    id: lido-dao
    category: LIQUID STAKING
    founded: 2020
    team: 90
    risk: 75
  - symbol: NEW
    id: new-token
    founded: 2024
`)
	tokens, err := ParseUniverse(data)
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, "LDO", tokens[0].Symbol)
	assert.Equal(t, 90.0, score(tokens[0].Team))
	assert.Equal(t, DefaultScore, score(tokens[0].Innovation))
	assert.Equal(t, DefaultScore, score(tokens[1].Risk))

	_, err = ParseUniverse([]byte("tokens: []"))
	assert.Error(t, err)
	_, err = ParseUniverse([]byte("tokens:\n  - symbol: A\n"))
	assert.Error(t, err)
	_, err = ParseUniverse([]byte("tokens:\n  - {symbol: A, id: a}\n  - {symbol: a, id: b}\n"))
	assert.Error(t, err)
}
