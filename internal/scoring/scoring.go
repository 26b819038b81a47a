// Package scoring rates a fixed token universe into tiers from static
// qualitative tables and live market data.
package scoring

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"altcoin-leadlag/internal/coingecko"
	"altcoin-leadlag/internal/domain"
	"altcoin-leadlag/internal/observability"
)

// MarketSource lists live market data for a set of coin ids.
type MarketSource interface {
	CoinsMarkets(ctx context.Context, q coingecko.MarketsQuery) ([]domain.CoinMarket, error)
}

// Result is the score of one token. Market is nil for a token absent from market data.
type Result struct {
	Profile TokenProfile
	Market  *domain.CoinMarket

	MarketScore  float64
	Fundamentals float64
	Adoption     float64
	Risk         float64
	Total        float64 // rounded to one decimal
	Tier         Tier
}

// Analysis is a scored universe, best first.
type Analysis struct {
	GeneratedAt time.Time
	Results     []Result
}

// Evaluator scores a universe.
type Evaluator struct {
	universe      []TokenProfile
	criteria      Criteria
	referenceYear int
	market        MarketSource
	logger        *zap.Logger
	metrics       *observability.Metrics
}

// NewEvaluator creates an evaluator. referenceYear anchors protocol maturity.
func NewEvaluator(universe []TokenProfile, criteria Criteria, referenceYear int, market MarketSource, logger *zap.Logger, metrics *observability.Metrics) *Evaluator {
	return &Evaluator{
		universe:      universe,
		criteria:      criteria,
		referenceYear: referenceYear,
		market:        market,
		logger:        logger,
		metrics:       metrics,
	}
}

// Evaluate fetches market data for the universe and scores every token.
func (e *Evaluator) Evaluate(ctx context.Context) (*Analysis, error) {
	ids := make([]string, len(e.universe))
	for i, t := range e.universe {
		ids[i] = t.ID
	}

	e.logger.Info("fetching market data", zap.Int("tokens", len(ids)))
	coins, err := e.market.CoinsMarkets(ctx, coingecko.MarketsQuery{
		IDs:         ids,
		PerPage:     100,
		Page:        1,
		PriceChange: []string{"1h", "24h", "7d", "30d"},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch market data: %w", err)
	}

	results := e.ScoreAll(coins)
	if e.metrics != nil {
		e.metrics.TokensScored.Add(float64(len(results)))
	}
	for _, r := range results {
		if r.Tier == TierF {
			e.logger.Warn("token missing from market data", zap.String("symbol", r.Profile.Symbol), zap.String("id", r.Profile.ID))
		}
	}
	return &Analysis{GeneratedAt: time.Now().UTC(), Results: results}, nil
}

// ScoreAll scores the universe against coins, highest total first.
// Equal totals keep universe order.
func (e *Evaluator) ScoreAll(coins []domain.CoinMarket) []Result {
	byID := domain.ByID(coins)
	results := make([]Result, 0, len(e.universe))
	for _, p := range e.universe {
		var market *domain.CoinMarket
		if c, ok := byID[p.ID]; ok {
			market = &c
		}
		results = append(results, e.Score(p, market))
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Total > results[j].Total
	})
	return results
}

// Score scores one token. A nil market yields the F-tier sentinel.
func (e *Evaluator) Score(p TokenProfile, market *domain.CoinMarket) Result {
	if market == nil {
		return Result{Profile: p, Tier: TierF}
	}

	c := e.criteria
	marketScore := MarketScore(*market, c)
	fundamentals := e.FundamentalsScore(p)
	adoption := score(p.Adoption)
	risk := score(p.Risk)

	total := marketScore*c.MarketWeight +
		fundamentals*c.FundamentalsWeight +
		adoption*c.AdoptionWeight +
		risk*c.RiskWeight

	return Result{
		Profile:      p,
		Market:       market,
		MarketScore:  round1(marketScore),
		Fundamentals: round1(fundamentals),
		Adoption:     round1(adoption),
		Risk:         round1(risk),
		Total:        round1(total),
		Tier:         TierFor(total),
	}
}

// MarketScore combines market cap, volume/cap and FDV/cap bands.
func MarketScore(m domain.CoinMarket, c Criteria) float64 {
	volRatio := 0.0
	fdvPremium := 1.0
	if m.MarketCap > 0 {
		volRatio = m.TotalVolume / m.MarketCap
		fdvPremium = m.FullyDilutedValuation / m.MarketCap
	}
	return bandScore(m.MarketCap, marketCapBands, 10)*c.MarketCapFactor +
		bandScore(volRatio, volumeBands, 20)*c.VolumeRatioFactor +
		fdvScore(fdvPremium)*c.FDVPremiumFactor
}

// FundamentalsScore combines maturity with the team, backing and innovation scores.
func (e *Evaluator) FundamentalsScore(p TokenProfile) float64 {
	c := e.criteria
	years := float64(e.referenceYear - p.Founded)
	return bandScore(years, maturityBands, 30)*c.MaturityFactor +
		score(p.Team)*c.TeamFactor +
		score(p.BackingQ)*c.BackingFactor +
		score(p.Innovation)*c.InnovationFactor
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// ByTier groups results by tier, keeping their order.
func (a *Analysis) ByTier() map[Tier][]Result {
	out := make(map[Tier][]Result)
	for _, r := range a.Results {
		out[r.Tier] = append(out[r.Tier], r)
	}
	return out
}

// STierCount counts S+, S and S- results.
func (a *Analysis) STierCount() int {
	n := 0
	for _, r := range a.Results {
		if r.Tier.IsSTier() {
			n++
		}
	}
	return n
}

// Average returns the mean total score, 0 for an empty analysis.
func (a *Analysis) Average() float64 {
	if len(a.Results) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range a.Results {
		sum += r.Total
	}
	return sum / float64(len(a.Results))
}

// Highest returns the best result. ok is false for an empty analysis.
func (a *Analysis) Highest() (Result, bool) {
	if len(a.Results) == 0 {
		return Result{}, false
	}
	best := a.Results[0]
	for _, r := range a.Results[1:] {
		if r.Total > best.Total {
			best = r
		}
	}
	return best, true
}
