// Package betaplays builds the Ethereum beta-plays sheet from live market data.
package betaplays

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"altcoin-leadlag/internal/coingecko"
	"altcoin-leadlag/internal/domain"
)

// Header is the sheet header row.
var Header = []string{"TICKER", "CATEGORY", "PRICE", "MARKET_CAP", "FDV", "CHANGE_24H", "CHANGE_7D", "VOLUME_24H", "EXPLANATION"}

// Token is one sheet entry.
type Token struct {
	Ticker      string
	ID          string // CoinGecko id
	Category    string
	Explanation string
}

// Row is one rendered sheet row. Found is false when the token had no market data,
// in which case every number is zero.
type Row struct {
	Ticker      string
	Category    string
	Price       decimal.Decimal
	MarketCap   float64
	FDV         float64
	Change24h   string
	Change7d    string
	Volume24h   float64
	Explanation string
	Found       bool
}

// Record renders the row as sheet cells.
func (r Row) Record() []string {
	return []string{
		r.Ticker,
		r.Category,
		r.Price.String(),
		decimal.NewFromFloat(r.MarketCap).String(),
		decimal.NewFromFloat(r.FDV).String(),
		r.Change24h,
		r.Change7d,
		decimal.NewFromFloat(r.Volume24h).String(),
		r.Explanation,
	}
}

// categoryPriority orders categories in the sheet. Unknown categories sort with MEME.
var categoryPriority = map[string]int{
	"LIQUID STAKING":  1,
	"RESTAKING":       2,
	"LENDING":         3,
	"YIELD":           4,
	"STABLECOINS":     5,
	"RWA/STABLECOINS": 6,
	"DEX":             7,
	"INFRA":           8,
	"RWA":             9,
	"MEME":            10,
}

const otherPriority = 10

func priority(category string) int {
	if p, ok := categoryPriority[category]; ok {
		return p
	}
	return otherPriority
}

// DefaultTokens returns the built-in sheet tokens.
func DefaultTokens() []Token {
	return []Token{
		{"LDO", "lido-dao", "LIQUID STAKING", "Lido is a leading Ethereum liquid staking protocol that issues stETH, a liquid staking token used in DeFi and restaking protocols."},
		{"ENA", "ethena", "STABLECOINS", "Ethena is a protocol that issues USDe, a synthetic stablecoin pegged to USD using ETH collateral and derivatives hedging."},
		{"PEPE", "pepe", "MEME", "One of the most recognized memes online and after SHIB the biggest meme token on Ethereum."},
		{"ARB", "arbitrum", "INFRA", "Arbitrum is a Layer 2 scaling solution for Ethereum using optimistic rollups technology."},
		{"RPL", "rocket-pool", "LIQUID STAKING", "Rocket Pool issues rETH, a liquid staking token, with RPL used for node operator incentives."},
		{"ETHFI", "ether-fi", "RESTAKING", "Ether.fi is an advanced liquidity restaking protocol that leverages EigenLayer to restake ETH and LSTs, issuing eETH."},
		{"EIGEN", "eigenlayer", "RESTAKING", "EigenLayer introduces restaking, a new primitive in cryptoeconomic security enabling reuse of ETH on consensus layer."},
		{"AAVE", "aave", "LENDING", "Aave is an open-source, non-custodial protocol to earn interest on deposits and borrow assets."},
		{"MNT", "mantle", "INFRA", "Mantle is a high-performance Ethereum Layer 2 network built with modular architecture."},
		{"COOK", "meth-protocol", "INFRA", "METH Protocol provides liquid staking solutions for ETH with yield optimization features."},
		{"FLUID", "fluid", "DEX", "Fluid is a DEX protocol focusing on capital efficiency and advanced liquidity management."},
		{"PENDLE", "pendle", "YIELD", "Pendle Finance enables trading of tokenized future yield on an automated market maker system."},
		{"SKY", "maker", "RWA/STABLECOINS", "Sky (formerly Maker) protocol issues DAI stablecoin and is expanding into real-world asset tokenization."},
		{"CPOOL", "clearpool", "RWA", "Clearpool is a decentralized marketplace for uncollateralized institutional loans."},
	}
}

// BuildRows joins tokens with market data by id and sorts by category priority, then ticker.
func BuildRows(tokens []Token, coins []domain.CoinMarket) []Row {
	byID := domain.ByID(coins)
	rows := make([]Row, 0, len(tokens))
	for _, t := range tokens {
		row := Row{
			Ticker:      t.Ticker,
			Category:    t.Category,
			Change24h:   formatChange(0),
			Change7d:    formatChange(0),
			Explanation: t.Explanation,
		}
		if c, ok := byID[t.ID]; ok {
			row.Price = c.CurrentPrice
			row.MarketCap = c.MarketCap
			row.FDV = c.FullyDilutedValuation
			row.Volume24h = c.TotalVolume
			row.Change24h = formatChange(c.PriceChange24hPct)
			row.Change7d = formatChange(c.PriceChange7dPct)
			row.Found = true
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		pi, pj := priority(rows[i].Category), priority(rows[j].Category)
		if pi != pj {
			return pi < pj
		}
		return rows[i].Ticker < rows[j].Ticker
	})
	return rows
}

func formatChange(pct float64) string {
	return fmt.Sprintf("%.2f%%", pct)
}

// MarketSource lists live market data for a set of coin ids.
type MarketSource interface {
	CoinsMarkets(ctx context.Context, q coingecko.MarketsQuery) ([]domain.CoinMarket, error)
}

// Fetch loads market data for tokens and builds the sheet rows.
func Fetch(ctx context.Context, market MarketSource, tokens []Token, logger *zap.Logger) ([]Row, error) {
	ids := make([]string, len(tokens))
	for i, t := range tokens {
		ids[i] = t.ID
	}
	coins, err := market.CoinsMarkets(ctx, coingecko.MarketsQuery{
		IDs:         ids,
		PerPage:     100,
		Page:        1,
		PriceChange: []string{"24h", "7d"},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch market data: %w", err)
	}
	rows := BuildRows(tokens, coins)
	for _, r := range rows {
		if !r.Found {
			logger.Warn("token missing from market data", zap.String("ticker", r.Ticker))
		}
	}
	return rows, nil
}
