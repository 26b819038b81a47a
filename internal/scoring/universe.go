package scoring

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// TokenProfile is the static description and hand-assigned scores of one token.
// Nil scores fall back to DefaultScore.
type TokenProfile struct {
	Symbol      string `yaml:"symbol"`
	ID          string `yaml:"id"` // CoinGecko id
	Category    string `yaml:"category"`
	LogoURL     string `yaml:"logo_url"`
	Description string `yaml:"description"`
	Founded     int    `yaml:"founded"`
	Backing     string `yaml:"backing"`

	Team       *float64 `yaml:"team"`
	BackingQ   *float64 `yaml:"backing_quality"`
	Innovation *float64 `yaml:"innovation"`
	Adoption   *float64 `yaml:"adoption"`
	Risk       *float64 `yaml:"risk"` // higher = lower risk
}

// DefaultScore is used for any qualitative score a profile does not set.
const DefaultScore = 50.0

func score(v *float64) float64 {
	if v == nil {
		return DefaultScore
	}
	return *v
}

func s(v float64) *float64 { return &v }

// DefaultUniverse returns the built-in ETH-beta universe.
func DefaultUniverse() []TokenProfile {
	return []TokenProfile{
		{
			Symbol: "LDO", ID: "lido-dao", Category: "LIQUID STAKING",
			LogoURL:     "https://assets.coingecko.com/coins/images/13573/standard/Lido_DAO.png",
			Description: "Leading Ethereum liquid staking protocol", Founded: 2020,
			Backing: "Paradigm, Coinbase Ventures, Three Arrows Capital",
			Team:    s(90), BackingQ: s(95), Innovation: s(85), Adoption: s(95), Risk: s(75),
		},
		{
			Symbol: "RPL", ID: "rocket-pool", Category: "LIQUID STAKING",
			LogoURL:     "https://assets.coingecko.com/coins/images/2090/standard/rocket_pool.png",
			Description: "Decentralized Ethereum staking protocol", Founded: 2016,
			Backing: "ConsenSys, Blockchain Capital",
			Team:    s(80), BackingQ: s(75), Innovation: s(75), Adoption: s(60), Risk: s(80),
		},
		{
			Symbol: "EIGEN", ID: "eigenlayer", Category: "RESTAKING",
			LogoURL:     "https://assets.coingecko.com/coins/images/30060/standard/eigenlayer.png",
			Description: "Restaking infrastructure protocol", Founded: 2021,
			Backing: "Blockchain Capital, Coinbase Ventures, Polychain",
			Team:    s(85), BackingQ: s(90), Innovation: s(100), Adoption: s(70), Risk: s(60),
		},
		{
			Symbol: "ETHFI", ID: "ether-fi", Category: "RESTAKING",
			LogoURL:     "https://assets.coingecko.com/coins/images/35958/standard/etherfi.png",
			Description: "Liquid restaking protocol on EigenLayer", Founded: 2021,
			Backing: "Bullish Ventures, Node Capital",
			Team:    s(75), BackingQ: s(70), Innovation: s(80), Adoption: s(65), Risk: s(65),
		},
		{
			Symbol: "AAVE", ID: "aave", Category: "LENDING",
			LogoURL:     "https://assets.coingecko.com/coins/images/12645/standard/AAVE.png",
			Description: "Leading DeFi lending protocol", Founded: 2017,
			Backing: "Framework Ventures, ParaFi Capital, Three Arrows",
			Team:    s(95), BackingQ: s(90), Innovation: s(90), Adoption: s(90), Risk: s(80),
		},
		{
			Symbol: "PENDLE", ID: "pendle", Category: "YIELD",
			LogoURL:     "https://assets.coingecko.com/coins/images/15069/standard/Pendle_Logo_Normal-03.png",
			Description: "Yield tokenization and trading", Founded: 2021,
			Backing: "Mechanism Capital, Spartan Group",
			Team:    s(80), BackingQ: s(75), Innovation: s(90), Adoption: s(75), Risk: s(75),
		},
		{
			Symbol: "ENA", ID: "ethena", Category: "STABLECOINS",
			LogoURL:     "https://assets.coingecko.com/coins/images/36530/standard/ethena.png",
			Description: "Synthetic USD stablecoin protocol", Founded: 2023,
			Backing: "Dragonfly, Binance Labs, OKX Ventures",
			Team:    s(70), BackingQ: s(85), Innovation: s(85), Adoption: s(80), Risk: s(65),
		},
		{
			Symbol: "SKY", ID: "maker", Category: "RWA/STABLECOINS",
			LogoURL:     "https://assets.coingecko.com/coins/images/1364/standard/Mark_Maker.png",
			Description: "DAI stablecoin and RWA protocol", Founded: 2014,
			Backing: "Andreessen Horowitz, Polychain Capital",
			Team:    s(90), BackingQ: s(85), Innovation: s(70), Adoption: s(65), Risk: s(70),
		},
		{
			Symbol: "ARB", ID: "arbitrum", Category: "INFRA",
			LogoURL:     "https://assets.coingecko.com/coins/images/16547/standard/photo_2023-03-29_21.47.00.jpeg",
			Description: "Leading Ethereum Layer 2 solution", Founded: 2018,
			Backing: "Lightspeed, Polychain, Ribbit Capital",
			Team:    s(90), BackingQ: s(95), Innovation: s(95), Adoption: s(85), Risk: s(85),
		},
		{
			Symbol: "MNT", ID: "mantle", Category: "INFRA",
			LogoURL:     "https://assets.coingecko.com/coins/images/30980/standard/token-logo.png",
			Description: "High-performance Layer 2 network", Founded: 2021,
			Backing: "BitDAO treasury, Bybit",
			Team:    s(75), BackingQ: s(80), Innovation: s(70), Adoption: s(70), Risk: s(70),
		},
		{
			Symbol: "COOK", ID: "meth-protocol", Category: "INFRA",
			LogoURL:     "https://assets.coingecko.com/coins/images/33041/standard/meth.png",
			Description: "Liquid staking with yield optimization", Founded: 2023,
			Backing: "Private investors",
			Team:    s(60), BackingQ: s(40), Innovation: s(60), Adoption: s(45), Risk: s(50),
		},
		{
			Symbol: "CPOOL", ID: "clearpool", Category: "RWA",
			LogoURL:     "https://assets.coingecko.com/coins/images/17816/standard/clearpool-logo.png",
			Description: "Decentralized institutional lending", Founded: 2021,
			Backing: "Sequoia Capital, HashKey Capital",
			Team:    s(70), BackingQ: s(80), Innovation: s(70), Adoption: s(55), Risk: s(60),
		},
		{
			Symbol: "PEPE", ID: "pepe", Category: "MEME",
			LogoURL:     "https://assets.coingecko.com/coins/images/29850/standard/pepe-token.jpeg",
			Description: "Leading Ethereum meme token", Founded: 2023,
			Backing: "Community driven",
			Team:    s(20), BackingQ: s(0), Innovation: s(10), Adoption: s(40), Risk: s(30),
		},
	}
}

type universeFile struct {
	Tokens []TokenProfile `yaml:"tokens"`
}

// LoadUniverse reads a YAML universe file of the form `tokens: [...]`.
func LoadUniverse(path string) ([]TokenProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read universe file: %w", err)
	}
	return ParseUniverse(data)
}

// ParseUniverse decodes and validates a YAML universe.
func ParseUniverse(data []byte) ([]TokenProfile, error) {
	var f universeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse universe: %w", err)
	}
	if len(f.Tokens) == 0 {
		return nil, fmt.Errorf("universe has no tokens")
	}
	seen := make(map[string]bool, len(f.Tokens))
	for i := range f.Tokens {
		t := &f.Tokens[i]
		t.Symbol = strings.ToUpper(strings.TrimSpace(t.Symbol))
		if t.Symbol == "" || t.ID == "" {
			return nil, fmt.Errorf("token %d: symbol and id are required", i)
		}
		if seen[t.Symbol] {
			return nil, fmt.Errorf("duplicate token %s", t.Symbol)
		}
		seen[t.Symbol] = true
	}
	return f.Tokens, nil
}
