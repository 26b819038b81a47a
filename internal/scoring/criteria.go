package scoring

// Criteria holds the weights of the four sub-scores and of their factors.
type Criteria struct {
	MarketWeight       float64
	FundamentalsWeight float64
	AdoptionWeight     float64
	RiskWeight         float64

	// Market factors
	MarketCapFactor   float64
	VolumeRatioFactor float64
	FDVPremiumFactor  float64

	// Fundamentals factors
	MaturityFactor   float64
	TeamFactor       float64
	BackingFactor    float64
	InnovationFactor float64
}

// DefaultCriteria returns the standard weighting.
func DefaultCriteria() Criteria {
	return Criteria{
		MarketWeight:       0.25,
		FundamentalsWeight: 0.30,
		AdoptionWeight:     0.25,
		RiskWeight:         0.20,

		MarketCapFactor:   0.4,
		VolumeRatioFactor: 0.3,
		FDVPremiumFactor:  0.3,

		MaturityFactor:   0.3,
		TeamFactor:       0.25,
		BackingFactor:    0.25,
		InnovationFactor: 0.2,
	}
}

// band maps a value to the score of the first threshold it reaches.
type band struct {
	min   float64
	score float64
}

// Bands are ordered from the highest threshold down.
var (
	marketCapBands = []band{{5e9, 100}, {1e9, 85}, {500e6, 70}, {100e6, 50}, {50e6, 30}}
	volumeBands    = []band{{0.3, 100}, {0.15, 80}, {0.05, 60}, {0.01, 40}}
	maturityBands  = []band{{6, 100}, {4, 85}, {2, 70}, {1, 50}}
)

func bandScore(v float64, bands []band, floor float64) float64 {
	for _, b := range bands {
		if v >= b.min {
			return b.score
		}
	}
	return floor
}

// fdvScore rewards a small fully-diluted premium over market cap.
func fdvScore(premium float64) float64 {
	switch {
	case premium <= 1.2:
		return 100
	case premium <= 2.0:
		return 75
	case premium <= 3.0:
		return 50
	case premium <= 5.0:
		return 25
	default:
		return 0
	}
}

// Tier is a discrete rating label.
type Tier string

// Tiers from best to worst. TierF marks a token missing from market data.
const (
	TierSPlus  Tier = "S+"
	TierS      Tier = "S"
	TierSMinus Tier = "S-"
	TierAPlus  Tier = "A+"
	TierA      Tier = "A"
	TierAMinus Tier = "A-"
	TierBPlus  Tier = "B+"
	TierB      Tier = "B"
	TierBMinus Tier = "B-"
	TierC      Tier = "C"
	TierD      Tier = "D"
	TierF      Tier = "F"
)

// TierOrder lists every tier in report order.
var TierOrder = []Tier{
	TierSPlus, TierS, TierSMinus, TierAPlus, TierA, TierAMinus,
	TierBPlus, TierB, TierBMinus, TierC, TierD, TierF,
}

var tierBands = []struct {
	min  float64
	tier Tier
}{
	{85, TierSPlus}, {80, TierS}, {75, TierSMinus},
	{70, TierAPlus}, {65, TierA}, {60, TierAMinus},
	{55, TierBPlus}, {50, TierB}, {45, TierBMinus},
	{40, TierC},
}

// TierFor maps a total score to its tier.
func TierFor(total float64) Tier {
	for _, b := range tierBands {
		if total >= b.min {
			return b.tier
		}
	}
	return TierD
}

// IsSTier reports whether t is one of S+, S, S-.
func (t Tier) IsSTier() bool {
	return t == TierSPlus || t == TierS || t == TierSMinus
}
