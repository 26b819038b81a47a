package domain

import "time"

// Frequency is the calendar a master table is resampled to.
type Frequency string

// Supported resampling frequencies.
const (
	FrequencyDaily  Frequency = "D"
	FrequencyWeekly Frequency = "W" // weeks end on Sunday (UTC)
)

// Valid reports whether f is a supported frequency.
func (f Frequency) Valid() bool {
	return f == FrequencyDaily || f == FrequencyWeekly
}

// Observation is one raw point of a fetched series.
type Observation struct {
	Time  time.Time // UTC
	Value float64
}

// MasterRow is one aligned, resampled row of the combined market table.
// Every field is defined: rows with gaps are dropped before persisting.
type MasterRow struct {
	Date        time.Time // bucket date (UTC midnight)
	BTCCap      float64   // bitcoin market cap (USD)
	ETHCap      float64   // ethereum market cap (USD)
	TotalCap    float64   // global crypto market cap (USD)
	OthersCap   float64   // TotalCap - BTCCap - ETHCap
	BTCDom      float64   // BTCCap / TotalCap
	ETHDom      float64   // ETHCap / TotalCap
	MacroReturn float64   // macro proxy period return
}

// Master table series identifiers, used as cache keys and log fields.
const (
	SeriesBitcoin  = "bitcoin"
	SeriesEthereum = "ethereum"
	SeriesTotal    = "TOTAL"
	SeriesMacro    = "macro_liquidity"
)
