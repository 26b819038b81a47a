package domain

// ColumnSummary describes the distribution of one factor column over the defined rows.
type ColumnSummary struct {
	Column  string
	Count   int // defined values
	Missing int // undefined values

	Mean   float64
	Stddev float64 // sample (n-1)
	Min    float64
	P10    float64
	Median float64
	P90    float64
	Max    float64

	PositiveShare     float64 // share of values > 0
	MaxDrawdown       float64 // worst peak-to-trough of the running sum
	MaxNegativeStreak int     // longest run of values <= 0
}
