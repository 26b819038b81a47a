package reporting

import (
	"time"

	"altcoin-leadlag/internal/domain"
	"altcoin-leadlag/internal/modeling"
)

// Report is the run report of the lead-lag pipeline.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	Frequency   domain.Frequency

	DataSummary DataSummary

	// Model results; nil when the model stage has not run.
	Regression *domain.RegressionResult
	Granger    *domain.GrangerResult

	// Descriptive statistics of the model columns, in column order.
	FactorSummary []domain.ColumnSummary

	// Pearson correlations of the model columns.
	Correlations *modeling.CorrelationMatrix

	// Latest defined rolling correlation, nil if the window never filled.
	Rolling       *RollingSummary
	RollingSeries []modeling.RollingPoint
}

// DataSummary describes the stored tables.
type DataSummary struct {
	MasterRows int
	FactorRows int
	FirstDate  time.Time // first factor row
	LastDate   time.Time // last factor row
}

// RollingSummary is the tail of a rolling correlation series.
type RollingSummary struct {
	A, B    string
	Window  int
	Date    time.Time
	Value   float64
	Defined int // number of defined points
}
