package domain

import "time"

// InterceptTerm names the constant regressor.
const InterceptTerm = "const"

// RegressionTerm is one fitted coefficient.
type RegressionTerm struct {
	Name        string
	Coefficient float64
	StdError    float64
	TStat       float64
	PValue      float64
}

// RegressionResult is a full-sample OLS fit. Overwritten wholesale on re-run.
type RegressionResult struct {
	RunID        string
	Target       string
	Terms        []RegressionTerm // intercept first, then independents in config order
	NObs         int
	DFResid      int
	DFModel      int
	RSquared     float64
	AdjRSquared  float64
	FStatistic   float64
	FPValue      float64
	LogLik       float64
	AIC          float64
	BIC          float64
	DurbinWatson float64
	FittedAt     time.Time
}

// Coefficient returns the coefficient of the named term.
func (r *RegressionResult) Coefficient(name string) (float64, bool) {
	for _, t := range r.Terms {
		if t.Name == name {
			return t.Coefficient, true
		}
	}
	return 0, false
}

// GrangerResult is an SSR-based F-test of "Cause Granger-causes Effect".
type GrangerResult struct {
	Cause   string
	Effect  string
	Shift   int // periods of cause shift used to select rows
	Lag     int // lag order of the test
	NObs    int
	FStat   float64
	DFNum   int
	DFDenom int
	PValue  float64
}
