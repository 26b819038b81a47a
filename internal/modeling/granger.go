package modeling

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"altcoin-leadlag/internal/domain"
	"altcoin-leadlag/internal/series"
)

// GrangerFit is the SSR F-test of "x Granger-causes y" at one lag order.
type GrangerFit struct {
	NObs    int
	SSRR    float64 // restricted: y on its own lags
	SSRU    float64 // unrestricted: y on its own lags and lags of x
	FStat   float64
	DFNum   int
	DFDenom int
	PValue  float64
}

// Granger tests whether lags 1..p of x improve the prediction of y beyond
// lags 1..p of y. x and y must be equally long and fully defined.
//
//	F = ((SSR_r - SSR_u) / p) / (SSR_u / (n - 2p - 1))
//
// where n = len(y) - p is the number of usable observations.
func Granger(y, x []float64, p int) (*GrangerFit, error) {
	if p < 1 {
		return nil, fmt.Errorf("lag order must be positive, got %d", p)
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("series lengths differ: %d and %d", len(y), len(x))
	}
	n := len(y) - p
	dfDenom := n - 2*p - 1
	if n <= 0 || dfDenom < 1 {
		return nil, fmt.Errorf("%w: %d rows for lag order %d", ErrInsufficientObservations, len(y), p)
	}

	restricted := mat.NewDense(n, p+1, nil)
	unrestricted := mat.NewDense(n, 2*p+1, nil)
	target := make([]float64, n)
	for i := 0; i < n; i++ {
		t := i + p
		target[i] = y[t]
		restricted.Set(i, 0, 1)
		unrestricted.Set(i, 0, 1)
		for l := 1; l <= p; l++ {
			restricted.Set(i, l, y[t-l])
			unrestricted.Set(i, l, y[t-l])
			unrestricted.Set(i, p+l, x[t-l])
		}
	}

	r, err := solve(restricted, target)
	if err != nil {
		return nil, fmt.Errorf("restricted model: %w", err)
	}
	u, err := solve(unrestricted, target)
	if err != nil {
		return nil, fmt.Errorf("unrestricted model: %w", err)
	}

	fit := &GrangerFit{
		NObs:    n,
		SSRR:    r.ssr,
		SSRU:    u.ssr,
		DFNum:   p,
		DFDenom: dfDenom,
	}
	fit.FStat = ((r.ssr - u.ssr) / float64(p)) / (u.ssr / float64(dfDenom))
	fit.PValue = distuv.F{D1: float64(p), D2: float64(dfDenom)}.Survival(fit.FStat)
	if math.IsNaN(fit.FStat) {
		fit.PValue = math.NaN()
	}
	return fit, nil
}

// LeadLag tests "cause Granger-causes effect" at lag order lag. The cause
// shifted forward by shift periods only selects the rows: rows where the
// shifted cause, the cause or the effect is undefined are dropped, then the
// test runs on the unshifted cause.
func LeadLag(rows []domain.FactorRow, cause, effect string, shift, lag int) (*domain.GrangerResult, error) {
	if shift < 0 {
		return nil, fmt.Errorf("shift must not be negative, got %d", shift)
	}
	data, err := Columns(rows, []string{cause, effect})
	if err != nil {
		return nil, err
	}

	const lagged = "cause_lag"
	table := &series.Table{
		Index: dates(rows),
		Columns: map[string][]float64{
			lagged: series.Shift(data[cause], shift),
			cause:  data[cause],
			effect: data[effect],
		},
	}
	table = table.DropUndefined(lagged, cause, effect)

	fit, err := Granger(table.Columns[effect], table.Columns[cause], lag)
	if err != nil {
		return nil, fmt.Errorf("granger %s -> %s: %w", cause, effect, err)
	}
	return &domain.GrangerResult{
		Cause:   cause,
		Effect:  effect,
		Shift:   shift,
		Lag:     lag,
		NObs:    fit.NObs,
		FStat:   fit.FStat,
		DFNum:   fit.DFNum,
		DFDenom: fit.DFDenom,
		PValue:  fit.PValue,
	}, nil
}
