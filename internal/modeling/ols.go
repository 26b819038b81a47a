// Package modeling fits the lead-lag models: OLS of a target factor on a set
// of independent factors, and a Granger-causality F-test between two return
// series.
package modeling

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"altcoin-leadlag/internal/domain"
	"altcoin-leadlag/internal/series"
)

// Fit errors.
var (
	ErrInsufficientObservations = errors.New("insufficient observations")
	ErrSingularDesign           = errors.New("singular design matrix")
)

// rankTolerance is the relative size below which a diagonal entry of R marks
// a rank deficient design.
const rankTolerance = 1e-10

// lstsq is a least-squares solution of y ~ X.
type lstsq struct {
	beta   []float64
	resid  []float64
	ssr    float64
	xtxInv *mat.Dense // (XᵀX)⁻¹
}

// solve fits y ~ X by QR decomposition.
func solve(x *mat.Dense, y []float64) (*lstsq, error) {
	n, k := x.Dims()
	if n <= k {
		return nil, fmt.Errorf("%w: %d rows for %d regressors", ErrInsufficientObservations, n, k)
	}

	var qr mat.QR
	qr.Factorize(x)

	var r mat.Dense
	qr.RTo(&r)
	maxDiag := 0.0
	for i := 0; i < k; i++ {
		maxDiag = math.Max(maxDiag, math.Abs(r.At(i, i)))
	}
	for i := 0; i < k; i++ {
		if maxDiag == 0 || math.Abs(r.At(i, i)) <= rankTolerance*maxDiag {
			return nil, ErrSingularDesign
		}
	}

	yv := mat.NewDense(n, 1, append([]float64(nil), y...))
	var b mat.Dense
	if err := qr.SolveTo(&b, false, yv); err != nil {
		var cond mat.Condition
		if errors.As(err, &cond) {
			return nil, fmt.Errorf("%w: %v", ErrSingularDesign, err)
		}
		return nil, err
	}

	upper := mat.NewTriDense(k, mat.Upper, nil)
	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			upper.SetTri(i, j, r.At(i, j))
		}
	}
	var rInv mat.TriDense
	if err := rInv.InverseTri(upper); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingularDesign, err)
	}
	var xtxInv mat.Dense
	xtxInv.Mul(&rInv, rInv.T())

	out := &lstsq{
		beta:   mat.Col(nil, 0, &b),
		resid:  make([]float64, n),
		xtxInv: &xtxInv,
	}
	for i := 0; i < n; i++ {
		fitted := 0.0
		for j := 0; j < k; j++ {
			fitted += x.At(i, j) * out.beta[j]
		}
		out.resid[i] = y[i] - fitted
		out.ssr += out.resid[i] * out.resid[i]
	}
	return out, nil
}

// OLS fits y = b0 + Σ bj·xj by ordinary least squares. columns holds one
// slice per regressor, each as long as y, named by names. All values must be
// defined.
func OLS(y []float64, columns [][]float64, names []string) (*domain.RegressionResult, error) {
	if len(columns) != len(names) {
		return nil, fmt.Errorf("got %d columns for %d names", len(columns), len(names))
	}
	n := len(y)
	k := len(columns) + 1
	for j, col := range columns {
		if len(col) != n {
			return nil, fmt.Errorf("column %s has %d values, want %d", names[j], len(col), n)
		}
	}
	if n <= k {
		return nil, fmt.Errorf("%w: %d rows for %d regressors", ErrInsufficientObservations, n, k)
	}

	x := mat.NewDense(n, k, nil)
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
		for j, col := range columns {
			x.Set(i, j+1, col[i])
		}
	}

	fit, err := solve(x, y)
	if err != nil {
		return nil, err
	}

	dfResid := n - k
	dfModel := k - 1
	sigma2 := fit.ssr / float64(dfResid)

	mean := 0.0
	for _, v := range y {
		mean += v
	}
	mean /= float64(n)
	sst := 0.0
	for _, v := range y {
		sst += (v - mean) * (v - mean)
	}

	res := &domain.RegressionResult{
		NObs:    n,
		DFResid: dfResid,
		DFModel: dfModel,
	}

	tdist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(dfResid)}
	termNames := append([]string{domain.InterceptTerm}, names...)
	res.Terms = make([]domain.RegressionTerm, k)
	for j := 0; j < k; j++ {
		se := math.Sqrt(sigma2 * fit.xtxInv.At(j, j))
		tstat := fit.beta[j] / se
		res.Terms[j] = domain.RegressionTerm{
			Name:        termNames[j],
			Coefficient: fit.beta[j],
			StdError:    se,
			TStat:       tstat,
			PValue:      2 * tdist.Survival(math.Abs(tstat)),
		}
	}

	if sst > 0 {
		res.RSquared = 1 - fit.ssr/sst
		res.AdjRSquared = 1 - (1-res.RSquared)*float64(n-1)/float64(dfResid)
	} else {
		res.RSquared = math.NaN()
		res.AdjRSquared = math.NaN()
	}
	if dfModel > 0 {
		res.FStatistic = ((sst - fit.ssr) / float64(dfModel)) / sigma2
		res.FPValue = distuv.F{D1: float64(dfModel), D2: float64(dfResid)}.Survival(res.FStatistic)
	} else {
		res.FStatistic = math.NaN()
		res.FPValue = math.NaN()
	}

	nf := float64(n)
	res.LogLik = -nf / 2 * (math.Log(2*math.Pi) + math.Log(fit.ssr/nf) + 1)
	res.AIC = -2*res.LogLik + 2*float64(k)
	res.BIC = -2*res.LogLik + float64(k)*math.Log(nf)
	res.DurbinWatson = durbinWatson(fit.resid, fit.ssr)
	return res, nil
}

func durbinWatson(resid []float64, ssr float64) float64 {
	if ssr == 0 {
		return math.NaN()
	}
	num := 0.0
	for i := 1; i < len(resid); i++ {
		d := resid[i] - resid[i-1]
		num += d * d
	}
	return num / ssr
}

// Regress fits target on independent over the factor table. Rows where the
// target or any independent column is undefined are dropped first.
func Regress(rows []domain.FactorRow, target string, independent []string) (*domain.RegressionResult, error) {
	if len(independent) == 0 {
		return nil, errors.New("no independent columns")
	}
	cols := append([]string{target}, independent...)
	data, err := Columns(rows, cols)
	if err != nil {
		return nil, err
	}
	table := &series.Table{Index: dates(rows), Columns: data}
	table = table.DropUndefined(cols...)

	x := make([][]float64, len(independent))
	for j, name := range independent {
		x[j] = table.Columns[name]
	}
	res, err := OLS(table.Columns[target], x, independent)
	if err != nil {
		return nil, fmt.Errorf("regress %s: %w", target, err)
	}
	res.Target = target
	return res, nil
}

// Columns extracts named factor columns; undefined values become NaN.
func Columns(rows []domain.FactorRow, names []string) (map[string][]float64, error) {
	out := make(map[string][]float64, len(names))
	for _, name := range names {
		if !domain.IsFactorColumn(name) {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownColumn, name)
		}
		col := make([]float64, len(rows))
		for i := range rows {
			v, ok, err := rows[i].Value(name)
			if err != nil {
				return nil, err
			}
			if !ok {
				v = math.NaN()
			}
			col[i] = v
		}
		out[name] = col
	}
	return out, nil
}

func dates(rows []domain.FactorRow) []time.Time {
	out := make([]time.Time, len(rows))
	for i, r := range rows {
		out[i] = r.Date
	}
	return out
}
