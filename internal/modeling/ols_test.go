package modeling

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"altcoin-leadlag/internal/domain"
	"altcoin-leadlag/internal/series"
)

func TestOLS_RecoversNoiselessCoefficients(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	n := 50
	x1 := make([]float64, n)
	x2 := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x1[i] = rng.NormFloat64()
		x2[i] = rng.NormFloat64()
		y[i] = 2*x1[i] + 3*x2[i]
	}

	res, err := OLS(y, [][]float64{x1, x2}, []string{"x1", "x2"})
	if err != nil {
		t.Fatalf("OLS: %v", err)
	}

	want := map[string]float64{domain.InterceptTerm: 0, "x1": 2, "x2": 3}
	for name, w := range want {
		got, ok := res.Coefficient(name)
		if !ok {
			t.Fatalf("missing term %s", name)
		}
		if math.Abs(got-w) > 1e-10 {
			t.Errorf("%s = %.15f, want %v", name, got, w)
		}
	}
	if res.Terms[0].Name != domain.InterceptTerm {
		t.Errorf("intercept should be first, got %s", res.Terms[0].Name)
	}
	if math.Abs(res.RSquared-1) > 1e-10 {
		t.Errorf("R² = %v, want 1", res.RSquared)
	}
}

func TestOLS_Diagnostics(t *testing.T) {
	y := []float64{1, 2, 3, 5}
	x := []float64{0, 1, 2, 3}

	res, err := OLS(y, [][]float64{x}, []string{"x"})
	if err != nil {
		t.Fatalf("OLS: %v", err)
	}

	checks := []struct {
		name      string
		got, want float64
	}{
		{"intercept", res.Terms[0].Coefficient, 0.8},
		{"slope", res.Terms[1].Coefficient, 1.3},
		{"slope se", res.Terms[1].StdError, math.Sqrt(0.03)},
		{"slope t", res.Terms[1].TStat, 1.3 / math.Sqrt(0.03)},
		{"r2", res.RSquared, 1 - 0.3/8.75},
		{"adj r2", res.AdjRSquared, 1 - (0.3/8.75)*3/2},
		{"f", res.FStatistic, 8.45 / 0.15},
		{"dw", res.DurbinWatson, 0.67 / 0.3},
		{"loglik", res.LogLik, -2 * (math.Log(2*math.Pi) + math.Log(0.3/4) + 1)},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > 1e-9 {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if res.NObs != 4 || res.DFResid != 2 || res.DFModel != 1 {
		t.Errorf("unexpected dims nobs=%d df_resid=%d df_model=%d", res.NObs, res.DFResid, res.DFModel)
	}
	// Single regressor: the F test and the slope t test agree.
	if math.Abs(res.FPValue-res.Terms[1].PValue) > 1e-9 {
		t.Errorf("F p-value %v != slope p-value %v", res.FPValue, res.Terms[1].PValue)
	}
	if res.Terms[1].PValue <= 0 || res.Terms[1].PValue >= 0.05 {
		t.Errorf("slope p-value = %v, expected significant", res.Terms[1].PValue)
	}
}

func TestOLS_Errors(t *testing.T) {
	if _, err := OLS([]float64{1, 2}, [][]float64{{1, 2}}, []string{"x"}); !errors.Is(err, ErrInsufficientObservations) {
		t.Errorf("expected ErrInsufficientObservations, got %v", err)
	}

	x := []float64{1, 2, 3, 4, 5}
	dup := []float64{2, 4, 6, 8, 10}
	y := []float64{1, 3, 2, 5, 4}
	if _, err := OLS(y, [][]float64{x, dup}, []string{"x", "dup"}); !errors.Is(err, ErrSingularDesign) {
		t.Errorf("expected ErrSingularDesign for collinear columns, got %v", err)
	}

	constant := []float64{1, 1, 1, 1, 1}
	if _, err := OLS(y, [][]float64{constant}, []string{"c"}); !errors.Is(err, ErrSingularDesign) {
		t.Errorf("expected ErrSingularDesign for constant regressor, got %v", err)
	}

	if _, err := OLS(y, [][]float64{x[:3]}, []string{"x"}); err == nil {
		t.Error("expected length mismatch error")
	}
}

func factorRows(eth, others, dom []float64) []domain.FactorRow {
	start := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)
	rows := make([]domain.FactorRow, len(eth))
	for i := range eth {
		rows[i] = domain.FactorRow{
			MasterRow:    domain.MasterRow{Date: start.AddDate(0, 0, 7*i), BTCDom: 0.5},
			ETHBTCRet:    series.Ptr(eth[i]),
			OthersBTCRet: series.Ptr(others[i]),
			BTCDomChange: series.Ptr(dom[i]),
		}
	}
	return rows
}

func TestRegress_DropsUndefinedRows(t *testing.T) {
	nan := math.NaN()
	eth := []float64{nan, 1, 2, 3, 4, 5, 6}
	dom := []float64{0, 0.5, -1, 2, 0, 1, 7}
	others := make([]float64, len(eth))
	for i := range eth {
		others[i] = 0.5 + 1.5*eth[i] - 2*dom[i]
	}
	others[3] = nan

	res, err := Regress(factorRows(eth, others, dom), domain.ColOthersBTCRet, []string{domain.ColETHBTCRet, domain.ColBTCDomChange})
	if err != nil {
		t.Fatalf("Regress: %v", err)
	}
	if res.NObs != 5 {
		t.Errorf("NObs = %d, want 5", res.NObs)
	}
	if res.Target != domain.ColOthersBTCRet {
		t.Errorf("Target = %s", res.Target)
	}
	if b, _ := res.Coefficient(domain.ColETHBTCRet); math.Abs(b-1.5) > 1e-9 {
		t.Errorf("eth coefficient = %v, want 1.5", b)
	}
	if b, _ := res.Coefficient(domain.ColBTCDomChange); math.Abs(b+2) > 1e-9 {
		t.Errorf("dom coefficient = %v, want -2", b)
	}
}

func TestRegress_UnknownColumn(t *testing.T) {
	rows := factorRows([]float64{1, 2, 3}, []float64{1, 2, 3}, []float64{1, 2, 3})
	if _, err := Regress(rows, "alt_ret", []string{domain.ColETHBTCRet}); !errors.Is(err, domain.ErrUnknownColumn) {
		t.Errorf("expected ErrUnknownColumn, got %v", err)
	}
}

func TestRegress_TooFewRowsAfterDropping(t *testing.T) {
	nan := math.NaN()
	rows := factorRows([]float64{nan, 1, 2}, []float64{1, 2, 3}, []float64{1, 2, 3})
	_, err := Regress(rows, domain.ColOthersBTCRet, []string{domain.ColETHBTCRet, domain.ColBTCDomChange})
	if !errors.Is(err, ErrInsufficientObservations) {
		t.Errorf("expected ErrInsufficientObservations, got %v", err)
	}
}
