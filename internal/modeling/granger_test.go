package modeling

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/stat/distuv"

	"altcoin-leadlag/internal/domain"
)

func TestGranger_NoiseGivesUniformPValues(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 1337))
	const trials = 400
	const n = 120

	below := 0
	sum := 0.0
	for k := 0; k < trials; k++ {
		x := make([]float64, n)
		y := make([]float64, n)
		for i := range x {
			x[i] = rng.NormFloat64()
			y[i] = rng.NormFloat64()
		}
		fit, err := Granger(y, x, 1)
		if err != nil {
			t.Fatalf("Granger: %v", err)
		}
		if fit.PValue < 0 || fit.PValue > 1 {
			t.Fatalf("p-value out of range: %v", fit.PValue)
		}
		if fit.PValue < 0.05 {
			below++
		}
		sum += fit.PValue
	}

	rate := float64(below) / trials
	if rate < 0.01 || rate > 0.10 {
		t.Errorf("rejection rate at 5%% = %.3f, expected near 0.05", rate)
	}
	if mean := sum / trials; mean < 0.42 || mean > 0.58 {
		t.Errorf("mean p-value = %.3f, expected near 0.5", mean)
	}
}

func TestGranger_DetectsLeadingSeries(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	n := 200
	x := make([]float64, n)
	y := make([]float64, n)
	for i := range x {
		x[i] = rng.NormFloat64()
		if i > 0 {
			y[i] = 0.8*x[i-1] + 0.2*rng.NormFloat64()
		}
	}

	fit, err := Granger(y, x, 1)
	if err != nil {
		t.Fatalf("Granger: %v", err)
	}
	if fit.PValue > 1e-6 {
		t.Errorf("p-value = %v, expected strong rejection", fit.PValue)
	}
	if fit.NObs != n-1 || fit.DFNum != 1 || fit.DFDenom != n-1-3 {
		t.Errorf("unexpected dims nobs=%d df=(%d,%d)", fit.NObs, fit.DFNum, fit.DFDenom)
	}
}

func TestGranger_FStatisticFormula(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 9))
	n, p := 60, 2
	x := make([]float64, n)
	y := make([]float64, n)
	for i := range x {
		x[i] = rng.NormFloat64()
		y[i] = rng.NormFloat64()
	}

	fit, err := Granger(y, x, p)
	if err != nil {
		t.Fatalf("Granger: %v", err)
	}
	nobs := n - p
	want := ((fit.SSRR - fit.SSRU) / float64(p)) / (fit.SSRU / float64(nobs-2*p-1))
	if math.Abs(fit.FStat-want) > 1e-12 {
		t.Errorf("F = %v, want %v", fit.FStat, want)
	}
	if fit.SSRU > fit.SSRR {
		t.Errorf("unrestricted SSR %v exceeds restricted %v", fit.SSRU, fit.SSRR)
	}
	wantP := distuv.F{D1: float64(p), D2: float64(nobs - 2*p - 1)}.Survival(want)
	if math.Abs(fit.PValue-wantP) > 1e-12 {
		t.Errorf("p = %v, want %v", fit.PValue, wantP)
	}
}

func TestGranger_Errors(t *testing.T) {
	if _, err := Granger([]float64{1, 2, 3, 4}, []float64{1, 2, 3, 4}, 1); !errors.Is(err, ErrInsufficientObservations) {
		t.Errorf("expected ErrInsufficientObservations, got %v", err)
	}
	if _, err := Granger([]float64{1, 2}, []float64{1}, 1); err == nil {
		t.Error("expected length mismatch error")
	}
	if _, err := Granger([]float64{1, 2, 3}, []float64{1, 2, 3}, 0); err == nil {
		t.Error("expected error for zero lag")
	}
}

func TestLeadLag_DetectsOnePeriodLead(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	n := 200
	eth := make([]float64, n)
	others := make([]float64, n)
	for i := range eth {
		eth[i] = rng.NormFloat64()
		others[i] = 0.2 * rng.NormFloat64()
		if i > 0 {
			others[i] += 0.8 * eth[i-1]
		}
	}
	dom := make([]float64, n)

	res, err := LeadLag(factorRows(eth, others, dom), domain.ColETHBTCRet, domain.ColOthersBTCRet, 1, 1)
	if err != nil {
		t.Fatalf("LeadLag: %v", err)
	}
	if res.Cause != domain.ColETHBTCRet || res.Effect != domain.ColOthersBTCRet || res.Shift != 1 || res.Lag != 1 {
		t.Errorf("unexpected labels %+v", res)
	}
	// one row dropped by the shift, one consumed by the lag
	if res.NObs != n-2 {
		t.Errorf("NObs = %d, want %d", res.NObs, n-2)
	}
	if res.PValue > 1e-6 {
		t.Errorf("p-value = %v, expected strong rejection", res.PValue)
	}

	direct, err := Granger(others[1:], eth[1:], 1)
	if err != nil {
		t.Fatalf("Granger: %v", err)
	}
	if math.Abs(res.FStat-direct.FStat) > 1e-9 {
		t.Errorf("F = %v, want %v from the unshifted cause", res.FStat, direct.FStat)
	}
}

func TestLeadLag_ShiftOnlySelectsRows(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	n := 120
	eth := make([]float64, n)
	others := make([]float64, n)
	for i := range eth {
		eth[i] = rng.NormFloat64()
		others[i] = rng.NormFloat64()
	}
	dom := make([]float64, n)

	res, err := LeadLag(factorRows(eth, others, dom), domain.ColETHBTCRet, domain.ColOthersBTCRet, 3, 2)
	if err != nil {
		t.Fatalf("LeadLag: %v", err)
	}
	want, err := Granger(others[3:], eth[3:], 2)
	if err != nil {
		t.Fatalf("Granger: %v", err)
	}
	if res.NObs != want.NObs || math.Abs(res.FStat-want.FStat) > 1e-9 {
		t.Errorf("got nobs=%d F=%v, want nobs=%d F=%v", res.NObs, res.FStat, want.NObs, want.FStat)
	}
}

func TestLeadLag_Errors(t *testing.T) {
	rows := factorRows([]float64{1, 2, 3}, []float64{1, 2, 3}, []float64{0, 0, 0})
	if _, err := LeadLag(rows, "nope", domain.ColOthersBTCRet, 1, 1); !errors.Is(err, domain.ErrUnknownColumn) {
		t.Errorf("expected ErrUnknownColumn, got %v", err)
	}
	if _, err := LeadLag(rows, domain.ColETHBTCRet, domain.ColOthersBTCRet, 1, 1); !errors.Is(err, ErrInsufficientObservations) {
		t.Errorf("expected ErrInsufficientObservations, got %v", err)
	}
}
