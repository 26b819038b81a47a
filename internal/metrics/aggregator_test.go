package metrics

import (
	"errors"
	"testing"

	"altcoin-leadlag/internal/domain"
	"altcoin-leadlag/internal/storage/storagetest"
)

func TestSummarize(t *testing.T) {
	rows := storagetest.FactorRows(6)

	got, err := Summarize(rows, []string{domain.ColETHBTCRet, domain.ColMacroLiquidity})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(got))
	}

	ret := got[0]
	if ret.Column != domain.ColETHBTCRet {
		t.Errorf("column order not preserved: %s", ret.Column)
	}
	// eth_btc_ret is 0.01*i for i=1..5, undefined on the first row.
	if ret.Count != 5 || ret.Missing != 1 {
		t.Errorf("count/missing = %d/%d, want 5/1", ret.Count, ret.Missing)
	}
	if diff := ret.Mean - 0.03; diff > 1e-12 || diff < -1e-12 {
		t.Errorf("mean = %v, want 0.03", ret.Mean)
	}
	if ret.Min != 0.01 || ret.Max != 0.05 {
		t.Errorf("min/max = %v/%v", ret.Min, ret.Max)
	}
	if ret.PositiveShare != 1 || ret.MaxDrawdown != 0 {
		t.Errorf("positive share/drawdown = %v/%v", ret.PositiveShare, ret.MaxDrawdown)
	}

	liq := got[1]
	if liq.Count != 2 || liq.Missing != 4 {
		t.Errorf("macro_liquidity count/missing = %d/%d, want 2/4", liq.Count, liq.Missing)
	}
}

func TestSummarize_Errors(t *testing.T) {
	_, err := Summarize(nil, nil)
	if !errors.Is(err, ErrNoRows) {
		t.Errorf("expected ErrNoRows, got %v", err)
	}

	_, err = Summarize(storagetest.FactorRows(2), []string{"nope"})
	if !errors.Is(err, domain.ErrUnknownColumn) {
		t.Errorf("expected ErrUnknownColumn, got %v", err)
	}
}

func TestSummarize_DefaultColumns(t *testing.T) {
	got, err := Summarize(storagetest.FactorRows(4), nil)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if len(got) != len(DefaultColumns) {
		t.Errorf("expected %d summaries, got %d", len(DefaultColumns), len(got))
	}
}
