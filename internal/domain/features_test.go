package domain

import (
	"errors"
	"testing"
	"time"
)

func ptr(v float64) *float64 { return &v }

func TestFactorRow_Value(t *testing.T) {
	row := FactorRow{
		MasterRow: MasterRow{
			Date:      time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC),
			BTCCap:    100,
			OthersCap: 40,
		},
		ETHBTC:       ptr(0.5),
		QualityRatio: 0.25,
	}

	tests := []struct {
		column  string
		want    float64
		defined bool
	}{
		{ColBTCCap, 100, true},
		{ColOthersCap, 40, true},
		{ColETHBTC, 0.5, true},
		{ColETHBTCRet, 0, false},
		{ColQualityRatio, 0.25, true},
		{ColQualityAlpha, 0, true},
	}

	for _, tt := range tests {
		got, ok, err := row.Value(tt.column)
		if err != nil {
			t.Fatalf("Value(%s): %v", tt.column, err)
		}
		if ok != tt.defined || got != tt.want {
			t.Errorf("Value(%s) = %v, %v; want %v, %v", tt.column, got, ok, tt.want, tt.defined)
		}
	}
}

func TestFactorRow_ValueUnknownColumn(t *testing.T) {
	var row FactorRow
	_, _, err := row.Value("SOL_BTC")
	if !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("expected ErrUnknownColumn, got %v", err)
	}
}

func TestFactorColumnsAreAddressable(t *testing.T) {
	var row FactorRow
	for _, c := range FactorColumns {
		if !IsFactorColumn(c) {
			t.Errorf("IsFactorColumn(%s) = false", c)
		}
		if _, _, err := row.Value(c); err != nil {
			t.Errorf("Value(%s): %v", c, err)
		}
	}
	if IsFactorColumn("const") {
		t.Error("const is not a factor column")
	}
}

func TestFrequency_Valid(t *testing.T) {
	if !FrequencyDaily.Valid() || !FrequencyWeekly.Valid() {
		t.Error("D and W must be valid")
	}
	if Frequency("M").Valid() {
		t.Error("M must be invalid")
	}
}
