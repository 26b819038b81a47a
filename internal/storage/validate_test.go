package storage

import (
	"errors"
	"testing"
	"time"

	"altcoin-leadlag/internal/domain"
)

func TestValidateMaster(t *testing.T) {
	d0 := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)
	ok := []domain.MasterRow{{Date: d0}, {Date: d0.AddDate(0, 0, 7)}}
	if err := ValidateMaster(ok); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	dup := []domain.MasterRow{{Date: d0}, {Date: d0}}
	if err := ValidateMaster(dup); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for duplicate dates, got %v", err)
	}
}

func TestValidateFactors(t *testing.T) {
	d0 := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)
	rows := []domain.FactorRow{
		{MasterRow: domain.MasterRow{Date: d0.AddDate(0, 0, 7)}},
		{MasterRow: domain.MasterRow{Date: d0}},
	}
	if err := ValidateFactors(rows); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for decreasing dates, got %v", err)
	}
	if err := ValidateFactors(nil); err != nil {
		t.Errorf("empty table should be valid: %v", err)
	}
}

func TestValidateResult(t *testing.T) {
	if err := ValidateResult(nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for nil result, got %v", err)
	}
	reg := &domain.RegressionResult{RunID: "run-1"}
	if err := ValidateResult(reg); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput without terms, got %v", err)
	}
	reg.Terms = []domain.RegressionTerm{{Name: domain.InterceptTerm}}
	if err := ValidateResult(reg); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
