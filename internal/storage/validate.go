package storage

import (
	"fmt"

	"altcoin-leadlag/internal/domain"
)

// ValidateMaster checks that dates are strictly increasing.
func ValidateMaster(rows []domain.MasterRow) error {
	for i := 1; i < len(rows); i++ {
		if !rows[i].Date.After(rows[i-1].Date) {
			return fmt.Errorf("%w: master dates not strictly increasing at row %d", ErrInvalidInput, i)
		}
	}
	return nil
}

// ValidateFactors checks that dates are strictly increasing.
func ValidateFactors(rows []domain.FactorRow) error {
	for i := 1; i < len(rows); i++ {
		if !rows[i].Date.After(rows[i-1].Date) {
			return fmt.Errorf("%w: factor dates not strictly increasing at row %d", ErrInvalidInput, i)
		}
	}
	return nil
}

// ValidateResult checks that a regression result can be stored.
func ValidateResult(reg *domain.RegressionResult) error {
	if reg == nil || reg.RunID == "" || len(reg.Terms) == 0 {
		return fmt.Errorf("%w: regression result needs a run id and terms", ErrInvalidInput)
	}
	return nil
}
