package metrics

import (
	"errors"

	"altcoin-leadlag/internal/domain"
)

// ErrNoRows is returned when the factor table is empty.
var ErrNoRows = errors.New("no factor rows available for summary")

// DefaultColumns are summarised when none are requested.
var DefaultColumns = []string{
	domain.ColETHBTCRet,
	domain.ColOthersBTCRet,
	domain.ColBTCDomChange,
	domain.ColMacroReturn,
	domain.ColQualityRatio,
	domain.ColQualityAlpha,
}

// Summarize summarises columns of rows. Undefined values are counted as missing.
func Summarize(rows []domain.FactorRow, columns []string) ([]domain.ColumnSummary, error) {
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	if len(columns) == 0 {
		columns = DefaultColumns
	}

	out := make([]domain.ColumnSummary, 0, len(columns))
	for _, col := range columns {
		values := make([]float64, 0, len(rows))
		missing := 0
		for i := range rows {
			v, ok, err := rows[i].Value(col)
			if err != nil {
				return nil, err
			}
			if !ok {
				missing++
				continue
			}
			values = append(values, v)
		}
		out = append(out, summarize(col, values, missing))
	}
	return out, nil
}
