// Package storagetest holds behavioural tests shared by every storage backend.
package storagetest

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"altcoin-leadlag/internal/domain"
	"altcoin-leadlag/internal/storage"
)

func day(d int) time.Time {
	return time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 7*d)
}

func ptr(v float64) *float64 { return &v }

// MasterRows returns n weekly rows with distinct values.
func MasterRows(n int) []domain.MasterRow {
	rows := make([]domain.MasterRow, n)
	for i := range rows {
		btc := 800e9 + float64(i)*1e9
		eth := 250e9 + float64(i)*5e8
		total := 1.6e12 + float64(i)*2e9
		rows[i] = domain.MasterRow{
			Date:        day(i),
			BTCCap:      btc,
			ETHCap:      eth,
			TotalCap:    total,
			OthersCap:   total - btc - eth,
			BTCDom:      btc / total,
			ETHDom:      eth / total,
			MacroReturn: 0.001 * float64(i-1),
		}
	}
	return rows
}

// FactorRows returns n rows whose first row carries undefined returns.
func FactorRows(n int) []domain.FactorRow {
	master := MasterRows(n)
	rows := make([]domain.FactorRow, n)
	for i := range rows {
		rows[i] = domain.FactorRow{
			MasterRow:    master[i],
			ETHBTC:       ptr(master[i].ETHCap / master[i].BTCCap),
			OthersBTC:    ptr(master[i].OthersCap / master[i].BTCCap),
			OthersETH:    ptr(master[i].OthersCap / master[i].ETHCap),
			QualityRatio: 0.4 + 0.01*float64(i),
		}
		if i > 0 {
			rows[i].ETHBTCRet = ptr(0.01 * float64(i))
			rows[i].OthersBTCRet = ptr(-0.02 * float64(i))
			rows[i].BTCDomChange = ptr(master[i].BTCDom - master[i-1].BTCDom)
			rows[i].QualityAlpha = 0.01
		}
		if i > 2 {
			rows[i].MacroLiquidity = ptr(0.0005 * float64(i))
		}
	}
	return rows
}

// Result returns a stored-shape regression and Granger result.
func Result() (*domain.RegressionResult, *domain.GrangerResult) {
	reg := &domain.RegressionResult{
		RunID:  "run-1",
		Target: domain.ColOthersBTCRet,
		Terms: []domain.RegressionTerm{
			{Name: domain.InterceptTerm, Coefficient: 0.001, StdError: 0.002, TStat: 0.5, PValue: 0.62},
			{Name: domain.ColETHBTCRet, Coefficient: 1.2, StdError: 0.1, TStat: 12, PValue: 1e-9},
		},
		NObs:         52,
		DFResid:      50,
		DFModel:      1,
		RSquared:     0.74,
		AdjRSquared:  math.NaN(),
		FStatistic:   144,
		FPValue:      1e-9,
		LogLik:       101.5,
		AIC:          -199,
		BIC:          -195.1,
		DurbinWatson: 1.9,
		FittedAt:     time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	g := &domain.GrangerResult{
		Cause: domain.ColETHBTCRet, Effect: domain.ColOthersBTCRet,
		Shift: 1, Lag: 1, NObs: 50, FStat: 3.2, DFNum: 1, DFDenom: 47, PValue: 0.08,
	}
	return reg, g
}

// TestMasterStore runs the master table contract against s. s must be empty.
func TestMasterStore(t *testing.T, s storage.MasterStore) {
	t.Helper()
	ctx := context.Background()

	ok, err := s.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = s.Load(ctx)
	require.ErrorIs(t, err, storage.ErrNotFound)

	rows := MasterRows(5)
	require.NoError(t, s.Replace(ctx, rows))
	ok, err = s.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, len(rows))
	for i := range rows {
		assert.True(t, rows[i].Date.Equal(got[i].Date), "row %d date", i)
		assert.InDelta(t, rows[i].BTCCap, got[i].BTCCap, 1e-3, "row %d", i)
		assert.InDelta(t, rows[i].OthersCap, got[i].OthersCap, 1e-3, "row %d", i)
		assert.InDelta(t, rows[i].BTCDom, got[i].BTCDom, 1e-12, "row %d", i)
		assert.InDelta(t, rows[i].MacroReturn, got[i].MacroReturn, 1e-12, "row %d", i)
	}

	// Replace overwrites, never appends.
	require.NoError(t, s.Replace(ctx, rows[:2]))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	bad := []domain.MasterRow{rows[1], rows[0]}
	require.ErrorIs(t, s.Replace(ctx, bad), storage.ErrInvalidInput)

	require.NoError(t, s.Delete(ctx))
	require.NoError(t, s.Delete(ctx))
	ok, err = s.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestFactorStore runs the factor table contract against s. s must be empty.
func TestFactorStore(t *testing.T, s storage.FactorStore) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Load(ctx)
	require.ErrorIs(t, err, storage.ErrNotFound)

	rows := FactorRows(6)
	require.NoError(t, s.Replace(ctx, rows))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, len(rows))
	for i := range rows {
		assert.True(t, rows[i].Date.Equal(got[i].Date), "row %d date", i)
		for _, col := range domain.FactorColumns {
			want, wantOK, err := rows[i].Value(col)
			require.NoError(t, err)
			have, haveOK, err := got[i].Value(col)
			require.NoError(t, err)
			require.Equal(t, wantOK, haveOK, "row %d column %s defined", i, col)
			if wantOK {
				assert.InEpsilon(t, nonZero(want), nonZero(have), 1e-9, "row %d column %s", i, col)
			}
		}
	}
	assert.Nil(t, got[0].ETHBTCRet)
	assert.Nil(t, got[2].MacroLiquidity)

	require.NoError(t, s.Delete(ctx))
	ok, err := s.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

// nonZero shifts exact zeros so InEpsilon can compare them.
func nonZero(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}

// TestResultStore runs the model result contract against s. s must be empty.
func TestResultStore(t *testing.T, s storage.ResultStore) {
	t.Helper()
	ctx := context.Background()

	_, _, err := s.Load(ctx)
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.ErrorIs(t, s.Replace(ctx, &domain.RegressionResult{}, nil), storage.ErrInvalidInput)

	reg, g := Result()
	require.NoError(t, s.Replace(ctx, reg, g))
	ok, err := s.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	gotReg, gotG, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, reg.RunID, gotReg.RunID)
	assert.Equal(t, reg.Target, gotReg.Target)
	assert.Equal(t, reg.NObs, gotReg.NObs)
	assert.True(t, reg.FittedAt.Equal(gotReg.FittedAt))
	require.Len(t, gotReg.Terms, 2)
	assert.Equal(t, domain.InterceptTerm, gotReg.Terms[0].Name)
	assert.InDelta(t, 1.2, gotReg.Terms[1].Coefficient, 1e-12)
	assert.InDelta(t, 0.74, gotReg.RSquared, 1e-12)
	assert.True(t, math.IsNaN(gotReg.AdjRSquared), "undefined statistic survives as NaN")
	require.NotNil(t, gotG)
	assert.Equal(t, *g, *gotG)

	// A run without a lead-lag test clears the previous one.
	reg.RunID = "run-2"
	require.NoError(t, s.Replace(ctx, reg, nil))
	gotReg, gotG, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-2", gotReg.RunID)
	assert.Nil(t, gotG)
}
