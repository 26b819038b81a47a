package pipeline

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"altcoin-leadlag/internal/acquisition"
	"altcoin-leadlag/internal/config"
	"altcoin-leadlag/internal/domain"
	"altcoin-leadlag/internal/factors"
	"altcoin-leadlag/internal/observability"
	"altcoin-leadlag/internal/reporting"
	"altcoin-leadlag/internal/storage"
	"altcoin-leadlag/internal/storage/backend"
	"altcoin-leadlag/internal/storage/storagetest"
)

type fakeMaster struct {
	calls int
	err   error
}

func (f *fakeMaster) Build(_ context.Context, _ acquisition.Params) ([]domain.MasterRow, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return storagetest.MasterRows(40), nil
}

// fakeFactors emits noisy returns where others_btc_ret follows eth_btc_ret.
type fakeFactors struct {
	calls int
}

func (f *fakeFactors) Build(_ context.Context, master []domain.MasterRow, _ factors.Options) ([]domain.FactorRow, error) {
	f.calls++
	rng := rand.New(rand.NewSource(7))
	rows := make([]domain.FactorRow, len(master))
	for i, m := range master {
		eth := rng.NormFloat64() * 0.02
		others := 0.8*eth + rng.NormFloat64()*0.01
		dom := rng.NormFloat64() * 0.001
		rows[i] = domain.FactorRow{
			MasterRow:    m,
			ETHBTCRet:    &eth,
			OthersBTCRet: &others,
			BTCDomChange: &dom,
			QualityRatio: 0.5,
			QualityAlpha: rng.NormFloat64() * 0.01,
		}
	}
	return rows, nil
}

var fixedNow = time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

func testOptions(dir string) Options {
	return Options{
		Master:            acquisition.Params{Frequency: domain.FrequencyWeekly},
		Target:            domain.ColOthersBTCRet,
		Independent:       []string{domain.ColETHBTCRet, domain.ColBTCDomChange, domain.ColQualityAlpha},
		LagCause:          domain.ColETHBTCRet,
		LagEffect:         domain.ColOthersBTCRet,
		LagShift:          1,
		LagOrder:          1,
		ResultsDir:        dir,
		CorrelationWindow: 8,
	}
}

type fixture struct {
	stores  storage.Stores
	master  *fakeMaster
	factors *fakeFactors
	metrics *observability.Metrics
	p       *Pipeline
}

func newFixture() *fixture {
	f := &fixture{
		stores:  backend.Memory(),
		master:  &fakeMaster{},
		factors: &fakeFactors{},
		metrics: observability.NewMetrics(""),
	}
	ids := 0
	f.p = New(f.stores, f.master, f.factors, zap.NewNop(), f.metrics).
		WithClock(func() time.Time { return fixedNow }).
		WithRunID(func() string {
			ids++
			return "run-" + string(rune('0'+ids))
		})
	return f
}

func TestRun_BuildsEveryStage(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	dir := t.TempDir()

	res, err := f.p.Run(ctx, testOptions(dir))
	require.NoError(t, err)

	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, 40, res.MasterRows)
	assert.Equal(t, 40, res.FactorRows)
	assert.Empty(t, res.Reused)
	assert.Equal(t, 1, f.master.calls)
	assert.Equal(t, 1, f.factors.calls)

	require.NotNil(t, res.Regression)
	assert.Equal(t, fixedNow, res.Regression.FittedAt)
	coef, ok := res.Regression.Coefficient(domain.ColETHBTCRet)
	require.True(t, ok)
	assert.InDelta(t, 0.8, coef, 0.2)
	require.NotNil(t, res.Granger)
	assert.Equal(t, 1, res.Granger.Lag)

	reg, granger, err := f.stores.Results.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-1", reg.RunID)
	assert.Equal(t, res.Granger.PValue, granger.PValue)

	for _, name := range []string{reporting.ReportFile, reporting.CoefficientsFile, reporting.FactorsFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	if got := testutil.ToFloat64(f.metrics.StageRunsTotal.WithLabelValues(StageModel, "success")); got != 1 {
		t.Errorf("model stage runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(f.metrics.RowsProduced.WithLabelValues(StageFactors)); got != 40 {
		t.Errorf("factor rows gauge = %v, want 40", got)
	}
	assert.Positive(t, testutil.ToFloat64(f.metrics.LastSuccessfulRun))
}

func TestRun_ReusesStoredTables(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, err := f.p.Run(ctx, testOptions(""))
	require.NoError(t, err)

	res, err := f.p.Run(ctx, testOptions(""))
	require.NoError(t, err)

	assert.Equal(t, []string{StageFactors}, res.Reused)
	assert.Equal(t, 1, f.master.calls)
	assert.Equal(t, 1, f.factors.calls)
	assert.Equal(t, "run-2", res.RunID)
	if got := testutil.ToFloat64(f.metrics.ArtifactsReused.WithLabelValues(StageFactors)); got != 1 {
		t.Errorf("reused factors = %v, want 1", got)
	}
}

func TestRun_RebuildRegeneratesTables(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, err := f.p.Run(ctx, testOptions(""))
	require.NoError(t, err)

	opts := testOptions("")
	opts.Rebuild = true
	res, err := f.p.Run(ctx, opts)
	require.NoError(t, err)

	assert.Empty(t, res.Reused)
	assert.Equal(t, 2, f.master.calls)
	assert.Equal(t, 2, f.factors.calls)
}

func TestFactors_ReusesStoredMaster(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, err := f.p.Master(ctx, testOptions(""))
	require.NoError(t, err)

	res, err := f.p.Factors(ctx, testOptions(""))
	require.NoError(t, err)

	assert.Equal(t, []string{StageMaster}, res.Reused)
	assert.Equal(t, 1, f.master.calls)
	assert.Equal(t, 1, f.factors.calls)
	assert.Equal(t, 40, res.FactorRows)

	ok, err := f.stores.Results.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "factors stage must not fit the model")
}

func TestModel_RequiresFactorTable(t *testing.T) {
	f := newFixture()
	_, err := f.p.Model(context.Background(), testOptions(""))
	assert.ErrorIs(t, err, ErrNoFactors)
	assert.Equal(t, 0, f.master.calls)
}

func TestModel_FitsStoredFactors(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, err := f.p.Factors(ctx, testOptions(""))
	require.NoError(t, err)

	res, err := f.p.Model(ctx, testOptions(t.TempDir()))
	require.NoError(t, err)
	assert.Equal(t, "run-1", res.RunID)
	assert.NotEmpty(t, res.Artifacts)
}

func TestRun_MasterBuildError(t *testing.T) {
	f := newFixture()
	f.master.err = errors.New("provider down")

	_, err := f.p.Run(context.Background(), testOptions(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build master table")
	assert.Contains(t, err.Error(), "provider down")

	if got := testutil.ToFloat64(f.metrics.StageRunsTotal.WithLabelValues(StageMaster, "error")); got != 1 {
		t.Errorf("master stage errors = %v, want 1", got)
	}
	ok, err := f.stores.Master.Exists(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRun_UnknownColumn(t *testing.T) {
	f := newFixture()
	opts := testOptions("")
	opts.Target = "nope"

	_, err := f.p.Run(context.Background(), opts)
	assert.ErrorIs(t, err, domain.ErrUnknownColumn)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	opts, err := OptionsFromConfig(cfg, true)
	require.NoError(t, err)

	assert.True(t, opts.Rebuild)
	assert.Equal(t, domain.FrequencyWeekly, opts.Master.Frequency)
	assert.Equal(t, time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC), opts.Master.Start)
	assert.Equal(t, cfg.LagWeeks, opts.LagShift)
	assert.Equal(t, cfg.LagWeeks, opts.LagOrder)
	assert.Equal(t, cfg.TopNMarketCap, opts.Factors.Quality.TopN)
	assert.Equal(t, cfg.Independent, opts.Independent)
}
