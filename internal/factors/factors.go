// Package factors derives the factor table from the master table: ratio and
// return series, dominance change, rolling macro mean, and the quality ratio
// with its first difference (quality alpha).
package factors

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"altcoin-leadlag/internal/cache"
	"altcoin-leadlag/internal/domain"
	"altcoin-leadlag/internal/observability"
	"altcoin-leadlag/internal/series"
)

// ErrEmptyFactors is returned when every row is dropped by the required-column filter.
var ErrEmptyFactors = errors.New("factor table is empty after dropping undefined rows")

// SnapshotSource provides top-N market cap listings as of a date.
type SnapshotSource interface {
	TopMarketCaps(ctx context.Context, date time.Time, n, pageSize int) ([]domain.CoinMarket, error)
}

// Options configures factor construction.
type Options struct {
	Quality         QualityOptions
	PageSize        int
	RollingWindow   int
	RequiredColumns []string
}

// DefaultRequiredColumns are the columns a factor row must have defined.
var DefaultRequiredColumns = []string{domain.ColETHBTCRet, domain.ColOthersBTCRet}

// Builder computes the factor table, fetching one snapshot per master date.
type Builder struct {
	snapshots SnapshotSource
	cache     cache.Store
	logger    *zap.Logger
	metrics   *observability.Metrics
}

// NewBuilder creates a Builder. store and metrics may be nil.
func NewBuilder(snapshots SnapshotSource, store cache.Store, logger *zap.Logger, metrics *observability.Metrics) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{snapshots: snapshots, cache: store, logger: logger, metrics: metrics}
}

// Build computes the quality ratio for every master date and then the full
// factor table. A snapshot failure aborts the stage.
func (b *Builder) Build(ctx context.Context, master []domain.MasterRow, opts Options) ([]domain.FactorRow, error) {
	b.logger.Info("computing quality ratio", zap.Int("dates", len(master)), zap.Int("top_n", opts.Quality.TopN))

	quality := make([]float64, len(master))
	for i, row := range master {
		snap, err := b.snapshot(ctx, row.Date, opts)
		if err != nil {
			return nil, err
		}
		quality[i] = QualityRatio(snap, row.OthersCap, opts.Quality)
	}

	rows, err := Compute(master, quality, opts)
	if err != nil {
		return nil, err
	}
	b.logger.Info("factor table built", zap.Int("master_rows", len(master)), zap.Int("rows", len(rows)))
	if b.metrics != nil {
		b.metrics.RowsProduced.WithLabelValues("factors").Set(float64(len(rows)))
	}
	return rows, nil
}

func (b *Builder) snapshot(ctx context.Context, date time.Time, opts Options) ([]domain.CoinMarket, error) {
	day := date.Format(time.DateOnly)
	key := cache.Key("snapshot", day, fmt.Sprint(opts.Quality.TopN), fmt.Sprint(opts.PageSize))

	if b.cache != nil {
		var snap domain.MarketSnapshot
		found, err := b.cache.Get(ctx, key, &snap)
		if err != nil {
			return nil, fmt.Errorf("read snapshot cache %s: %w", day, err)
		}
		if b.metrics != nil {
			b.metrics.RecordCacheLookup(found)
		}
		if found {
			return snap.Coins, nil
		}
	}

	coins, err := b.snapshots.TopMarketCaps(ctx, date, opts.Quality.TopN, opts.PageSize)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot %s: %w", day, err)
	}
	b.logger.Debug("fetched snapshot", zap.String("date", day), zap.Int("coins", len(coins)))

	if b.cache != nil {
		if err := b.cache.Put(ctx, key, domain.MarketSnapshot{Date: date, Coins: coins}); err != nil {
			return nil, fmt.Errorf("write snapshot cache %s: %w", day, err)
		}
	}
	return coins, nil
}

// Compute derives the factor table from master rows and their quality ratios.
// Rows with an undefined value in opts.RequiredColumns are dropped last.
func Compute(master []domain.MasterRow, quality []float64, opts Options) ([]domain.FactorRow, error) {
	if len(quality) != len(master) {
		return nil, fmt.Errorf("quality ratio has %d values for %d master rows", len(quality), len(master))
	}
	window := opts.RollingWindow
	if window <= 0 {
		window = 4
	}
	required := opts.RequiredColumns
	if len(required) == 0 {
		required = DefaultRequiredColumns
	}
	for _, col := range required {
		if !domain.IsFactorColumn(col) {
			return nil, fmt.Errorf("required column: %w: %q", domain.ErrUnknownColumn, col)
		}
	}

	n := len(master)
	btc := make([]float64, n)
	eth := make([]float64, n)
	others := make([]float64, n)
	dom := make([]float64, n)
	macro := make([]float64, n)
	for i, r := range master {
		btc[i] = r.BTCCap
		eth[i] = r.ETHCap
		others[i] = r.OthersCap
		dom[i] = r.BTCDom
		macro[i] = r.MacroReturn
	}

	ethBTC := series.Ratio(eth, btc)
	othersBTC := series.Ratio(others, btc)
	othersETH := series.Ratio(others, eth)
	ethBTCRet := series.PctChange(ethBTC)
	othersBTCRet := series.PctChange(othersBTC)
	domChange := series.Diff(dom)
	macroMean := series.RollingMean(macro, window)
	alpha := series.FillUndefined(series.Diff(quality), 0)

	out := make([]domain.FactorRow, 0, n)
	for i, r := range master {
		row := domain.FactorRow{
			MasterRow:      r,
			ETHBTC:         series.Ptr(ethBTC[i]),
			OthersBTC:      series.Ptr(othersBTC[i]),
			OthersETH:      series.Ptr(othersETH[i]),
			ETHBTCRet:      series.Ptr(ethBTCRet[i]),
			OthersBTCRet:   series.Ptr(othersBTCRet[i]),
			BTCDomChange:   series.Ptr(domChange[i]),
			MacroLiquidity: series.Ptr(macroMean[i]),
			QualityRatio:   quality[i],
			QualityAlpha:   alpha[i],
		}
		if complete(&row, required) {
			out = append(out, row)
		}
	}
	if len(out) == 0 && n > 0 {
		return nil, ErrEmptyFactors
	}
	return out, nil
}

func complete(row *domain.FactorRow, required []string) bool {
	for _, col := range required {
		if _, ok, _ := row.Value(col); !ok {
			return false
		}
	}
	return true
}
