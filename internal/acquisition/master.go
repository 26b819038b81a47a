// Package acquisition builds the master table: bitcoin, ethereum and total
// market caps plus the macro proxy, aligned on one calendar.
package acquisition

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"altcoin-leadlag/internal/cache"
	"altcoin-leadlag/internal/domain"
	"altcoin-leadlag/internal/observability"
	"altcoin-leadlag/internal/series"
)

// ErrEmptyMaster is returned when no date survives alignment.
var ErrEmptyMaster = errors.New("master table is empty after alignment")

// MarketSource provides market cap history.
type MarketSource interface {
	MarketCapRange(ctx context.Context, coinID string, from, to time.Time) ([]domain.Observation, error)
	GlobalMarketCapRange(ctx context.Context, from, to time.Time) ([]domain.Observation, error)
}

// MacroSource provides the macro proxy as daily returns.
type MacroSource interface {
	Returns(ctx context.Context, from, to time.Time) ([]domain.Observation, error)
}

// Params selects the master table window.
type Params struct {
	Start     time.Time
	End       time.Time
	Frequency domain.Frequency
}

// Builder fetches (or reads from cache) the raw series and aligns them.
type Builder struct {
	market  MarketSource
	macro   MacroSource
	cache   cache.Store
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewBuilder creates a Builder. metrics may be nil.
func NewBuilder(market MarketSource, macro MacroSource, store cache.Store, logger *zap.Logger, metrics *observability.Metrics) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{market: market, macro: macro, cache: store, logger: logger, metrics: metrics}
}

// Build returns the master table for p.
//
// The three market cap series are fetched concurrently and inner-joined by
// UTC day; the macro return is left-joined by day. The joined table is
// resampled (last defined value per bucket) and rows with any undefined
// field are dropped.
func (b *Builder) Build(ctx context.Context, p Params) ([]domain.MasterRow, error) {
	if !p.Frequency.Valid() {
		return nil, fmt.Errorf("unsupported frequency %q", p.Frequency)
	}

	var btc, eth, total, macro []domain.Observation
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		btc, err = b.coinCaps(gctx, domain.SeriesBitcoin, p)
		return err
	})
	g.Go(func() error {
		var err error
		eth, err = b.coinCaps(gctx, domain.SeriesEthereum, p)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = b.totalCaps(gctx, p)
		return err
	})
	g.Go(func() error {
		var err error
		macro, err = b.macroReturns(gctx, p)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	table := series.InnerJoin(map[string][]domain.Observation{
		domain.ColBTCCap:   byDay(btc),
		domain.ColETHCap:   byDay(eth),
		domain.ColTotalCap: byDay(total),
	})
	b.logger.Info("aligned market caps",
		zap.Int("btc_points", len(btc)),
		zap.Int("eth_points", len(eth)),
		zap.Int("total_points", len(total)),
		zap.Int("common_days", table.Len()))

	btcCap := table.Column(domain.ColBTCCap)
	ethCap := table.Column(domain.ColETHCap)
	totalCap := table.Column(domain.ColTotalCap)
	others := make([]float64, table.Len())
	for i := range others {
		others[i] = totalCap[i] - btcCap[i] - ethCap[i]
	}
	table.Columns[domain.ColOthersCap] = others
	table.Columns[domain.ColBTCDom] = series.Ratio(btcCap, totalCap)
	table.Columns[domain.ColETHDom] = series.Ratio(ethCap, totalCap)
	table.LeftJoinByDay(domain.ColMacroReturn, macro)

	resampled, err := table.Resample(p.Frequency)
	if err != nil {
		return nil, err
	}
	resampled = resampled.DropUndefined()
	if resampled.Len() == 0 {
		return nil, ErrEmptyMaster
	}

	rows := make([]domain.MasterRow, resampled.Len())
	for i, ts := range resampled.Index {
		rows[i] = domain.MasterRow{
			Date:        ts,
			BTCCap:      resampled.Columns[domain.ColBTCCap][i],
			ETHCap:      resampled.Columns[domain.ColETHCap][i],
			TotalCap:    resampled.Columns[domain.ColTotalCap][i],
			OthersCap:   resampled.Columns[domain.ColOthersCap][i],
			BTCDom:      resampled.Columns[domain.ColBTCDom][i],
			ETHDom:      resampled.Columns[domain.ColETHDom][i],
			MacroReturn: resampled.Columns[domain.ColMacroReturn][i],
		}
	}

	b.logger.Info("master table built",
		zap.String("frequency", string(p.Frequency)),
		zap.Int("rows", len(rows)),
		zap.Time("first", rows[0].Date),
		zap.Time("last", rows[len(rows)-1].Date))
	if b.metrics != nil {
		b.metrics.RowsProduced.WithLabelValues("master").Set(float64(len(rows)))
	}
	return rows, nil
}

// byDay truncates timestamps to UTC days. Intraday points collapse to the
// last one of their day.
func byDay(obs []domain.Observation) []domain.Observation {
	out := make([]domain.Observation, len(obs))
	for i, o := range obs {
		out[i] = domain.Observation{Time: series.DayOf(o.Time), Value: o.Value}
	}
	return series.Dedupe(out)
}

func (b *Builder) coinCaps(ctx context.Context, coinID string, p Params) ([]domain.Observation, error) {
	key := rangeKey("market_caps", coinID, p)
	return b.cached(ctx, key, coinID, func() ([]domain.Observation, error) {
		b.logger.Info("pulling market cap history", zap.String("coin", coinID))
		return b.market.MarketCapRange(ctx, coinID, p.Start, p.End)
	})
}

func (b *Builder) totalCaps(ctx context.Context, p Params) ([]domain.Observation, error) {
	key := rangeKey("global_caps", domain.SeriesTotal, p)
	return b.cached(ctx, key, domain.SeriesTotal, func() ([]domain.Observation, error) {
		b.logger.Info("pulling global market cap history")
		return b.market.GlobalMarketCapRange(ctx, p.Start, p.End)
	})
}

func (b *Builder) macroReturns(ctx context.Context, p Params) ([]domain.Observation, error) {
	key := rangeKey("macro", domain.SeriesMacro, p)
	return b.cached(ctx, key, domain.SeriesMacro, func() ([]domain.Observation, error) {
		b.logger.Info("pulling macro liquidity proxy")
		return b.macro.Returns(ctx, p.Start, p.End)
	})
}

func rangeKey(namespace, name string, p Params) string {
	return cache.Key(namespace, name, p.Start.Format(time.DateOnly), p.End.Format(time.DateOnly))
}

// cached reads key from the raw cache or calls fetch and stores the result.
func (b *Builder) cached(ctx context.Context, key, name string, fetch func() ([]domain.Observation, error)) ([]domain.Observation, error) {
	var obs []domain.Observation
	if b.cache != nil {
		found, err := b.cache.Get(ctx, key, &obs)
		if err != nil {
			return nil, fmt.Errorf("read cache for %s: %w", name, err)
		}
		if b.metrics != nil {
			b.metrics.RecordCacheLookup(found)
		}
		if found {
			b.logger.Debug("cache hit", zap.String("series", name), zap.Int("points", len(obs)))
			return obs, nil
		}
	}

	obs, err := fetch()
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", name, err)
	}
	if b.cache != nil {
		if err := b.cache.Put(ctx, key, obs); err != nil {
			return nil, fmt.Errorf("write cache for %s: %w", name, err)
		}
	}
	return obs, nil
}
