// Package pipeline runs the lead-lag stages: master table, factor table,
// model fit and run artifacts. Derived tables are reused from storage unless
// a rebuild is requested.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"altcoin-leadlag/internal/acquisition"
	"altcoin-leadlag/internal/domain"
	"altcoin-leadlag/internal/factors"
	"altcoin-leadlag/internal/modeling"
	"altcoin-leadlag/internal/observability"
	"altcoin-leadlag/internal/reporting"
	"altcoin-leadlag/internal/storage"
)

// Stage names, used as metric labels.
const (
	StageMaster  = "master"
	StageFactors = "factors"
	StageModel   = "model"
	StageReport  = "report"
)

// ErrNoFactors is returned by Model when no factor table is stored.
var ErrNoFactors = errors.New("factor table not built; run the factors stage first")

// MasterBuilder builds the master table.
type MasterBuilder interface {
	Build(ctx context.Context, p acquisition.Params) ([]domain.MasterRow, error)
}

// FactorBuilder builds the factor table from the master table.
type FactorBuilder interface {
	Build(ctx context.Context, master []domain.MasterRow, opts factors.Options) ([]domain.FactorRow, error)
}

// Options configures a run.
type Options struct {
	// Rebuild drops the stored derived tables before building. The raw
	// provider cache is kept.
	Rebuild bool

	Master  acquisition.Params
	Factors factors.Options

	Target      string
	Independent []string

	// Lead-lag test: rows where Cause shifted by LagShift is undefined are
	// dropped, then Cause is tested against Effect at order LagOrder.
	LagCause  string
	LagEffect string
	LagShift  int
	LagOrder  int

	// ResultsDir receives the run artifacts. Empty skips writing them.
	ResultsDir        string
	CorrelationWindow int
}

// Result summarises a run.
type Result struct {
	RunID      string
	MasterRows int
	FactorRows int
	Reused     []string // tables loaded from storage instead of built
	Regression *domain.RegressionResult
	Granger    *domain.GrangerResult
	Artifacts  []string
}

// Pipeline wires the stage builders to the stores.
type Pipeline struct {
	stores  storage.Stores
	master  MasterBuilder
	factors FactorBuilder
	logger  *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time
	newID   func() string
}

// New creates a pipeline. logger and metrics may be nil.
func New(stores storage.Stores, master MasterBuilder, factorBuilder FactorBuilder, logger *zap.Logger, metrics *observability.Metrics) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = observability.NewMetrics("")
	}
	return &Pipeline{
		stores:  stores,
		master:  master,
		factors: factorBuilder,
		logger:  logger,
		metrics: metrics,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

// WithClock sets a custom clock function for deterministic output.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// WithRunID sets the run ID generator.
func (p *Pipeline) WithRunID(newID func() string) *Pipeline {
	p.newID = newID
	return p
}

// Run executes every stage in order.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	res := &Result{}
	if opts.Rebuild {
		if err := p.dropDerived(ctx); err != nil {
			return nil, err
		}
	}

	rows, err := p.factorTable(ctx, opts, res)
	if err != nil {
		return nil, err
	}
	res.FactorRows = len(rows)

	if err := p.fit(ctx, rows, opts, res); err != nil {
		return nil, err
	}
	if err := p.writeArtifacts(ctx, opts, res); err != nil {
		return nil, err
	}

	p.metrics.MarkSuccess()
	p.logger.Info("run complete",
		zap.String("run_id", res.RunID),
		zap.Int("factor_rows", res.FactorRows),
		zap.Strings("reused", res.Reused))
	return res, nil
}

// Master builds (or reuses) the master table only.
func (p *Pipeline) Master(ctx context.Context, opts Options) (*Result, error) {
	res := &Result{}
	if opts.Rebuild {
		if err := p.dropDerived(ctx); err != nil {
			return nil, err
		}
	}
	rows, err := p.masterTable(ctx, opts, res)
	if err != nil {
		return nil, err
	}
	res.MasterRows = len(rows)
	p.metrics.MarkSuccess()
	return res, nil
}

// Factors builds (or reuses) the master and factor tables.
func (p *Pipeline) Factors(ctx context.Context, opts Options) (*Result, error) {
	res := &Result{}
	if opts.Rebuild {
		if err := p.dropDerived(ctx); err != nil {
			return nil, err
		}
	}
	rows, err := p.factorTable(ctx, opts, res)
	if err != nil {
		return nil, err
	}
	res.FactorRows = len(rows)
	p.metrics.MarkSuccess()
	return res, nil
}

// Model fits the stored factor table and writes the run artifacts. It never
// builds tables; ErrNoFactors is returned when none is stored.
func (p *Pipeline) Model(ctx context.Context, opts Options) (*Result, error) {
	res := &Result{}
	rows, err := p.stores.Factors.Load(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNoFactors
	}
	if err != nil {
		return nil, fmt.Errorf("load factor table: %w", err)
	}
	res.FactorRows = len(rows)

	if err := p.fit(ctx, rows, opts, res); err != nil {
		return nil, err
	}
	if err := p.writeArtifacts(ctx, opts, res); err != nil {
		return nil, err
	}
	p.metrics.MarkSuccess()
	return res, nil
}

// dropDerived deletes the stored master and factor tables.
func (p *Pipeline) dropDerived(ctx context.Context) error {
	p.logger.Info("rebuild requested, dropping derived tables")
	if err := p.stores.Factors.Delete(ctx); err != nil {
		return fmt.Errorf("delete factor table: %w", err)
	}
	if err := p.stores.Master.Delete(ctx); err != nil {
		return fmt.Errorf("delete master table: %w", err)
	}
	return nil
}

func (p *Pipeline) masterTable(ctx context.Context, opts Options, res *Result) (rows []domain.MasterRow, err error) {
	started := time.Now()
	defer func() { p.metrics.RecordStage(StageMaster, started, err) }()

	rows, err = p.stores.Master.Load(ctx)
	switch {
	case err == nil:
		p.reused(StageMaster, len(rows), res)
		return rows, nil
	case !errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("load master table: %w", err)
	}

	rows, err = p.master.Build(ctx, opts.Master)
	if err != nil {
		return nil, fmt.Errorf("build master table: %w", err)
	}
	if err = p.stores.Master.Replace(ctx, rows); err != nil {
		return nil, fmt.Errorf("store master table: %w", err)
	}
	p.metrics.RowsProduced.WithLabelValues(StageMaster).Set(float64(len(rows)))
	p.logger.Info("master table stored", zap.Int("rows", len(rows)))
	return rows, nil
}

func (p *Pipeline) factorTable(ctx context.Context, opts Options, res *Result) ([]domain.FactorRow, error) {
	rows, err := p.stores.Factors.Load(ctx)
	switch {
	case err == nil:
		p.reused(StageFactors, len(rows), res)
		return rows, nil
	case !errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("load factor table: %w", err)
	}

	master, err := p.masterTable(ctx, opts, res)
	if err != nil {
		return nil, err
	}
	res.MasterRows = len(master)

	started := time.Now()
	rows, err = p.factors.Build(ctx, master, opts.Factors)
	if err == nil {
		err = p.stores.Factors.Replace(ctx, rows)
		if err != nil {
			err = fmt.Errorf("store factor table: %w", err)
		}
	} else {
		err = fmt.Errorf("build factor table: %w", err)
	}
	p.metrics.RecordStage(StageFactors, started, err)
	if err != nil {
		return nil, err
	}
	p.metrics.RowsProduced.WithLabelValues(StageFactors).Set(float64(len(rows)))
	p.logger.Info("factor table stored", zap.Int("rows", len(rows)))
	return rows, nil
}

func (p *Pipeline) reused(table string, rows int, res *Result) {
	res.Reused = append(res.Reused, table)
	p.metrics.ArtifactsReused.WithLabelValues(table).Inc()
	p.logger.Info("reusing stored table", zap.String("table", table), zap.Int("rows", rows))
}

// fit runs the regression and the lead-lag test and stores both.
func (p *Pipeline) fit(ctx context.Context, rows []domain.FactorRow, opts Options, res *Result) (err error) {
	started := time.Now()
	defer func() { p.metrics.RecordStage(StageModel, started, err) }()

	reg, err := modeling.Regress(rows, opts.Target, opts.Independent)
	p.metrics.RecordFit("ols", err)
	if err != nil {
		return fmt.Errorf("fit regression: %w", err)
	}
	reg.RunID = p.newID()
	reg.FittedAt = p.now()
	p.metrics.ModelRSquared.Set(reg.RSquared)
	p.logger.Info("regression fitted",
		zap.String("run_id", reg.RunID),
		zap.String("target", reg.Target),
		zap.Int("nobs", reg.NObs),
		zap.Float64("r_squared", reg.RSquared))

	granger, err := modeling.LeadLag(rows, opts.LagCause, opts.LagEffect, opts.LagShift, opts.LagOrder)
	p.metrics.RecordFit("granger", err)
	if err != nil {
		return fmt.Errorf("lead-lag test: %w", err)
	}
	p.metrics.GrangerPValue.Set(granger.PValue)
	p.logger.Info("granger causality p-value",
		zap.String("cause", granger.Cause),
		zap.String("effect", granger.Effect),
		zap.Int("lag", granger.Lag),
		zap.Float64("p_value", granger.PValue))

	if err = p.stores.Results.Replace(ctx, reg, granger); err != nil {
		return fmt.Errorf("store model results: %w", err)
	}
	res.RunID = reg.RunID
	res.Regression = reg
	res.Granger = granger
	return nil
}

func (p *Pipeline) writeArtifacts(ctx context.Context, opts Options, res *Result) (err error) {
	if opts.ResultsDir == "" {
		return nil
	}
	started := time.Now()
	defer func() { p.metrics.RecordStage(StageReport, started, err) }()

	gen := reporting.NewGenerator(p.stores.Master, p.stores.Factors, p.stores.Results).WithClock(p.now)
	_, written, err := gen.WriteArtifacts(ctx, opts.ResultsDir, reporting.Options{
		Frequency:     opts.Master.Frequency,
		Target:        opts.Target,
		Independent:   opts.Independent,
		RollingA:      opts.LagCause,
		RollingB:      opts.LagEffect,
		RollingWindow: opts.CorrelationWindow,
	})
	if err != nil {
		return fmt.Errorf("write artifacts: %w", err)
	}
	res.Artifacts = written
	p.logger.Info("artifacts written", zap.String("dir", opts.ResultsDir), zap.Int("files", len(written)))
	return nil
}
