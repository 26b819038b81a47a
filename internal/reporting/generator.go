package reporting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"altcoin-leadlag/internal/domain"
	"altcoin-leadlag/internal/metrics"
	"altcoin-leadlag/internal/modeling"
	"altcoin-leadlag/internal/storage"
)

// Options selects the columns a report covers.
type Options struct {
	Frequency     domain.Frequency
	Target        string
	Independent   []string
	RollingA      string
	RollingB      string
	RollingWindow int
}

// columns returns target followed by the independents without duplicates.
func (o Options) columns() []string {
	seen := map[string]bool{}
	var out []string
	for _, c := range append([]string{o.Target}, o.Independent...) {
		if c != "" && !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

func (o Options) rolling() bool {
	return o.RollingA != "" && o.RollingB != "" && o.RollingWindow >= 2
}

// Generator produces reports from stored data.
type Generator struct {
	master  storage.MasterStore
	factors storage.FactorStore
	results storage.ResultStore
	now     func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(master storage.MasterStore, factors storage.FactorStore, results storage.ResultStore) *Generator {
	return &Generator{
		master:  master,
		factors: factors,
		results: results,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds a report from the stored tables. A missing model run is not an error.
func (g *Generator) Generate(ctx context.Context, opts Options) (*Report, error) {
	r, _, err := g.build(ctx, opts)
	return r, err
}

// build returns the report and the factor rows it was built from.
func (g *Generator) build(ctx context.Context, opts Options) (*Report, []domain.FactorRow, error) {
	masterRows, err := g.master.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load master table: %w", err)
	}
	factorRows, err := g.factors.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load factor table: %w", err)
	}

	r := &Report{
		GeneratedAt: g.now(),
		Frequency:   opts.Frequency,
		DataSummary: DataSummary{
			MasterRows: len(masterRows),
			FactorRows: len(factorRows),
		},
	}
	if n := len(factorRows); n > 0 {
		r.DataSummary.FirstDate = factorRows[0].Date
		r.DataSummary.LastDate = factorRows[n-1].Date
	}

	reg, granger, err := g.results.Load(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return nil, nil, fmt.Errorf("load model results: %w", err)
	default:
		r.Regression, r.Granger = reg, granger
	}

	cols := opts.columns()
	if len(factorRows) > 0 && len(cols) > 0 {
		if r.FactorSummary, err = metrics.Summarize(factorRows, cols); err != nil {
			return nil, nil, fmt.Errorf("summarize factors: %w", err)
		}
		if r.Correlations, err = modeling.Correlations(factorRows, cols); err != nil {
			return nil, nil, fmt.Errorf("correlate factors: %w", err)
		}
	}

	if opts.rolling() {
		r.RollingSeries, err = modeling.RollingCorrelation(factorRows, opts.RollingA, opts.RollingB, opts.RollingWindow)
		if err != nil {
			return nil, nil, fmt.Errorf("rolling correlation: %w", err)
		}
		r.Rolling = summarizeRolling(r.RollingSeries, opts)
	}

	return r, factorRows, nil
}

func summarizeRolling(points []modeling.RollingPoint, opts Options) *RollingSummary {
	var last *modeling.RollingPoint
	defined := 0
	for i := range points {
		if points[i].Value != nil {
			defined++
			last = &points[i]
		}
	}
	if last == nil {
		return nil
	}
	return &RollingSummary{
		A:       opts.RollingA,
		B:       opts.RollingB,
		Window:  opts.RollingWindow,
		Date:    last.Date,
		Value:   *last.Value,
		Defined: defined,
	}
}
