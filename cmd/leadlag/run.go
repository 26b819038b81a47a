package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"altcoin-leadlag/internal/acquisition"
	"altcoin-leadlag/internal/app"
	"altcoin-leadlag/internal/coingecko"
	"altcoin-leadlag/internal/factors"
	"altcoin-leadlag/internal/macro"
	"altcoin-leadlag/internal/pipeline"
	"altcoin-leadlag/internal/storage/backend"
)

type stage int

const (
	stageRun stage = iota
	stageMaster
	stageFactors
	stageModel
)

func runStage(s stage) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := app.SignalContext()
		defer cancel()

		a, err := app.New(configPath)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := execute(ctx, a, s)
		if err != nil {
			a.Logger.Error("run failed", zap.Error(err))
			return err
		}
		printResult(cmd, res)
		return nil
	}
}

func execute(ctx context.Context, a *app.App, s stage) (*pipeline.Result, error) {
	cfg := a.Config
	opts, err := pipeline.OptionsFromConfig(cfg, rebuild)
	if err != nil {
		return nil, err
	}

	stores, err := backend.Open(ctx, cfg, a.Logger)
	if err != nil {
		return nil, err
	}
	defer stores.Close()

	raw, closeCache, err := a.RawCache(ctx)
	if err != nil {
		return nil, err
	}
	defer closeCache()

	gecko := coingecko.NewClient(cfg.CoinGecko, a.Logger, a.Metrics)
	yahoo := macro.NewClient(cfg.Macro, a.Logger, a.Metrics)
	p := pipeline.New(stores,
		acquisition.NewBuilder(gecko, yahoo, raw, a.Logger, a.Metrics),
		factors.NewBuilder(gecko, raw, a.Logger, a.Metrics),
		a.Logger, a.Metrics)

	switch s {
	case stageMaster:
		return p.Master(ctx, opts)
	case stageFactors:
		return p.Factors(ctx, opts)
	case stageModel:
		return p.Model(ctx, opts)
	default:
		return p.Run(ctx, opts)
	}
}

func printResult(cmd *cobra.Command, res *pipeline.Result) {
	out := cmd.OutOrStdout()
	if res.MasterRows > 0 {
		fmt.Fprintf(out, "Master rows: %d\n", res.MasterRows)
	}
	if res.FactorRows > 0 {
		fmt.Fprintf(out, "Factor rows: %d\n", res.FactorRows)
	}
	for _, t := range res.Reused {
		fmt.Fprintf(out, "Reused stored %s table\n", t)
	}
	if reg := res.Regression; reg != nil {
		fmt.Fprintf(out, "Run %s: R-squared %.4f on %d observations\n", reg.RunID, reg.RSquared, reg.NObs)
		for _, t := range reg.Terms {
			fmt.Fprintf(out, "  %-16s %10.6f  (p=%.4f)\n", t.Name, t.Coefficient, t.PValue)
		}
	}
	if g := res.Granger; g != nil {
		fmt.Fprintf(out, "Granger causality p-value (%s -> %s, lag=%d): %.4f\n", g.Cause, g.Effect, g.Lag, g.PValue)
	}
	for _, path := range res.Artifacts {
		fmt.Fprintf(out, "Wrote %s\n", path)
	}
}
