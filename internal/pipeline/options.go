package pipeline

import (
	"altcoin-leadlag/internal/acquisition"
	"altcoin-leadlag/internal/config"
	"altcoin-leadlag/internal/factors"
)

// OptionsFromConfig maps the run configuration onto pipeline options.
// lag_weeks is both the shift of the cause series and the test's lag order.
func OptionsFromConfig(cfg *config.Config, rebuild bool) (Options, error) {
	start, end, err := cfg.DateRange()
	if err != nil {
		return Options{}, err
	}
	return Options{
		Rebuild: rebuild,
		Master: acquisition.Params{
			Start:     start,
			End:       end,
			Frequency: cfg.Freq(),
		},
		Factors: factors.Options{
			Quality: factors.QualityOptions{
				TopN:               cfg.TopNMarketCap,
				MinLiquidityUSD:    cfg.MinLiquidityUSD,
				ExcludeStablecoins: cfg.ExcludeStablecoins,
				StablecoinSymbols:  cfg.StablecoinSymbols,
			},
			PageSize:        cfg.SnapshotPageSize,
			RollingWindow:   cfg.RollingWindow,
			RequiredColumns: cfg.RequiredColumns,
		},
		Target:            cfg.Target,
		Independent:       cfg.Independent,
		LagCause:          cfg.LagCause,
		LagEffect:         cfg.LagEffect,
		LagShift:          cfg.LagWeeks,
		LagOrder:          cfg.LagWeeks,
		ResultsDir:        cfg.ResultsDir,
		CorrelationWindow: cfg.CorrelationWindow,
	}, nil
}
