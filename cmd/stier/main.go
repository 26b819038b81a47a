// Command stier scores the ETH beta token universe into tiers and writes the
// text analysis and a scores CSV.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"altcoin-leadlag/internal/app"
	"altcoin-leadlag/internal/coingecko"
	"altcoin-leadlag/internal/reporting"
	"altcoin-leadlag/internal/scoring"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "stier",
	Short:         "Score the ETH beta universe into S-tier ratings",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", app.DefaultConfigPath, "Path to the YAML configuration file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	ctx, cancel := app.SignalContext()
	defer cancel()

	a, err := app.New(configPath)
	if err != nil {
		return err
	}
	defer a.Close()
	cfg := a.Config

	universe := scoring.DefaultUniverse()
	if cfg.Scoring.UniverseFile != "" {
		if universe, err = scoring.LoadUniverse(cfg.Scoring.UniverseFile); err != nil {
			return err
		}
	}

	a.Logger.Info("fetching enhanced market data", zap.Int("tokens", len(universe)))
	market := coingecko.NewClient(cfg.CoinGecko, a.Logger, a.Metrics)
	analysis, err := scoring.NewEvaluator(universe, scoring.DefaultCriteria(), cfg.Scoring.ReferenceYear, market, a.Logger, a.Metrics).
		Evaluate(ctx)
	if err != nil {
		return err
	}

	text := reporting.RenderScoringText(analysis)
	fmt.Fprintln(cmd.OutOrStdout(), text)

	if err := reporting.WriteText(cfg.Scoring.OutputFile, text); err != nil {
		return err
	}
	scores, err := reporting.RenderScoresCSV(analysis)
	if err != nil {
		return err
	}
	if err := reporting.WriteText(cfg.Scoring.CSVFile, scores); err != nil {
		return err
	}

	a.Metrics.MarkSuccess()
	fmt.Fprintf(cmd.OutOrStdout(), "\nDetailed S-Tier analysis saved to: %s\n", cfg.Scoring.OutputFile)
	fmt.Fprintf(cmd.OutOrStdout(), "Scores saved to: %s\n", cfg.Scoring.CSVFile)
	return nil
}
