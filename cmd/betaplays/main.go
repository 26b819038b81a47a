// Command betaplays exports the Ethereum beta plays sheet as CSV and XLSX.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"altcoin-leadlag/internal/app"
	"altcoin-leadlag/internal/betaplays"
	"altcoin-leadlag/internal/coingecko"
	"altcoin-leadlag/internal/reporting"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "betaplays",
	Short:         "Export the Ethereum beta plays sheet",
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

	market := coingecko.NewClient(cfg.CoinGecko, a.Logger, a.Metrics)
	rows, err := betaplays.Fetch(ctx, market, betaplays.DefaultTokens(), a.Logger)
	if err != nil {
		return err
	}

	csv, err := reporting.RenderBetaPlaysCSV(rows)
	if err != nil {
		return err
	}
	if err := reporting.WriteText(cfg.Export.CSVFile, csv); err != nil {
		return err
	}
	if cfg.Export.XLSXFile != "" {
		if err := reporting.WriteBetaPlaysXLSX(cfg.Export.XLSXFile, rows); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Data exported to %s\n\n", cfg.Export.CSVFile)
	fmt.Fprint(out, reporting.RenderBetaPlaysTable(rows))
	a.Metrics.MarkSuccess()
	return nil
}
