// Command leadlag builds the master and factor tables, fits the lead-lag
// model and writes the run report.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"altcoin-leadlag/internal/app"
)

var (
	configPath string
	rebuild    bool
)

var rootCmd = &cobra.Command{
	Use:   "leadlag",
	Short: "Altcoin lead-lag analysis",
	Long: `leadlag pulls market caps and a macro proxy, derives ratio and return
factors, and tests whether ETH/BTC leads the rest of the altcoin market.

Derived tables are reused between runs unless --rebuild is given.

Examples:
  leadlag run
  leadlag run --rebuild
  leadlag factors --config config.yml
  leadlag model`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build tables, fit the model and write the report",
	RunE:  runStage(stageRun),
}

var masterCmd = &cobra.Command{
	Use:   "master",
	Short: "Build the master table",
	RunE:  runStage(stageMaster),
}

var factorsCmd = &cobra.Command{
	Use:   "factors",
	Short: "Build the master and factor tables",
	RunE:  runStage(stageFactors),
}

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Fit the stored factor table and write the report",
	RunE:  runStage(stageModel),
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", app.DefaultConfigPath, "Path to the YAML configuration file")
	for _, c := range []*cobra.Command{runCmd, masterCmd, factorsCmd} {
		c.Flags().BoolVar(&rebuild, "rebuild", false, "Regenerate derived tables instead of reusing them")
	}
	rootCmd.AddCommand(runCmd, masterCmd, factorsCmd, modelCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
