// Command news prints past news stories and then follows the live stream for
// the configured timeout.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"altcoin-leadlag/internal/app"
	"altcoin-leadlag/internal/news"
)

var (
	configPath string
	timeout    time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "news",
	Short:         "Fetch past news stories and follow the news stream",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", app.DefaultConfigPath, "Path to the YAML configuration file")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 0, "Stream duration (overrides news.timeout)")
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

	cfg := a.Config.News
	if cfg.APIKey == "" {
		return fmt.Errorf("news.api_key is not set (LEADLAG_NEWS_API_KEY)")
	}
	if timeout > 0 {
		cfg.Timeout = timeout
	}
	client := news.NewClient(cfg, a.Logger, a.Metrics)
	out := cmd.OutOrStdout()

	// Past stories failing does not prevent following the stream.
	stories, err := client.Stories(ctx)
	if err != nil {
		a.Logger.Error("fetch past stories", zap.Error(err))
	} else {
		a.Logger.Info("retrieved past stories", zap.Int("count", len(stories)))
		if len(stories) > 0 {
			printJSON(out, stories[0])
		}
	}

	return client.Stream(ctx, func(m news.Message) error {
		if m.Status != "" {
			a.Logger.Info("stream status",
				zap.String("status", m.Status),
				zap.Duration("elapsed", m.Elapsed.Round(100*time.Millisecond)))
			return nil
		}
		a.Logger.Info("news item received",
			zap.Int64("id", m.Story.ID),
			zap.String("headline", m.Story.Headline))
		printJSON(out, m.Story)
		return nil
	})
}

func printJSON(out io.Writer, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return
	}
	fmt.Fprintln(out, string(data))
}
