package commands

import (
	"log/slog"
	"time"

	"winamax-scraper/internal/extractor"
	"winamax-scraper/internal/pipeline"
	"winamax-scraper/lib/limits"
	"winamax-scraper/lib/serviceutil"

	"github.com/spf13/cobra"
)

var (
	runMode   *string
	runLimits *string
)

func init() {
	runMode = runCmd.Flags().String("mode", "", `Override the extractor: "browser" or "static".`)
	runLimits = runCmd.Flags().String("limits", "", "Comma-separated limit ids to scrape instead of the configured set.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--mode browser|static] [--limits 50,100]",
	Short: "Runs one full scrape cycle and prints the outcome.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		if *runMode != "" {
			cfg.ScraperMode = *runMode
		}
		if *runLimits != "" {
			cfg.ActiveLimits = limits.ParseIDs(*runLimits)
		}

		st, closeStore := mustOpenStore(cfg)
		defer closeStore()

		var ext extractor.Extractor
		if cfg.ScraperMode == "static" {
			ext = extractor.NewStatic(cfg.UserAgent)
		} else {
			b, err := extractor.NewBrowser(cfg.UserAgent)
			if err != nil {
				serviceutil.Fatal("launch browser", err)
			}
			defer b.Close()
			ext = b
		}

		registry := limits.NewRegistry(
			limits.StaticProvider{Name: "flags", List: cfg.ActiveLimits},
		)
		runner := pipeline.NewRunner(cfg, st, ext, registry)

		t1 := time.Now()
		if err := runner.Run(cmd.Context()); err != nil {
			serviceutil.Fatal("scrape cycle failed", err)
		}
		slog.Info("scrape cycle finished", "seconds", time.Since(t1).Seconds())
	},
}
