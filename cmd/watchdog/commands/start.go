package commands

import (
	"winamax-scraper/internal/config"
	"winamax-scraper/internal/watchdog"
	"winamax-scraper/lib/proclock"
	"winamax-scraper/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(startCmd)
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Starts the supervision loop and the watchdog status endpoint.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		cfg, err := config.Load()
		if err != nil {
			serviceutil.Fatal("read config", err)
		}

		// one watchdog per working directory
		lock := proclock.New("watchdog")
		if !lock.TryAcquire() {
			serviceutil.Fatal("acquire watchdog lock", proclock.ErrHeld)
		}
		defer lock.Release()

		w := watchdog.New(cfg.Watchdog, watchdog.OSController{})
		go serviceutil.StartHttpServer(ctx, cfg.Watchdog.StatusPort, w.Mux())

		w.Run(ctx)
	},
}
