package commands

import (
	"fmt"
	"time"

	"winamax-scraper/internal/config"
	"winamax-scraper/lib/serviceutil"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Prints the running watchdog's status document.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			serviceutil.Fatal("read config", err)
		}

		client := resty.New()
		client.SetTimeout(5 * time.Second)

		url := fmt.Sprintf("http://localhost:%d/api/status", cfg.Watchdog.StatusPort)
		res, err := client.R().SetContext(cmd.Context()).Get(url)
		if err != nil {
			serviceutil.Fatal("watchdog is not reachable", err)
		}
		fmt.Println(res.String())
	},
}
