package commands

import (
	"context"
	"fmt"
	"os"

	"winamax-scraper/internal/config"
	"winamax-scraper/internal/store"
	"winamax-scraper/lib/serviceutil"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "scraper-cli",
	Short: "scraper-cli runs and inspects the leaderboard scraper from the command line.",
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func mustLoadConfig() config.Config {
	cfg, err := config.Load()
	if err != nil {
		serviceutil.Fatal("read config", err)
	}
	return cfg
}

func mustOpenStore(cfg config.Config) (store.Store, func()) {
	db, err := store.Open(cfg.Database)
	if err != nil {
		serviceutil.Fatal("open database", err)
	}
	return store.NewStore(db), func() { db.Close() }
}
