package commands

import (
	"fmt"
	"os"

	"winamax-scraper/lib/whitelist"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(whitelistCmd)
}

var whitelistCmd = &cobra.Command{
	Use:   "whitelist",
	Short: "Shows the player whitelist currently in effect.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()

		wl := whitelist.Load(cfg.WhitelistFile)
		if !wl.Active() {
			fmt.Printf("no whitelist at %s, every player is kept\n", cfg.WhitelistFile)
			return
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"#", "Entry"})
		for i, entry := range wl.Entries() {
			t.AppendRow(table.Row{i + 1, entry})
		}
		t.Render()
	},
}
