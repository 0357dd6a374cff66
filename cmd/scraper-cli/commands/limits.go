package commands

import (
	"os"

	"winamax-scraper/lib/limits"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(limitsCmd)
}

var limitsCmd = &cobra.Command{
	Use:   "limits",
	Short: "Lists the known tournament limits and which ones are enabled.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()

		registry := limits.NewRegistry(
			limits.FileProvider{Path: cfg.LimitsFile},
			limits.StaticProvider{Name: "active_limits", List: cfg.ActiveLimits},
		)
		enabled := map[string]bool{}
		for _, l := range registry.Enabled() {
			enabled[l.ID] = true
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"ID", "Name", "Enabled", "URL"})
		for _, l := range limits.All() {
			mark := ""
			if enabled[l.ID] {
				mark = "yes"
			}
			t.AppendRow(table.Row{l.ID, l.Name, mark, l.URL})
		}
		t.Render()
	},
}
