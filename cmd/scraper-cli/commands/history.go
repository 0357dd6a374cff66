package commands

import (
	"fmt"
	"os"
	"sort"
	"time"

	"winamax-scraper/internal/api"
	"winamax-scraper/lib/limits"
	"winamax-scraper/lib/serviceutil"
	"winamax-scraper/lib/timezone"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var historyCount *int

func init() {
	historyCount = historyCmd.Flags().IntP("count", "n", 10, "Number of scrape cycles to show.")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history [-n <cycles>]",
	Short: "Shows recent scrape cycles with per-limit outcomes.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		st, closeStore := mustOpenStore(cfg)
		defer closeStore()

		rows, err := st.RecentLogs(cmd.Context(), *historyCount*len(limits.All()))
		if err != nil {
			serviceutil.Fatal("query run logs", err)
		}

		groups := api.GroupRuns(rows)
		if len(groups) > *historyCount {
			groups = groups[:*historyCount]
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Started", "Limits", "Found", "Saved", "OK", "Duration", "Gap (min)"})
		for _, g := range groups {
			ids := make([]string, 0, len(g.Limits))
			for id := range g.Limits {
				ids = append(ids, id)
			}
			sort.Strings(ids)

			ok := "yes"
			if !g.Success {
				ok = "NO"
			}
			gap := "-"
			if g.IntervalFromPreviousSuccessMinutes != nil {
				gap = fmt.Sprintf("%.1f", *g.IntervalFromPreviousSuccessMinutes)
				if g.IsDelayed {
					gap += " (delayed)"
				}
			}
			t.AppendRow(table.Row{
				g.StartTime.In(timezone.Location).Format(time.DateTime),
				fmt.Sprint(ids),
				g.TotalFound,
				g.TotalSaved,
				ok,
				time.Duration(g.DurationMs) * time.Millisecond,
				gap,
			})
		}
		t.Render()
	},
}
