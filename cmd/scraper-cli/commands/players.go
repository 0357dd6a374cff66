package commands

import (
	"fmt"
	"os"
	"time"

	"winamax-scraper/lib/serviceutil"
	"winamax-scraper/lib/timezone"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	playersLimit *string
	playersDays  *int
	playerHours  *int
)

func init() {
	playersLimit = playersCmd.Flags().String("limit", "", "Restrict to one tournament limit id.")
	playersDays = playersCmd.Flags().Int("days", 7, "How many days back to count.")
	rootCmd.AddCommand(playersCmd)

	playerHours = playerCmd.Flags().Int("hours", 24, "How many hours of history to show.")
	playerCmd.Flags().String("limit", "", "Restrict to one tournament limit id.")
	rootCmd.AddCommand(playerCmd)
}

var playersCmd = &cobra.Command{
	Use:   "players [--limit 50] [--days 7]",
	Short: "Shows the most active tracked players.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		st, closeStore := mustOpenStore(cfg)
		defer closeStore()

		players, err := st.TopActivePlayers(cmd.Context(), *playersLimit, *playersDays, 25)
		if err != nil {
			serviceutil.Fatal("query active players", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Player", "Seen", "Avg Points", "Max Points", "Best Rank", "Active Days", "Last Seen"})
		for _, p := range players {
			t.AppendRow(table.Row{
				p.Player, p.Appearances,
				fmt.Sprintf("%.1f", p.AvgPoints), p.MaxPoints,
				p.BestRank, p.ActiveDays,
				p.LastSeen.In(timezone.Location).Format(time.DateTime),
			})
		}
		t.Render()
	},
}

var playerCmd = &cobra.Command{
	Use:   "player <name> [--limit 50] [--hours 24]",
	Short: "Shows one player's recent score history.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		st, closeStore := mustOpenStore(cfg)
		defer closeStore()

		limitID, _ := cmd.Flags().GetString("limit")
		rows, err := st.PlayerHistory(cmd.Context(), args[0], limitID, *playerHours)
		if err != nil {
			serviceutil.Fatal("query player history", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Captured", "Limit", "Rank", "Points"})
		for _, r := range rows {
			t.AppendRow(table.Row{
				r.ScrapedAt.In(timezone.Location).Format(time.DateTime),
				r.LimitID, r.Rank, r.Points,
			})
		}
		t.Render()
	},
}
