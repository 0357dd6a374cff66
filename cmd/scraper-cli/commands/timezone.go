package commands

import (
	"fmt"
	"os"
	"time"

	"winamax-scraper/lib/timezone"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(timezoneCmd)
}

var timezoneCmd = &cobra.Command{
	Use:   "timezone",
	Short: "Shows the reference time zone and whether the midnight score reset is imminent.",
	Run: func(cmd *cobra.Command, args []string) {
		now := timezone.Now()
		dayStart, nextDayStart := timezone.DayBounds(now)
		_, offset := now.Zone()

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendRow(table.Row{"Time zone", timezone.Location.String()})
		t.AppendRow(table.Row{"Local time", timezone.DateTime(now)})
		t.AppendRow(table.Row{"Local date", timezone.DateOnly(now)})
		t.AppendRow(table.Row{"UTC offset (min)", offset / 60})
		t.AppendRow(table.Row{"Day starts", timezone.DateTime(dayStart)})
		t.AppendRow(table.Row{"Next day starts", timezone.DateTime(nextDayStart)})
		t.AppendRow(table.Row{"Near midnight", timezone.NearMidnight(now, 30*time.Minute)})
		t.Render()

		if timezone.NearMidnight(now, 30*time.Minute) {
			fmt.Println("scores reset at local midnight; captures around now may straddle the reset")
		}
	},
}
