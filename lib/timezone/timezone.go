package timezone

import (
	"log/slog"
	"os"
	"time"
)

// The leaderboard resets every player's points at midnight in the site's
// reference zone, so every date computation in this repo must go through
// Location instead of the host zone. Servers end up in arbitrary regions
// and naive <time.Time>.Year()/Month()/Day() would split days incorrectly.
var Location *time.Location

const DefaultZone = "Europe/Rome"

func init() {
	zone := os.Getenv("TIMEZONE")
	if zone == "" {
		zone = DefaultZone
	}
	var err error
	Location, err = time.LoadLocation(zone)
	if err != nil {
		slog.Warn("invalid TIMEZONE, falling back to default", "zone", zone, "err", err)
		Location, err = time.LoadLocation(DefaultZone)
		if err != nil {
			panic(err)
		}
	}
}

func Now() time.Time {
	return time.Now().In(Location)
}

// DateOnly returns the calendar date of t in the reference zone,
// formatted YYYY-MM-DD. This is the deduplication day boundary.
func DateOnly(t time.Time) string {
	return t.In(Location).Format(time.DateOnly)
}

func TimeOnly(t time.Time) string {
	return t.In(Location).Format(time.TimeOnly)
}

func DateTime(t time.Time) string {
	return t.In(Location).Format(time.DateTime)
}

// DayBounds returns the start of t's local day and the start of the next
// local day. Going through time.Date with Location keeps this correct
// across DST transitions (a local day may be 23 or 25 hours long).
func DayBounds(t time.Time) (time.Time, time.Time) {
	local := t.In(Location)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, Location)
	return start, start.AddDate(0, 0, 1)
}

// NearMidnight reports whether t is within window of the local midnight
// boundary, inclusive on both sides (23:30 and 00:30 both qualify for a
// 30-minute window). The upstream site zeroes scores at midnight, so
// callers use this to flag captures that may straddle the reset.
func NearMidnight(t time.Time, window time.Duration) bool {
	local := t.In(Location)
	dayStart, nextDayStart := DayBounds(t)
	return local.Sub(dayStart) <= window || nextDayStart.Sub(local) <= window
}
