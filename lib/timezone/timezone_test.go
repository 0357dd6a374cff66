package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDateOnly(t *testing.T) {
	cases := []struct {
		instant time.Time
		expect  string
	}{
		// 23:30 UTC is already the next day in Rome (UTC+1 in winter)
		{time.Date(2024, time.January, 15, 23, 30, 0, 0, time.UTC), "2024-01-16"},
		{time.Date(2024, time.January, 15, 22, 30, 0, 0, time.UTC), "2024-01-15"},
		// summer: UTC+2
		{time.Date(2024, time.July, 15, 22, 30, 0, 0, time.UTC), "2024-07-16"},
		{time.Date(2024, time.July, 15, 21, 30, 0, 0, time.UTC), "2024-07-15"},
	}

	for _, test := range cases {
		require.Equal(t, test.expect, DateOnly(test.instant), "instant %s", test.instant)
	}
}

func TestDayBoundsAcrossDST(t *testing.T) {
	// Europe/Rome springs forward on 2024-03-31: that local day is 23h long.
	instant := time.Date(2024, time.March, 31, 12, 0, 0, 0, Location)
	start, next := DayBounds(instant)

	require.Equal(t, "2024-03-31", DateOnly(start))
	require.Equal(t, "2024-04-01", DateOnly(next))
	require.Equal(t, 23*time.Hour, next.Sub(start))
}

func TestNearMidnight(t *testing.T) {
	cases := []struct {
		local  time.Time
		expect bool
	}{
		{time.Date(2024, time.May, 10, 23, 45, 0, 0, Location), true},
		{time.Date(2024, time.May, 10, 0, 15, 0, 0, Location), true},
		// both half-hour marks are inside the window
		{time.Date(2024, time.May, 10, 0, 30, 0, 0, Location), true},
		{time.Date(2024, time.May, 10, 0, 31, 0, 0, Location), false},
		{time.Date(2024, time.May, 10, 12, 0, 0, 0, Location), false},
		{time.Date(2024, time.May, 10, 23, 29, 0, 0, Location), false},
		{time.Date(2024, time.May, 10, 23, 30, 0, 0, Location), true},
	}

	for _, test := range cases {
		require.Equal(t, test.expect, NearMidnight(test.local, 30*time.Minute), "local %s", test.local)
	}
}
