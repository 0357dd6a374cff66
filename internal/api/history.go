package api

import (
	"encoding/json"
	"net/http"
	"time"

	"winamax-scraper/internal/store"
)

// Log rows recorded within this window of each other belong to the
// same scrape cycle. One cycle walks the enabled limits with short
// pauses, so its rows land close together.
const runGroupWindow = 2 * time.Minute

// A cycle running later than this after its predecessor is flagged as
// delayed in the history view.
const delayedAfter = 10 * time.Minute

// LimitOutcome summarizes one limit inside a grouped cycle.
type LimitOutcome struct {
	Processed int  `json:"processed"`
	Found     int  `json:"found"`
	Saved     int  `json:"saved"`
	Success   bool `json:"success"`
}

// RunGroup is one scrape cycle reconstructed from its per-limit log rows.
type RunGroup struct {
	StartTime  time.Time               `json:"startTime"`
	Limits     map[string]LimitOutcome `json:"limits"`
	TotalFound int                     `json:"totalFound"`
	TotalSaved int                     `json:"totalSaved"`
	Success    bool                    `json:"success"`
	// DurationMs is the slowest limit in the cycle; limits run back to
	// back, so the longest one dominates the wall time.
	DurationMs int64 `json:"durationMs"`

	// Minutes between this cycle's start and the next successful cycle
	// after it. Only successful cycles carry an interval; failed ones
	// are skipped when measuring the effective cadence.
	IntervalFromPreviousSuccessMinutes *float64 `json:"intervalFromPreviousSuccessMinutes"`
	IsDelayed                          bool     `json:"isDelayed"`
}

// GroupRuns folds per-limit log rows (newest first) into cycle
// summaries. Rows within the grouping window of a cycle's newest row
// belong to that cycle.
func GroupRuns(rows []store.LogRow) []RunGroup {
	var groups []RunGroup
	for _, row := range rows {
		if len(groups) == 0 || groups[len(groups)-1].StartTime.Sub(row.StartedAt) > runGroupWindow {
			groups = append(groups, RunGroup{
				StartTime: row.StartedAt,
				Limits:    map[string]LimitOutcome{},
				Success:   true,
			})
		}
		g := &groups[len(groups)-1]

		outcome := g.Limits[row.LimitID]
		outcome.Processed++
		outcome.Found += row.PlayersFound
		outcome.Saved += row.PlayersSaved
		if outcome.Processed == 1 {
			outcome.Success = row.Success
		} else {
			outcome.Success = outcome.Success && row.Success
		}
		g.Limits[row.LimitID] = outcome

		g.TotalFound += row.PlayersFound
		g.TotalSaved += row.PlayersSaved
		g.Success = g.Success && row.Success
		if ms := row.ExecutionTime.Milliseconds(); ms > g.DurationMs {
			g.DurationMs = ms
		}
		// the oldest row in the window marks when the cycle started
		if row.StartedAt.Before(g.StartTime) {
			g.StartTime = row.StartedAt
		}
	}

	// cadence is measured between successful cycles only; a failed cycle
	// neither carries an interval nor resets the reference point
	var lastSuccessStart time.Time
	for i := range groups {
		g := &groups[i]
		if g.Success && !lastSuccessStart.IsZero() {
			gap := lastSuccessStart.Sub(g.StartTime)
			minutes := gap.Minutes()
			g.IntervalFromPreviousSuccessMinutes = &minutes
			g.IsDelayed = gap > delayedAfter
		}
		if g.Success {
			lastSuccessStart = g.StartTime
		}
	}
	return groups
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
