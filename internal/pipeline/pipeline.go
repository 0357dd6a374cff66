// Package pipeline runs the scrape cycle: lock, extract each enabled
// limit, filter, dedupe, persist, log, release. One cycle at a time.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"winamax-scraper/internal/config"
	"winamax-scraper/internal/extractor"
	"winamax-scraper/internal/store"
	"winamax-scraper/lib/limits"
	"winamax-scraper/lib/proclock"
	"winamax-scraper/lib/timezone"
	"winamax-scraper/lib/whitelist"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("internal/pipeline")

var (
	// ErrAlreadyRunning means a cycle is still executing in this process.
	ErrAlreadyRunning = errors.New("a scrape cycle is already running")
	// ErrLockHeld means another process holds the scraper lock.
	ErrLockHeld = errors.New("scraper lock held by another process")
)

// Inter-limit pause, keeps the request rate polite toward the source.
var limitDelay = 2 * time.Second

// scraperLockTTL caps how long a crashed run can block its successors
// even when the stale pid check cannot settle the question.
const scraperLockTTL = 30 * time.Minute

// Stats accumulates cycle outcomes for the status endpoint.
type Stats struct {
	TotalRuns      int       `json:"totalRuns"`
	SuccessfulRuns int       `json:"successfulRuns"`
	FailedRuns     int       `json:"failedRuns"`
	LastError      string    `json:"lastError,omitempty"`
	LastRunTime    time.Time `json:"lastRunTime"`
}

// RunOutcome describes how the most recent cycle ended.
type RunOutcome struct {
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
}

// State is a point-in-time view of the runner, safe to hand to HTTP
// handlers.
type State struct {
	Running    bool
	StartedAt  time.Time
	Stats      Stats
	LastResult *RunOutcome
}

// Runner owns the scrape cycle. All mutable run state lives here, read
// through State(), never through package globals.
type Runner struct {
	cfg      config.Config
	store    store.Store
	ext      extractor.Extractor
	registry *limits.Registry
	lock     *proclock.Lock

	mu         sync.Mutex
	running    bool
	runStarted time.Time
	stats      Stats
	lastResult *RunOutcome
}

func NewRunner(cfg config.Config, st store.Store, ext extractor.Extractor, registry *limits.Registry) *Runner {
	return &Runner{
		cfg:      cfg,
		store:    st,
		ext:      ext,
		registry: registry,
		lock:     proclock.NewWithStaleTimeout("scraper", scraperLockTTL),
	}
}

// State returns a snapshot of the current run state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return State{
		Running:    r.running,
		StartedAt:  r.runStarted,
		Stats:      r.stats,
		LastResult: r.lastResult,
	}
}

// Run executes one full scrape cycle. When a cycle is already active,
// in this process or in another one, it skips without side effects;
// the next scheduled tick is the retry.
func (r *Runner) Run(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		slog.InfoContext(ctx, "scrape tick skipped, previous cycle still running")
		return ErrAlreadyRunning
	}
	r.running = true
	r.runStarted = timezone.Now()
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	if r.cfg.PreventParallelRuns {
		if !r.lock.TryAcquire() {
			slog.InfoContext(ctx, "scrape skipped, lock held by another process")
			return ErrLockHeld
		}
		defer r.lock.Release()
	}

	ctx, span := tracer.Start(ctx, "pipeline.Run")
	defer span.End()

	wl := whitelist.Load(r.cfg.WhitelistFile)
	enabled := r.registry.Enabled()
	slog.InfoContext(ctx, "starting scrape cycle",
		"limits", len(enabled), "whitelist_active", wl.Active())

	var firstErr error
	for i, lim := range enabled {
		if i > 0 {
			select {
			case <-ctx.Done():
				firstErr = ctx.Err()
			case <-time.After(limitDelay):
			}
		}
		if ctx.Err() != nil {
			break
		}
		// One limit failing never aborts the cycle.
		if err := r.runLimit(ctx, lim, wl); err != nil {
			slog.WarnContext(ctx, "limit scrape failed",
				"limit", lim.ID, "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	r.mu.Lock()
	r.stats.TotalRuns++
	r.stats.LastRunTime = timezone.Now()
	outcome := RunOutcome{Success: firstErr == nil, Timestamp: r.stats.LastRunTime}
	if firstErr != nil {
		r.stats.FailedRuns++
		r.stats.LastError = firstErr.Error()
		outcome.Error = firstErr.Error()
	} else {
		r.stats.SuccessfulRuns++
		r.stats.LastError = ""
	}
	r.lastResult = &outcome
	r.mu.Unlock()

	if firstErr != nil {
		span.RecordError(firstErr)
		span.SetStatus(codes.Error, "cycle finished with failures")
	}
	return firstErr
}

func (r *Runner) runLimit(ctx context.Context, lim limits.Limit, wl whitelist.Whitelist) (err error) {
	ctx, span := tracer.Start(ctx, "pipeline.runLimit")
	defer span.End()

	started := time.Now()
	logID := r.store.OpenRun(ctx, lim.ID)

	var result store.RunResult
	defer func() {
		result.ExecutionTime = time.Since(started)
		result.Success = err == nil
		if err != nil {
			result.ErrorMessage = err.Error()
			span.RecordError(err)
			span.SetStatus(codes.Error, "limit failed")
		}
		r.store.CloseRun(ctx, logID, result)
	}()

	raw, err := r.ext.Extract(ctx, lim.URL)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	kept, missing := Filter(raw, r.cfg.MinPointsFilter, wl)
	if len(missing) > 0 {
		for _, m := range missing {
			slog.WarnContext(ctx, "whitelist entry matched no player",
				"entry", m.Entry, "closest", m.Closest, "limit", lim.ID)
		}
	}

	res := r.store.InsertSnapshots(ctx, lim.ID, toSnapshots(kept), timezone.Now(), r.cfg.CheckDuplicates)
	result.PlayersFound = len(kept)
	result.PlayersSaved = res.Inserted

	slog.InfoContext(ctx, "limit scraped",
		"limit", lim.ID, "raw", len(raw), "kept", len(kept),
		"saved", res.Inserted, "duplicates", res.Duplicates)

	if !res.Success() {
		return fmt.Errorf("persist: %d of %d rows failed", res.Errors, res.Total)
	}
	return nil
}

func toSnapshots(records []extractor.Record) []store.Snapshot {
	rows := make([]store.Snapshot, len(records))
	for i, r := range records {
		rows[i] = store.Snapshot{
			Rank:      r.Rank,
			Player:    r.Name,
			Points:    r.Points,
			Guarantee: r.Guarantee,
		}
	}
	return rows
}
