// Package watchdog supervises the scraper host process: probe its
// status endpoint on an interval, restart it when unhealthy, and stop
// restarting when a rolling-window circuit breaker trips.
package watchdog

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"winamax-scraper/internal/config"
	"winamax-scraper/lib/telemetry"

	"github.com/go-resty/resty/v2"
)

const (
	probeTimeout  = 10 * time.Second
	settleDelay   = 3 * time.Second
	restartWindow = time.Hour
)

type Watchdog struct {
	cfg        config.WatchdogConfig
	controller ProcessController
	client     *resty.Client

	// now is swapped in tests to drive the rolling restart window.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)

	mu               sync.Mutex
	startedAt        time.Time
	lastCheckTime    time.Time
	lastServerStatus string
	restarts         []time.Time
	totalRestarts    int
}

func New(cfg config.WatchdogConfig, controller ProcessController) *Watchdog {
	client := resty.New()
	client.SetTimeout(probeTimeout)
	telemetry.InstrumentResty(client, "watchdog/probe")

	return &Watchdog{
		cfg:        cfg,
		controller: controller,
		client:     client,
		now:        time.Now,
		sleep: func(ctx context.Context, d time.Duration) {
			select {
			case <-ctx.Done():
			case <-time.After(d):
			}
		},
		startedAt: time.Now(),
	}
}

// Run probes immediately, launching the target when it is not already
// healthy, then settles into the periodic check loop until the context
// ends.
func (w *Watchdog) Run(ctx context.Context) {
	slog.InfoContext(ctx, "watchdog starting",
		"target", w.cfg.ServerURL,
		"interval_minutes", w.cfg.CheckIntervalMinutes,
		"max_restarts_per_hour", w.cfg.MaxRestartsPerHour)

	w.CheckOnce(ctx)

	interval := time.Duration(w.cfg.CheckIntervalMinutes) * time.Minute
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "watchdog stopping")
			return
		case <-ticker.C:
			w.CheckOnce(ctx)
		}
	}
}

// CheckOnce performs a single probe-and-react cycle.
func (w *Watchdog) CheckOnce(ctx context.Context) {
	healthy, status := w.probe(ctx)

	w.mu.Lock()
	w.lastCheckTime = w.now()
	w.lastServerStatus = status
	w.mu.Unlock()

	if healthy {
		return
	}

	slog.WarnContext(ctx, "target unhealthy", "observed", status)
	w.restart(ctx)
}

// probe treats a network failure, a non-2xx answer and a payload whose
// status is not "running" all the same way: the target is down.
func (w *Watchdog) probe(ctx context.Context) (bool, string) {
	res, err := w.client.R().SetContext(ctx).Get(w.cfg.ServerURL)
	if err != nil {
		return false, "unreachable: " + err.Error()
	}
	if res.StatusCode() < 200 || res.StatusCode() >= 300 {
		return false, res.Status()
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(res.Body(), &body); err != nil {
		return false, "unparseable status payload"
	}
	if body.Status != "running" {
		return false, body.Status
	}
	return true, body.Status
}

// restart terminates stray instances of the target, waits for them to
// settle, then spawns a fresh one. Restarts are capped per rolling
// window; past the cap only manual intervention helps.
func (w *Watchdog) restart(ctx context.Context) {
	if !w.allowRestart() {
		slog.ErrorContext(ctx, "restart suppressed, circuit breaker open",
			"max_per_hour", w.cfg.MaxRestartsPerHour)
		return
	}

	pids, err := w.controller.FindByCommandLine(w.cfg.ServerCommand)
	if err != nil {
		slog.WarnContext(ctx, "process lookup failed", "err", err)
	}
	if len(pids) == 0 {
		// a zombie may no longer match the signature but still hold the port
		if pid, ok := w.controller.FindByPort(w.cfg.ServerPort); ok {
			pids = append(pids, pid)
		}
	}

	for _, pid := range pids {
		slog.InfoContext(ctx, "terminating stray target process", "pid", pid)
		if err := w.controller.Terminate(pid); err != nil {
			slog.WarnContext(ctx, "terminate failed", "pid", pid, "err", err)
		}
	}
	if len(pids) > 0 {
		w.sleep(ctx, settleDelay)
	}

	slog.InfoContext(ctx, "spawning target", "command", w.cfg.ServerCommand)
	if err := w.controller.Spawn(w.cfg.ServerCommand); err != nil {
		slog.ErrorContext(ctx, "spawn failed", "err", err)
		return
	}

	w.mu.Lock()
	w.restarts = append(w.restarts, w.now())
	w.totalRestarts++
	w.mu.Unlock()
}

// allowRestart prunes the rolling window and reports whether another
// restart fits under the cap.
func (w *Watchdog) allowRestart() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := w.now().Add(-restartWindow)
	kept := w.restarts[:0]
	for _, at := range w.restarts {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	w.restarts = kept
	return len(w.restarts) < w.cfg.MaxRestartsPerHour
}
