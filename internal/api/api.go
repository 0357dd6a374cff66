// Package api exposes the operator-facing HTTP surface of the scraper
// host. Every endpoint answers with well formed JSON reflecting last
// known state; a failing scrape never turns into a failing status call.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"winamax-scraper/internal/config"
	"winamax-scraper/internal/pipeline"
	"winamax-scraper/internal/store"
	"winamax-scraper/lib/limits"
	"winamax-scraper/lib/timezone"
)

type Server struct {
	cfg       config.Config
	store     store.Store
	runner    *pipeline.Runner
	startedAt time.Time
}

func NewServer(cfg config.Config, st store.Store, runner *pipeline.Runner) *Server {
	return &Server{
		cfg:       cfg,
		store:     st,
		runner:    runner,
		startedAt: timezone.Now(),
	}
}

// Mux wires the endpoint table. The watchdog probes /api/status, so its
// shape is a contract, not a convenience.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scraping/status", s.handleScrapingStatus)
	mux.HandleFunc("/api/scraping/start", s.handleScrapingStart)
	mux.HandleFunc("/api/scraping/history", s.handleHistory)
	mux.HandleFunc("/api/stats", s.handleStats)
	return mux
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	state := s.runner.State()
	var lastTime any
	if !state.Stats.LastRunTime.IsZero() {
		lastTime = state.Stats.LastRunTime.Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":             "running",
		"serverStartTime":    s.startedAt.Format(time.RFC3339),
		"uptime":             time.Since(s.startedAt).Milliseconds(),
		"isScrapingRunning":  state.Running,
		"lastScrapingTime":   lastTime,
		"lastScrapingResult": state.LastResult,
		"stats":              state.Stats,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": timezone.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Milliseconds(),
	})
}

func (s *Server) handleScrapingStatus(w http.ResponseWriter, r *http.Request) {
	state := s.runner.State()
	var lastRun any
	if !state.Stats.LastRunTime.IsZero() {
		lastRun = state.Stats.LastRunTime.Format(time.RFC3339)
	}
	body := map[string]any{
		"isRunning":  state.Running,
		"lastRun":    lastRun,
		"lastResult": state.LastResult,
		"stats":      state.Stats,
	}
	if state.Running {
		body["startedAt"] = state.StartedAt.Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleScrapingStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{
			"error": "POST required",
		})
		return
	}
	if s.runner.State().Running {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":     "scraping is already in progress",
			"isRunning": true,
		})
		return
	}

	go func() {
		if err := s.runner.Run(context.Background()); err != nil {
			slog.Warn("manually triggered scrape failed", "err", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]any{
		"message":   "scraping started",
		"startTime": timezone.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	n := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 200 {
			n = v
		}
	}

	// Each history entry is a full cycle, so fetch enough log rows to
	// cover every enabled limit per cycle.
	rows, err := s.store.RecentLogs(r.Context(), n*len(limits.All()))
	if err != nil {
		slog.WarnContext(r.Context(), "history query failed", "err", err)
		writeJSON(w, http.StatusOK, map[string]any{"history": []RunGroup{}})
		return
	}

	groups := GroupRuns(rows)
	if len(groups) > n {
		groups = groups[:n]
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": groups})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	totals, err := s.store.Stats(r.Context())
	if err != nil {
		slog.WarnContext(r.Context(), "stats query failed", "err", err)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"database": totals,
		"runtime":  s.runner.State().Stats,
	})
}
