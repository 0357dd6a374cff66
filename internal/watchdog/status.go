package watchdog

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"winamax-scraper/lib/timezone"
)

// Mux serves the watchdog's own read-only status probe.
func (w *Watchdog) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", w.handleStatus)
	return mux
}

func (w *Watchdog) handleStatus(rw http.ResponseWriter, r *http.Request) {
	w.mu.Lock()
	lastCheck := w.lastCheckTime
	lastStatus := w.lastServerStatus
	restarts := w.totalRestarts
	startedAt := w.startedAt
	w.mu.Unlock()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	body := map[string]any{
		"status":           "running",
		"isRunning":        true,
		"lastServerStatus": lastStatus,
		"restartCount":     restarts,
		"checkInterval":    w.cfg.CheckIntervalMinutes,
		"serverUrl":        w.cfg.ServerURL,
		"uptime":           time.Since(startedAt).Milliseconds(),
		"memory": map[string]any{
			"allocBytes": mem.Alloc,
			"sysBytes":   mem.Sys,
			"numGC":      mem.NumGC,
		},
	}
	if !lastCheck.IsZero() {
		body["lastCheckTime"] = lastCheck.In(timezone.Location).Format(time.RFC3339)
	}
	writeJSON(rw, http.StatusOK, body)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
