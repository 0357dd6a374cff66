package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"winamax-scraper/internal/config"
	"winamax-scraper/internal/extractor"
	"winamax-scraper/internal/pipeline"
	"winamax-scraper/internal/store"
	"winamax-scraper/lib/limits"
	"winamax-scraper/lib/telemetry"

	"github.com/stretchr/testify/require"
)

type stubExtractor struct {
	records []extractor.Record
	block   chan struct{}
}

func (s *stubExtractor) Extract(ctx context.Context, url string) ([]extractor.Record, error) {
	if s.block != nil {
		<-s.block
	}
	return s.records, nil
}

func setup(t *testing.T, ext extractor.Extractor) (*httptest.Server, *pipeline.Runner, store.Store) {
	t.Helper()
	cleanup := telemetry.SetupForTesting("test:api")
	t.Cleanup(cleanup)

	db, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	st := store.NewStore(db)

	cfg := config.Default()
	cfg.PreventParallelRuns = false

	registry := limits.NewRegistry(limits.StaticProvider{Name: "test", List: []string{"50"}})
	runner := pipeline.NewRunner(cfg, st, ext, registry)

	srv := httptest.NewServer(NewServer(cfg, st, runner).Mux())
	t.Cleanup(srv.Close)
	return srv, runner, st
}

func getJSON(t *testing.T, url string) (int, map[string]any) {
	t.Helper()
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	return res.StatusCode, body
}

func TestStatusEndpoint(t *testing.T) {
	srv, _, _ := setup(t, &stubExtractor{})

	code, body := getJSON(t, srv.URL+"/api/status")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "running", body["status"])
	require.NotEmpty(t, body["serverStartTime"])
	require.Contains(t, body, "stats")
	require.Equal(t, false, body["isScrapingRunning"])
	// no cycle has run yet
	require.Nil(t, body["lastScrapingTime"])
	require.Nil(t, body["lastScrapingResult"])
}

func TestStatusReflectsLastRun(t *testing.T) {
	ext := &stubExtractor{records: []extractor.Record{
		{Rank: 1, Name: "Alice", Points: 42},
	}}
	srv, runner, _ := setup(t, ext)
	require.NoError(t, runner.Run(context.Background()))

	_, body := getJSON(t, srv.URL+"/api/status")
	require.NotEmpty(t, body["lastScrapingTime"])

	result, ok := body["lastScrapingResult"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, true, result["success"])
}

func TestHealthEndpoint(t *testing.T) {
	srv, _, _ := setup(t, &stubExtractor{})

	code, body := getJSON(t, srv.URL+"/api/health")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "healthy", body["status"])
	require.Contains(t, body, "uptime")
}

func TestStartConflictsWhileRunning(t *testing.T) {
	ext := &stubExtractor{block: make(chan struct{})}
	srv, runner, _ := setup(t, ext)

	res, err := http.Post(srv.URL+"/api/scraping/start", "application/json", nil)
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusAccepted, res.StatusCode)

	require.Eventually(t, func() bool {
		return runner.State().Running
	}, time.Second, 5*time.Millisecond)

	res, err = http.Post(srv.URL+"/api/scraping/start", "application/json", nil)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusConflict, res.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	require.Equal(t, true, body["isRunning"])

	close(ext.block)
	require.Eventually(t, func() bool {
		return !runner.State().Running
	}, time.Second, 5*time.Millisecond)
}

func TestStartRejectsGet(t *testing.T) {
	srv, _, _ := setup(t, &stubExtractor{})

	code, _ := getJSON(t, srv.URL+"/api/scraping/start")
	require.Equal(t, http.StatusMethodNotAllowed, code)
}

func TestHistoryEndpointShape(t *testing.T) {
	ext := &stubExtractor{records: []extractor.Record{
		{Rank: 1, Name: "Alice", Points: 42},
	}}
	srv, runner, _ := setup(t, ext)

	require.NoError(t, runner.Run(context.Background()))

	code, body := getJSON(t, srv.URL+"/api/scraping/history?limit=5")
	require.Equal(t, http.StatusOK, code)

	history, ok := body["history"].([]any)
	require.True(t, ok)
	require.Len(t, history, 1)

	group := history[0].(map[string]any)
	require.Equal(t, true, group["success"])
	require.EqualValues(t, 1, group["totalFound"])
	require.EqualValues(t, 1, group["totalSaved"])
}

func TestGroupRuns(t *testing.T) {
	base := time.Date(2024, time.May, 10, 12, 0, 0, 0, time.UTC)
	rows := []store.LogRow{
		// newest cycle, two limits a few seconds apart
		{LimitID: "100", StartedAt: base.Add(30 * time.Minute).Add(5 * time.Second), PlayersFound: 4, PlayersSaved: 2, Success: true, ExecutionTime: 3 * time.Second},
		{LimitID: "50", StartedAt: base.Add(30 * time.Minute), PlayersFound: 3, PlayersSaved: 3, Success: true, ExecutionTime: 2 * time.Second},
		// older cycle, one limit failed
		{LimitID: "100", StartedAt: base.Add(3 * time.Second), PlayersFound: 0, PlayersSaved: 0, Success: false, ExecutionTime: time.Second},
		{LimitID: "50", StartedAt: base, PlayersFound: 5, PlayersSaved: 1, Success: true, ExecutionTime: 2 * time.Second},
	}

	groups := GroupRuns(rows)
	require.Len(t, groups, 2)

	newest := groups[0]
	require.Equal(t, base.Add(30*time.Minute), newest.StartTime)
	require.Equal(t, 7, newest.TotalFound)
	require.Equal(t, 5, newest.TotalSaved)
	require.True(t, newest.Success)
	require.Equal(t, int64(3000), newest.DurationMs, "cycle duration is the slowest limit, not the sum")
	require.Nil(t, newest.IntervalFromPreviousSuccessMinutes, "no newer success to measure against")
	require.False(t, newest.IsDelayed)
	require.Equal(t, LimitOutcome{Processed: 1, Found: 3, Saved: 3, Success: true}, newest.Limits["50"])

	oldest := groups[1]
	require.Equal(t, base, oldest.StartTime)
	require.False(t, oldest.Success)
	require.Nil(t, oldest.IntervalFromPreviousSuccessMinutes, "failed cycles carry no interval")
	require.False(t, oldest.IsDelayed)
}

func TestGroupRunsIntervalSkipsFailedCycles(t *testing.T) {
	base := time.Date(2024, time.May, 10, 12, 0, 0, 0, time.UTC)
	rows := []store.LogRow{
		{LimitID: "50", StartedAt: base.Add(40 * time.Minute), PlayersFound: 2, PlayersSaved: 1, Success: true, ExecutionTime: time.Second},
		{LimitID: "50", StartedAt: base.Add(35 * time.Minute), Success: false, ExecutionTime: time.Second},
		{LimitID: "50", StartedAt: base, PlayersFound: 3, PlayersSaved: 2, Success: true, ExecutionTime: time.Second},
	}

	groups := GroupRuns(rows)
	require.Len(t, groups, 3)

	require.True(t, groups[0].Success)
	require.Nil(t, groups[0].IntervalFromPreviousSuccessMinutes)

	require.False(t, groups[1].Success)
	require.Nil(t, groups[1].IntervalFromPreviousSuccessMinutes)
	require.False(t, groups[1].IsDelayed)

	// the gap spans the failed cycle: 40 minutes between successes
	require.True(t, groups[2].Success)
	require.NotNil(t, groups[2].IntervalFromPreviousSuccessMinutes)
	require.Equal(t, 40.0, *groups[2].IntervalFromPreviousSuccessMinutes)
	require.True(t, groups[2].IsDelayed)
}
