package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"winamax-scraper/internal/config"
	"winamax-scraper/internal/extractor"
	"winamax-scraper/internal/store"
	"winamax-scraper/lib/limits"
	"winamax-scraper/lib/telemetry"
	"winamax-scraper/lib/whitelist"

	"github.com/stretchr/testify/require"
)

type fakeExtractor struct {
	records map[string][]extractor.Record
	fail    map[string]error
	block   chan struct{}
	calls   []string
}

func (f *fakeExtractor) Extract(ctx context.Context, url string) ([]extractor.Record, error) {
	f.calls = append(f.calls, url)
	if f.block != nil {
		<-f.block
	}
	if err, ok := f.fail[url]; ok {
		return nil, err
	}
	return f.records[url], nil
}

func setup(t *testing.T, ext extractor.Extractor, cfg config.Config, ids ...string) (*Runner, store.Store) {
	t.Helper()
	cleanup := telemetry.SetupForTesting("test:pipeline")
	t.Cleanup(cleanup)

	prev := limitDelay
	limitDelay = time.Millisecond
	t.Cleanup(func() { limitDelay = prev })

	db, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	st := store.NewStore(db)

	registry := limits.NewRegistry(limits.StaticProvider{Name: "test", List: ids})
	return NewRunner(cfg, st, ext, registry), st
}

func urlFor(t *testing.T, id string) string {
	t.Helper()
	lim, ok := limits.Get(id)
	require.True(t, ok)
	return lim.URL
}

func TestFullCycle(t *testing.T) {
	cfg := config.Default()
	cfg.PreventParallelRuns = false
	cfg.MinPointsFilter = 5

	ext := &fakeExtractor{records: map[string][]extractor.Record{
		urlFor(t, "50"): {
			{Rank: 1, Name: "Alice", Points: 10},
			{Rank: 2, Name: "Bob", Points: 3},
			{Rank: 3, Name: "Alice", Points: 10},
		},
		urlFor(t, "100"): {},
	}}
	runner, st := setup(t, ext, cfg, "50", "100")

	ctx := context.Background()
	require.NoError(t, runner.Run(ctx))

	logs, err := st.RecentLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)

	byLimit := map[string]store.LogRow{}
	for _, row := range logs {
		byLimit[row.LimitID] = row
	}

	// threshold drops Bob, dedup drops the repeated Alice row
	require.Equal(t, 2, byLimit["50"].PlayersFound)
	require.Equal(t, 1, byLimit["50"].PlayersSaved)
	require.True(t, byLimit["50"].Success)

	require.Equal(t, 0, byLimit["100"].PlayersFound)
	require.Equal(t, 0, byLimit["100"].PlayersSaved)
	require.True(t, byLimit["100"].Success)

	state := runner.State()
	require.False(t, state.Running)
	require.Equal(t, 1, state.Stats.TotalRuns)
	require.Equal(t, 1, state.Stats.SuccessfulRuns)
	require.Equal(t, 0, state.Stats.FailedRuns)
	require.NotNil(t, state.LastResult)
	require.True(t, state.LastResult.Success)
	require.Empty(t, state.LastResult.Error)
}

func TestLimitFailureDoesNotAbortCycle(t *testing.T) {
	cfg := config.Default()
	cfg.PreventParallelRuns = false

	boom := errors.New("navigation timeout")
	ext := &fakeExtractor{
		fail: map[string]error{urlFor(t, "50"): boom},
		records: map[string][]extractor.Record{
			urlFor(t, "100"): {{Rank: 1, Name: "Alice", Points: 42}},
			urlFor(t, "250"): {{Rank: 1, Name: "Carol", Points: 77}},
		},
	}
	runner, st := setup(t, ext, cfg, "50", "100", "250")

	ctx := context.Background()
	err := runner.Run(ctx)
	require.ErrorIs(t, err, boom)

	// all three limits attempted despite the first failing
	require.Len(t, ext.calls, 3)

	logs, lerr := st.RecentLogs(ctx, 10)
	require.NoError(t, lerr)
	require.Len(t, logs, 3)

	byLimit := map[string]store.LogRow{}
	for _, row := range logs {
		byLimit[row.LimitID] = row
	}
	require.False(t, byLimit["50"].Success)
	require.Contains(t, byLimit["50"].ErrorMessage, "navigation timeout")
	require.True(t, byLimit["100"].Success)
	require.Equal(t, 1, byLimit["100"].PlayersSaved)
	require.True(t, byLimit["250"].Success)

	state := runner.State()
	require.Equal(t, 1, state.Stats.FailedRuns)
	require.Contains(t, state.Stats.LastError, "navigation timeout")
	require.NotNil(t, state.LastResult)
	require.False(t, state.LastResult.Success)
	require.Contains(t, state.LastResult.Error, "navigation timeout")
}

func TestConcurrentRunIsSkipped(t *testing.T) {
	cfg := config.Default()
	cfg.PreventParallelRuns = false

	ext := &fakeExtractor{
		records: map[string][]extractor.Record{},
		block:   make(chan struct{}),
	}
	runner, _ := setup(t, ext, cfg, "50")

	done := make(chan error, 1)
	go func() { done <- runner.Run(context.Background()) }()

	require.Eventually(t, func() bool {
		return runner.State().Running
	}, time.Second, 5*time.Millisecond)

	require.ErrorIs(t, runner.Run(context.Background()), ErrAlreadyRunning)

	close(ext.block)
	require.NoError(t, <-done)
	require.Equal(t, 1, runner.State().Stats.TotalRuns)
}

func TestFilterThreshold(t *testing.T) {
	records := []extractor.Record{
		{Rank: 1, Name: "a", Points: 10},
		{Rank: 2, Name: "b", Points: 5},
		{Rank: 3, Name: "c", Points: 3},
		{Rank: 4, Name: "d", Points: 0},
	}

	kept, missing := Filter(records, 5, whitelist.Whitelist{})
	require.Empty(t, missing)
	require.Len(t, kept, 1, "threshold is strict, score must exceed it")
	require.Equal(t, "a", kept[0].Name)

	// lowering the threshold only adds records
	wider, _ := Filter(records, 0, whitelist.Whitelist{})
	require.Len(t, wider, 3)
	seen := map[string]bool{}
	for _, r := range wider {
		seen[r.Name] = true
	}
	for _, r := range kept {
		require.True(t, seen[r.Name])
	}
}

func TestFilterWhitelist(t *testing.T) {
	records := []extractor.Record{
		{Rank: 1, Name: "Jas0n_B0urne", Points: 50},
		{Rank: 2, Name: "SomeoneElse", Points: 60},
	}
	wl := whitelist.FromEntries("Jas0n", "GhostEntry")

	kept, missing := Filter(records, 5, wl)
	require.Len(t, kept, 1)
	require.Equal(t, "Jas0n_B0urne", kept[0].Name)

	require.Len(t, missing, 1)
	require.Equal(t, "GhostEntry", missing[0].Entry)
}
