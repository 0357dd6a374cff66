package proclock

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { os.Chdir(prev) })
}

func writeRecord(t *testing.T, name string, rec Record) {
	t.Helper()
	raw, err := json.Marshal(rec)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(".", name+".lock"), raw, 0o644))
}

func TestAcquireRelease(t *testing.T) {
	chdirTemp(t)
	lock := New("scraper")

	require.True(t, lock.TryAcquire())
	rec := lock.Info()
	require.NotNil(t, rec)
	require.Equal(t, int32(os.Getpid()), rec.Pid)

	lock.Release()
	require.Nil(t, lock.Info())
	// releasing again must not complain
	lock.Release()
}

func TestMutualExclusionWithLiveOwner(t *testing.T) {
	chdirTemp(t)

	// the test process itself plays the part of the live competing owner
	first := New("scraper")
	require.True(t, first.TryAcquire())

	second := New("scraper")
	require.False(t, second.TryAcquire())
}

func TestConcurrentAcquireOneWinner(t *testing.T) {
	chdirTemp(t)

	// the exclusive create is the arbiter: every loser either hits an
	// existing file or the liveness check against the winner's pid
	const contenders = 8
	results := make(chan bool, contenders)
	for i := 0; i < contenders; i++ {
		go func() {
			results <- New("scraper").TryAcquire()
		}()
	}

	wins := 0
	for i := 0; i < contenders; i++ {
		if <-results {
			wins++
		}
	}
	require.Equal(t, 1, wins)
}

func TestStaleLockDeadOwnerIsReclaimed(t *testing.T) {
	chdirTemp(t)

	// pids are capped well below this on linux, so the owner cannot exist
	writeRecord(t, "scraper", Record{
		Pid:       1 << 30,
		StartTime: time.Now().UTC(),
		Argv:      "node server.js",
	})

	lock := New("scraper")
	require.True(t, lock.TryAcquire(), "dead owner must be reclaimable regardless of age")
}

func TestStaleLockTimeout(t *testing.T) {
	chdirTemp(t)

	// live pid but ancient record: the TTL variant reclaims it
	writeRecord(t, "scraper", Record{
		Pid:       int32(os.Getpid()),
		StartTime: time.Now().UTC().Add(-time.Hour),
	})

	ttl := NewWithStaleTimeout("scraper", 30*time.Minute)
	require.True(t, ttl.TryAcquire())

	// a fresh record from a live owner is respected
	writeRecord(t, "other", Record{
		Pid:       int32(os.Getpid()),
		StartTime: time.Now().UTC(),
	})
	held := NewWithStaleTimeout("other", 30*time.Minute)
	require.False(t, held.TryAcquire())
}

func TestMalformedLockFailsOpen(t *testing.T) {
	chdirTemp(t)
	require.NoError(t, os.WriteFile("scraper.lock", []byte("{not json"), 0o644))

	lock := New("scraper")
	require.False(t, lock.IsHeld())
	require.True(t, lock.TryAcquire())
}
