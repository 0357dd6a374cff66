// Package proclock provides advisory cross-process locks backed by lock
// files in the working directory. A lock names a resource ("scraper",
// "scraper-server", "bot") and records which pid holds it; a record whose
// owner is no longer alive is stale and reclaimable regardless of age.
package proclock

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// ErrHeld reports that a live process already owns the lock.
var ErrHeld = errors.New("lock held by a live process")

// Record is the lock file payload.
type Record struct {
	Pid       int32     `json:"pid"`
	StartTime time.Time `json:"start_time"`
	Argv      string    `json:"argv"`
}

type Lock struct {
	name string
	// records older than this are treated as stale even when the owner
	// pid still exists (a hung scraper holds its pid but should not hold
	// the lock forever). Zero disables the age check.
	staleAfter time.Duration
}

func New(name string) *Lock {
	return &Lock{name: name}
}

// NewWithStaleTimeout returns a lock whose records expire after d even if
// the owning process is still alive.
func NewWithStaleTimeout(name string, d time.Duration) *Lock {
	return &Lock{name: name, staleAfter: d}
}

func (l *Lock) path() string {
	return filepath.Join(".", l.name+".lock")
}

// read returns the current record, or nil when there is none. Any I/O or
// parse problem degrades to "no lock": an unreadable lock file must never
// deadlock the deployment.
func (l *Lock) read() *Record {
	raw, err := os.ReadFile(l.path())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		slog.Warn("could not read lock file, treating as unlocked", "lock", l.name, "err", err)
		return nil
	}

	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		slog.Warn("malformed lock file, treating as unlocked", "lock", l.name, "err", err)
		return nil
	}
	if rec.Pid == 0 {
		return nil
	}
	return &rec
}

// IsHeld reports whether a live process currently owns the lock.
func (l *Lock) IsHeld() bool {
	rec := l.read()
	if rec == nil {
		return false
	}

	if l.staleAfter > 0 && time.Since(rec.StartTime) > l.staleAfter {
		slog.Warn("lock file exceeded stale timeout, reclaiming",
			"lock", l.name, "age", time.Since(rec.StartTime).Round(time.Second))
		l.Release()
		return false
	}

	alive, err := process.PidExists(rec.Pid)
	if err != nil {
		slog.Warn("could not probe lock owner, treating as unlocked", "lock", l.name, "pid", rec.Pid, "err", err)
		return false
	}
	if !alive {
		slog.Info("lock owner is gone, reclaiming stale lock", "lock", l.name, "pid", rec.Pid)
		l.Release()
		return false
	}
	return true
}

// TryAcquire takes the lock for the current process. Returns false when a
// live owner already holds it. The file is created exclusively, so two
// racing acquirers cannot both succeed: the loser lands on the liveness
// check and backs off while the winner is alive.
func (l *Lock) TryAcquire() bool {
	rec := Record{
		Pid:       int32(os.Getpid()),
		StartTime: time.Now().UTC(),
		Argv:      strings.Join(os.Args, " "),
	}
	raw, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		slog.Error("could not marshal lock record", "lock", l.name, "err", err)
		return false
	}

	// The record is staged to a private file and linked into place, so
	// the lock file appears atomically with its content: no contender
	// can ever observe a half-written record.
	staging := fmt.Sprintf("%s.%d", l.path(), rec.Pid)
	if err := os.WriteFile(staging, raw, 0o644); err != nil {
		slog.Error("could not write lock file", "lock", l.name, "err", err)
		return false
	}
	defer os.Remove(staging)

	// two attempts: the second runs after a stale record was reclaimed
	for attempt := 0; attempt < 2; attempt++ {
		err := os.Link(staging, l.path())
		if err == nil {
			slog.Info("acquired process lock", "lock", l.name, "pid", rec.Pid)
			return true
		}
		if !os.IsExist(err) {
			slog.Error("could not create lock file", "lock", l.name, "err", err)
			return false
		}
		// a record exists; IsHeld reclaims it when the owner is stale
		if l.IsHeld() {
			return false
		}
		// an unreadable record survives IsHeld, drop it before retrying
		l.Release()
	}
	return false
}

// Release removes the lock file. Idempotent.
func (l *Lock) Release() {
	err := os.Remove(l.path())
	if err != nil && !os.IsNotExist(err) {
		slog.Warn("could not remove lock file", "lock", l.name, "err", err)
		return
	}
	if err == nil {
		slog.Info("released process lock", "lock", l.name)
	}
}

// Info returns the current record without liveness checks, for status
// surfaces.
func (l *Lock) Info() *Record {
	return l.read()
}
