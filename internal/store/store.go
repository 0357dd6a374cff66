// Package store is the durable side of the pipeline: append-only
// leaderboard snapshots, the per-poll run log, and the day-scoped
// deduplication gate, all on a single sqlite database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"winamax-scraper/lib/timezone"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	_ "embed"

	_ "modernc.org/sqlite"
)

var tracer = otel.Tracer("internal/store")

//go:embed schema.sql
var Schema string

// Open opens (creating if needed) the snapshot database and applies the
// schema.
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			os.MkdirAll(dir, 0o777)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// sqlite allows one writer; a second connection would only produce
	// SQLITE_BUSY under concurrent writes
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return db, nil
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) Store {
	return Store{db: db}
}

// Snapshot is one leaderboard row ready to persist.
type Snapshot struct {
	Rank      int
	Player    string
	Points    float64
	Guarantee string // empty when the source shows "-"
}

// InsertResult summarizes one batch insert.
type InsertResult struct {
	Inserted   int
	Duplicates int
	Errors     int
	Total      int
}

func (r InsertResult) Success() bool {
	return r.Errors == 0
}

// IsDuplicate reports whether an equivalent snapshot already exists for
// the same player, limit, points and local calendar date. Rank is
// deliberately not part of the key: a player holding the same score at a
// different rank within one day is still the same observation.
//
// A lookup failure is reported as "not a duplicate": losing a row to a
// transient store error is worse than keeping a rare duplicate.
func (s Store) IsDuplicate(ctx context.Context, player, limitID string, points float64, localDate string) bool {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM tournament_snapshots
		WHERE player_name = ?
		  AND tournament_limit = ?
		  AND points = ?
		  AND scraped_date_local = ?
		LIMIT 1
	`, player, limitID, points, localDate).Scan(&count)
	if err != nil {
		slog.WarnContext(ctx, "duplicate lookup failed, allowing insert", "player", player, "err", err)
		return false
	}
	return count > 0
}

// InsertSnapshots persists a batch for one limit, row by row. When
// dedupe is on, same-day equivalents are skipped. One bad row never
// aborts the rest of the batch.
func (s Store) InsertSnapshots(ctx context.Context, limitID string, rows []Snapshot, capturedAt time.Time, dedupe bool) InsertResult {
	ctx, span := tracer.Start(ctx, "InsertSnapshots")
	defer span.End()
	span.SetAttributes(
		attribute.String("limit", limitID),
		attribute.Int("rows", len(rows)),
	)

	localDate := timezone.DateOnly(capturedAt)
	res := InsertResult{Total: len(rows)}

	for _, row := range rows {
		if dedupe && s.IsDuplicate(ctx, row.Player, limitID, row.Points, localDate) {
			res.Duplicates++
			slog.DebugContext(ctx, "skipping same-day duplicate",
				"player", row.Player, "points", row.Points, "date", localDate)
			continue
		}

		guarantee := sql.NullString{String: row.Guarantee, Valid: row.Guarantee != ""}
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO tournament_snapshots
			(tournament_limit, rank, player_name, points, guarantee, scraped_at, scraped_date_local)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, limitID, row.Rank, row.Player, row.Points, guarantee, capturedAt.UTC().Unix(), localDate)
		if err != nil {
			res.Errors++
			slog.ErrorContext(ctx, "failed to insert snapshot row",
				"player", row.Player, "limit", limitID, "err", err)
			continue
		}
		res.Inserted++
	}

	if res.Errors > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d rows failed", res.Errors))
	}
	slog.InfoContext(ctx, "persisted snapshot batch",
		"limit", limitID,
		"inserted", res.Inserted,
		"duplicates", res.Duplicates,
		"errors", res.Errors)
	return res
}

// CleanupOldSnapshots deletes snapshots whose local capture date is
// older than days. Retention is the only path that ever deletes
// snapshot rows.
func (s Store) CleanupOldSnapshots(ctx context.Context, days int) (int64, error) {
	cutoff := timezone.DateOnly(timezone.Now().AddDate(0, 0, -days))
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM tournament_snapshots WHERE scraped_date_local < ?
	`, cutoff)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		slog.InfoContext(ctx, "cleaned up old snapshots", "deleted", n, "cutoff", cutoff)
	}
	return n, nil
}
