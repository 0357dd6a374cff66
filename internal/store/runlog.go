package store

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"winamax-scraper/lib/timezone"
)

// RunResult finalizes one poll attempt against one limit.
type RunResult struct {
	PlayersFound  int
	PlayersSaved  int
	Success       bool
	ErrorMessage  string
	ExecutionTime time.Duration
}

// LogRow is one scraping_logs row.
type LogRow struct {
	ID            int64
	LocalDate     string
	LocalTime     string
	StartedAt     time.Time
	LimitID       string
	PlayersFound  int
	PlayersSaved  int
	Success       bool
	ErrorMessage  string
	ExecutionTime time.Duration
	Finalized     bool
}

// OpenRun records the start of a poll attempt and returns the log row
// id. On failure it returns 0, which CloseRun treats as a no-op: the
// run log must never be the reason a scrape aborts.
func (s Store) OpenRun(ctx context.Context, limitID string) int64 {
	now := timezone.Now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO scraping_logs (scraping_date, scraping_time, started_at, limit_value)
		VALUES (?, ?, ?, ?)
	`, timezone.DateOnly(now), timezone.TimeOnly(now), now.UTC().Unix(), limitID)
	if err != nil {
		slog.WarnContext(ctx, "could not open run log entry", "limit", limitID, "err", err)
		return 0
	}
	id, err := res.LastInsertId()
	if err != nil {
		slog.WarnContext(ctx, "could not read run log id", "limit", limitID, "err", err)
		return 0
	}
	return id
}

// CloseRun finalizes a previously opened run log entry. id 0 no-ops.
func (s Store) CloseRun(ctx context.Context, id int64, result RunResult) {
	if id == 0 {
		return
	}

	errMsg := sql.NullString{String: result.ErrorMessage, Valid: result.ErrorMessage != ""}
	_, err := s.db.ExecContext(ctx, `
		UPDATE scraping_logs
		SET players_found = ?,
		    players_saved = ?,
		    database_success = ?,
		    error_message = ?,
		    execution_time_ms = ?,
		    finalized = 1
		WHERE id = ?
	`, result.PlayersFound, result.PlayersSaved, boolToInt(result.Success),
		errMsg, result.ExecutionTime.Milliseconds(), id)
	if err != nil {
		slog.WarnContext(ctx, "could not close run log entry", "id", id, "err", err)
	}
}

// RecentLogs returns the newest run log rows, newest first.
func (s Store) RecentLogs(ctx context.Context, limit int) ([]LogRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, scraping_date, scraping_time, started_at, limit_value,
		       players_found, players_saved, database_success,
		       error_message, COALESCE(execution_time_ms, 0), finalized
		FROM scraping_logs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LogRow
	for rows.Next() {
		var r LogRow
		var startedAt int64
		var success, finalized int
		var errMsg sql.NullString
		var execMs int64
		err := rows.Scan(&r.ID, &r.LocalDate, &r.LocalTime, &startedAt, &r.LimitID,
			&r.PlayersFound, &r.PlayersSaved, &success, &errMsg, &execMs, &finalized)
		if err != nil {
			return nil, err
		}
		r.StartedAt = time.Unix(startedAt, 0).UTC()
		r.Success = success != 0
		r.Finalized = finalized != 0
		r.ErrorMessage = errMsg.String
		r.ExecutionTime = time.Duration(execMs) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}

// CleanupOldLogs deletes run log rows older than days (by local date).
func (s Store) CleanupOldLogs(ctx context.Context, days int) (int64, error) {
	cutoff := timezone.DateOnly(timezone.Now().AddDate(0, 0, -days))
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM scraping_logs WHERE scraping_date < ?
	`, cutoff)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		slog.InfoContext(ctx, "cleaned up old run logs", "deleted", n, "cutoff", cutoff)
	}
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
