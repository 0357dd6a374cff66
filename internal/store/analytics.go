package store

import (
	"context"
	"time"
)

// Totals is the aggregate view served by GET /api/stats.
type Totals struct {
	SnapshotRows   int64
	UniquePlayers  int64
	FirstSnapshot  time.Time
	LastSnapshot   time.Time
	TotalRuns      int64
	SuccessfulRuns int64
	FailedRuns     int64
	PlayersFound   int64
	PlayersSaved   int64
}

func (s Store) Stats(ctx context.Context) (Totals, error) {
	var t Totals
	var first, last int64

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT player_name),
		       COALESCE(MIN(scraped_at), 0), COALESCE(MAX(scraped_at), 0)
		FROM tournament_snapshots
	`).Scan(&t.SnapshotRows, &t.UniquePlayers, &first, &last)
	if err != nil {
		return Totals{}, err
	}
	if first > 0 {
		t.FirstSnapshot = time.Unix(first, 0).UTC()
	}
	if last > 0 {
		t.LastSnapshot = time.Unix(last, 0).UTC()
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(database_success), 0),
		       COALESCE(SUM(1 - database_success), 0),
		       COALESCE(SUM(players_found), 0),
		       COALESCE(SUM(players_saved), 0)
		FROM scraping_logs
		WHERE finalized = 1
	`).Scan(&t.TotalRuns, &t.SuccessfulRuns, &t.FailedRuns, &t.PlayersFound, &t.PlayersSaved)
	if err != nil {
		return Totals{}, err
	}
	return t, nil
}

// ActivePlayer aggregates one player's recent presence on a limit.
type ActivePlayer struct {
	Player      string
	Appearances int64
	AvgPoints   float64
	MaxPoints   float64
	BestRank    int
	ActiveDays  int64
	LastSeen    time.Time
}

// TopActivePlayers lists the players observed most often in the
// trailing window. An empty limitID spans every limit.
func (s Store) TopActivePlayers(ctx context.Context, limitID string, daysBack, n int) ([]ActivePlayer, error) {
	since := time.Now().UTC().AddDate(0, 0, -daysBack).Unix()
	rows, err := s.db.QueryContext(ctx, `
		SELECT player_name, COUNT(*), AVG(points), MAX(points), MIN(rank),
		       COUNT(DISTINCT scraped_date_local), MAX(scraped_at)
		FROM tournament_snapshots
		WHERE (? = '' OR tournament_limit = ?) AND scraped_at >= ?
		GROUP BY player_name
		ORDER BY COUNT(*) DESC, AVG(points) DESC
		LIMIT ?
	`, limitID, limitID, since, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ActivePlayer
	for rows.Next() {
		var p ActivePlayer
		var lastSeen int64
		err := rows.Scan(&p.Player, &p.Appearances, &p.AvgPoints, &p.MaxPoints,
			&p.BestRank, &p.ActiveDays, &lastSeen)
		if err != nil {
			return nil, err
		}
		p.LastSeen = time.Unix(lastSeen, 0).UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}

// HistoryRow is one observation in a player's recent history.
type HistoryRow struct {
	Player    string
	LimitID   string
	ScrapedAt time.Time
	Points    float64
	Rank      int
}

// PlayerHistory returns a player's recent observations, newest first.
// An empty limitID spans every limit.
func (s Store) PlayerHistory(ctx context.Context, player, limitID string, hoursBack int) ([]HistoryRow, error) {
	since := time.Now().UTC().Add(-time.Duration(hoursBack) * time.Hour).Unix()
	rows, err := s.db.QueryContext(ctx, `
		SELECT player_name, tournament_limit, scraped_at, points, rank
		FROM tournament_snapshots
		WHERE player_name = ? AND (? = '' OR tournament_limit = ?) AND scraped_at > ?
		ORDER BY scraped_at DESC
		LIMIT 20
	`, player, limitID, limitID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryRow
	for rows.Next() {
		var r HistoryRow
		var at int64
		if err := rows.Scan(&r.Player, &r.LimitID, &at, &r.Points, &r.Rank); err != nil {
			return nil, err
		}
		r.ScrapedAt = time.Unix(at, 0).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}
