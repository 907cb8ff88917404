package sqlite

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lomotos10/GCM-bot/internal/game"
	"github.com/lomotos10/GCM-bot/internal/resolver"
)

// timeLayout sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Record stores one unresolved query for later alias curation.
func (db *DB) Record(ctx context.Context, q resolver.UnresolvedQuery) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.At.IsZero() {
		q.At = time.Now().UTC()
	}
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO unresolved_queries (id, game, query, community_id, user_id, guess_key, guess_title, score, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		q.ID, string(q.Game), q.Query, q.CommunityID, q.UserID, q.GuessKey, q.GuessTitle, q.Score, q.At.UTC().Format(timeLayout))
	return err
}

// UnresolvedQueries returns the newest unresolved queries of g (all games when g is empty).
func (db *DB) UnresolvedQueries(ctx context.Context, g game.Game, limit int) ([]resolver.UnresolvedQuery, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.conn.QueryContext(ctx,
		"SELECT id, game, query, community_id, user_id, guess_key, guess_title, score, created_at FROM unresolved_queries WHERE ? = '' OR game = ? ORDER BY created_at DESC LIMIT ?",
		string(g), string(g), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []resolver.UnresolvedQuery
	for rows.Next() {
		var q resolver.UnresolvedQuery
		var gs, at string
		if err := rows.Scan(&q.ID, &gs, &q.Query, &q.CommunityID, &q.UserID, &q.GuessKey, &q.GuessTitle, &q.Score, &at); err != nil {
			return nil, err
		}
		q.Game = game.Game(gs)
		q.At, _ = time.Parse(timeLayout, at)
		out = append(out, q)
	}
	return out, rows.Err()
}
