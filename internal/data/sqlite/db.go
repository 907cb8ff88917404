package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lomotos10/GCM-bot/internal/data"
	"github.com/lomotos10/GCM-bot/internal/game"

	_ "modernc.org/sqlite"
)

// DB implements data.Catalog and resolver.UnresolvedQueryLog using SQLite.
type DB struct {
	conn *sql.DB
}

// Open opens a SQLite database at the given path (file path or ":memory:").
// The schema is applied on open so older files pick up new tables.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one connection keeps ":memory:" databases shared and serializes writers
	conn.SetMaxOpenConns(1)
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("schema: %w", err)
	}
	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return &DB{conn: conn}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// DB returns the underlying *sql.DB.
func (db *DB) DB() *sql.DB {
	return db.conn
}

// Titles returns the titles of g in ingest order.
func (db *DB) Titles(ctx context.Context, g game.Game) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, "SELECT title FROM charts WHERE game = ? ORDER BY ord", string(g))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Chart returns the chart with the exact title, or nil.
func (db *DB) Chart(ctx context.Context, g game.Game, title string) (*data.Chart, error) {
	var id int64
	var deleted int
	c := &data.Chart{Game: g}
	err := db.conn.QueryRowContext(ctx,
		"SELECT id, title, artist, category, version, bpm, jacket_url, date, partner, deleted FROM charts WHERE game = ? AND title = ?",
		string(g), title).
		Scan(&id, &c.Title, &c.Artist, &c.Category, &c.Version, &c.BPM, &c.JacketURL, &c.Date, &c.Character, &deleted)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.Deleted = deleted != 0

	rows, err := db.conn.QueryContext(ctx,
		"SELECT set_ord, region, variant, difficulty, value, constant, designer, tap, hold, slide, touch, brk FROM chart_levels WHERE chart_id = ? ORDER BY set_ord, pos", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	last := -1
	for rows.Next() {
		var setOrd int
		var region, variant, diff, value string
		var constant sql.NullFloat64
		var designer string
		var tap, hold, slide, touch, brk sql.NullInt64
		if err := rows.Scan(&setOrd, &region, &variant, &diff, &value, &constant, &designer, &tap, &hold, &slide, &touch, &brk); err != nil {
			return nil, err
		}
		if setOrd != last {
			c.Levels = append(c.Levels, data.LevelSet{Region: region, Variant: variant})
			last = setOrd
		}
		lv := data.Level{Difficulty: diff, Value: value, Designer: designer}
		if tap.Valid {
			lv.Notes = &data.NoteCounts{
				Tap:   int(tap.Int64),
				Hold:  int(hold.Int64),
				Slide: int(slide.Int64),
				Touch: int(touch.Int64),
				Break: int(brk.Int64),
			}
		}
		if constant.Valid {
			f := constant.Float64
			lv.Constant = &f
		}
		ls := &c.Levels[len(c.Levels)-1]
		ls.Levels = append(ls.Levels, lv)
	}
	return c, rows.Err()
}

// ReplaceCharts deletes every chart of g and writes charts in order, in one transaction.
// Charts with an empty or repeated title are skipped.
func (db *DB) ReplaceCharts(ctx context.Context, g game.Game, charts []data.Chart) (written int, err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM chart_levels WHERE chart_id IN (SELECT id FROM charts WHERE game = ?)", string(g)); err != nil {
		return 0, err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM charts WHERE game = ?", string(g)); err != nil {
		return 0, err
	}

	chartStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO charts (game, ord, title, artist, category, version, bpm, jacket_url, date, partner, deleted) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return 0, err
	}
	defer chartStmt.Close()
	levelStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO chart_levels (chart_id, set_ord, region, variant, pos, difficulty, value, constant, designer, tap, hold, slide, touch, brk) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return 0, err
	}
	defer levelStmt.Close()

	seen := make(map[string]bool, len(charts))
	for i := range charts {
		c := &charts[i]
		if c.Title == "" || seen[c.Title] {
			continue
		}
		seen[c.Title] = true
		deleted := 0
		if c.Deleted {
			deleted = 1
		}
		res, err := chartStmt.ExecContext(ctx, string(g), written, c.Title, c.Artist, c.Category, c.Version, c.BPM, c.JacketURL, c.Date, c.Character, deleted)
		if err != nil {
			return written, fmt.Errorf("insert %q: %w", c.Title, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return written, err
		}
		for setOrd, ls := range c.Levels {
			for pos, lv := range ls.Levels {
				var constant interface{}
				if lv.Constant != nil {
					constant = *lv.Constant
				}
				var tap, hold, slide, touch, brk interface{}
				if n := lv.Notes; n != nil {
					tap, hold, slide, touch, brk = n.Tap, n.Hold, n.Slide, n.Touch, n.Break
				}
				if _, err := levelStmt.ExecContext(ctx, id, setOrd, ls.Region, ls.Variant, pos, lv.Difficulty, lv.Value, constant,
					lv.Designer, tap, hold, slide, touch, brk); err != nil {
					return written, fmt.Errorf("insert levels of %q: %w", c.Title, err)
				}
			}
		}
		written++
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return written, nil
}

// Counts returns the number of charts per game.
func (db *DB) Counts(ctx context.Context) (map[game.Game]int, error) {
	rows, err := db.conn.QueryContext(ctx, "SELECT game, COUNT(*) FROM charts GROUP BY game")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[game.Game]int)
	for rows.Next() {
		var g string
		var n int
		if err := rows.Scan(&g, &n); err != nil {
			return nil, err
		}
		out[game.Game(g)] = n
	}
	return out, rows.Err()
}
