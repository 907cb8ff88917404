package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/lomotos10/GCM-bot/internal/data"
	"github.com/lomotos10/GCM-bot/internal/game"
	"github.com/lomotos10/GCM-bot/test/fixtures"
	"github.com/stretchr/testify/require"
)

func TestOpen_Close(t *testing.T) {
	path, cleanup := fixtures.CreateTestDB(t)
	defer cleanup()
	db, err := Open(path)
	require.NoError(t, err)
	err = db.Close()
	require.NoError(t, err)
}

func TestInit_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gcm.db")
	require.NoError(t, Init(path))
	require.NoError(t, Init(path))
	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()
	titles, err := db.Titles(context.Background(), game.Maimai)
	require.NoError(t, err)
	require.Empty(t, titles)
}

func TestTitles_IngestOrderPerGame(t *testing.T) {
	path, cleanup := fixtures.CreateTestDB(t)
	defer cleanup()
	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	titles, err := db.Titles(ctx, game.Maimai)
	require.NoError(t, err)
	require.Equal(t, []string{"Freedom Dive", "Halcyon", "Oshama Scramble! (Cranky Remix)"}, titles)

	titles, err = db.Titles(ctx, game.Ongeki)
	require.NoError(t, err)
	require.Equal(t, []string{"Singularity (Arcaea)"}, titles)
}

func TestChart_WithLevels(t *testing.T) {
	path, cleanup := fixtures.CreateTestDB(t)
	defer cleanup()
	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	c, err := db.Chart(ctx, game.Maimai, "Halcyon")
	require.NoError(t, err)
	require.NotNil(t, c)
	require.Equal(t, "176", c.BPM)
	require.Len(t, c.Levels, 1)
	ls := c.LevelSet(data.RegionJP, "ST")
	require.NotNil(t, ls)
	require.Len(t, ls.Levels, 5)
	require.Equal(t, "REM", ls.Levels[4].Difficulty)
	require.NotNil(t, ls.Levels[4].Constant)
	require.InDelta(t, 14.2, *ls.Levels[4].Constant, 1e-9)
	require.Nil(t, ls.Levels[0].Constant)

	c, err = db.Chart(ctx, game.Chunithm, "Freedom Dive")
	require.NoError(t, err)
	require.Nil(t, c)
}

func TestReplaceCharts(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "replace.db"))
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	c := 13.7
	charts := []data.Chart{
		{Game: game.Chunithm, Title: "Xevel", Artist: "Juggernaut.", Levels: []data.LevelSet{
			{Region: data.RegionJP, Levels: []data.Level{{Difficulty: "MAS", Value: "13+", Constant: &c}}},
			{Region: data.RegionIntl, Levels: []data.Level{{Difficulty: "MAS", Value: "13"}}},
		}},
		{Game: game.Chunithm, Title: "Ikazuchi", Deleted: true},
		{Game: game.Chunithm, Title: "Xevel"},
		{Game: game.Chunithm, Title: ""},
	}
	n, err := db.ReplaceCharts(ctx, game.Chunithm, charts)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	titles, err := db.Titles(ctx, game.Chunithm)
	require.NoError(t, err)
	require.Equal(t, []string{"Xevel", "Ikazuchi"}, titles)

	got, err := db.Chart(ctx, game.Chunithm, "Xevel")
	require.NoError(t, err)
	require.Len(t, got.Levels, 2)
	require.Equal(t, data.RegionIntl, got.Levels[1].Region)
	require.InDelta(t, 13.7, *got.Levels[0].Levels[0].Constant, 1e-9)

	got, err = db.Chart(ctx, game.Chunithm, "Ikazuchi")
	require.NoError(t, err)
	require.True(t, got.Deleted)

	n, err = db.ReplaceCharts(ctx, game.Chunithm, []data.Chart{{Title: "Only"}})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	titles, err = db.Titles(ctx, game.Chunithm)
	require.NoError(t, err)
	require.Equal(t, []string{"Only"}, titles)

	counts, err := db.Counts(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, counts[game.Chunithm])
	require.Zero(t, counts[game.Maimai])
}

func TestReplaceCharts_SheetDetails(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "sheets.db"))
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	charts := []data.Chart{{Game: game.Maimai, Title: "BREaK! BREaK! BREaK!", Levels: []data.LevelSet{
		{Region: data.RegionJP, Variant: "DX", Levels: []data.Level{
			{Difficulty: "BAS", Value: "5"},
			{Difficulty: "MAS", Value: "14", Designer: "Jack", Notes: &data.NoteCounts{Tap: 600, Hold: 50, Slide: 80, Touch: 40, Break: 30}},
		}},
	}}}
	_, err = db.ReplaceCharts(ctx, game.Maimai, charts)
	require.NoError(t, err)

	got, err := db.Chart(ctx, game.Maimai, "BREaK! BREaK! BREaK!")
	require.NoError(t, err)
	ls := got.LevelSet(data.RegionJP, "DX")
	require.NotNil(t, ls)
	require.Nil(t, ls.Levels[0].Notes)
	require.Empty(t, ls.Levels[0].Designer)
	require.Equal(t, "Jack", ls.Levels[1].Designer)
	require.NotNil(t, ls.Levels[1].Notes)
	require.Equal(t, data.NoteCounts{Tap: 600, Hold: 50, Slide: 80, Touch: 40, Break: 30}, *ls.Levels[1].Notes)
	require.Equal(t, 800, ls.Levels[1].Notes.Total())
}

func TestOpen_MigratesOldLevelTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	raw, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = raw.Exec(`CREATE TABLE chart_levels (
    chart_id   INTEGER NOT NULL,
    set_ord    INTEGER NOT NULL,
    region     TEXT    NOT NULL,
    variant    TEXT    NOT NULL DEFAULT '',
    pos        INTEGER NOT NULL,
    difficulty TEXT    NOT NULL,
    value      TEXT    NOT NULL DEFAULT '',
    constant   REAL,
    PRIMARY KEY (chart_id, set_ord, pos)
)`)
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	db, err := Open(path)
	require.NoError(t, err)
	_, err = db.ReplaceCharts(context.Background(), game.Maimai, []data.Chart{{Title: "Halcyon", Levels: []data.LevelSet{
		{Region: data.RegionJP, Variant: "ST", Levels: []data.Level{{Difficulty: "MAS", Value: "13", Designer: "x", Notes: &data.NoteCounts{Tap: 1}}}},
	}}})
	require.NoError(t, err)
	got, err := db.Chart(context.Background(), game.Maimai, "Halcyon")
	require.NoError(t, err)
	require.Equal(t, "x", got.Levels[0].Levels[0].Designer)

	// a second open finds nothing to add
	require.NoError(t, db.Close())
	again, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, again.Close())
}
