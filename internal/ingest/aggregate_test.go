package ingest

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lomotos10/GCM-bot/internal/config"
	"github.com/lomotos10/GCM-bot/internal/data"
	"github.com/lomotos10/GCM-bot/internal/data/mock"
	"github.com/lomotos10/GCM-bot/internal/game"
)

type staticSource struct {
	name   string
	charts []data.Chart
	err    error
}

func (s staticSource) Name() string    { return s.name }
func (s staticSource) Game() game.Game { return game.Chunithm }
func (s staticSource) Fetch(context.Context) ([]data.Chart, error) {
	return s.charts, s.err
}

func c(v float64) *float64 { return &v }

func TestAggregate_MergesInFirstSeenOrder(t *testing.T) {
	jp := staticSource{name: "jp", charts: []data.Chart{
		{Game: game.Chunithm, Title: "Halcyon", Artist: "xi", Levels: []data.LevelSet{{Region: data.RegionJP, Levels: []data.Level{{Difficulty: "MAS", Value: "14"}}}}},
		{Game: game.Chunithm, Title: "Ikazuchi"},
	}}
	intl := staticSource{name: "intl", charts: []data.Chart{
		{Game: game.Chunithm, Title: "Xevel", Artist: "Camellia"},
		{Game: game.Chunithm, Title: "Halcyon", Version: "CHUNITHM", Levels: []data.LevelSet{{Region: data.RegionIntl, Levels: []data.Level{{Difficulty: "MAS", Value: "14"}}}}},
	}}
	consts := staticSource{name: "consts", charts: []data.Chart{
		{Game: game.Chunithm, Title: "Halcyon", Levels: []data.LevelSet{{Region: data.RegionJP, Levels: []data.Level{{Difficulty: "MAS", Value: "14", Constant: c(14.4)}, {Difficulty: "ULT", Value: "15"}}}}},
	}}

	res, err := Aggregate(context.Background(), zerolog.Nop(), jp, intl, consts)
	require.NoError(t, err)
	require.Len(t, res.Charts, 3)
	assert.Equal(t, "Halcyon", res.Charts[0].Title)
	assert.Equal(t, "Ikazuchi", res.Charts[1].Title)
	assert.Equal(t, "Xevel", res.Charts[2].Title)

	h := res.Charts[0]
	assert.Equal(t, "xi", h.Artist)
	assert.Equal(t, "CHUNITHM", h.Version)
	jpSet := h.LevelSet(data.RegionJP, "")
	require.Len(t, jpSet.Levels, 2)
	require.NotNil(t, jpSet.Levels[0].Constant)
	assert.Equal(t, 14.4, *jpSet.Levels[0].Constant)
	assert.NotNil(t, h.LevelSet(data.RegionIntl, ""))
}

func TestAggregate_FailingSourceIsSkipped(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	ok := staticSource{name: "ok", charts: []data.Chart{{Game: game.Chunithm, Title: "Halcyon"}}}
	bad := staticSource{name: "bad", err: errors.New("connection refused")}

	res, err := Aggregate(context.Background(), logger, bad, ok)
	require.NoError(t, err)
	assert.Len(t, res.Charts, 1)
	assert.Equal(t, []string{"bad"}, res.Failed)
	assert.Contains(t, buf.String(), "chart source failed")

	_, err = Aggregate(context.Background(), logger, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	_, err = Aggregate(context.Background(), logger)
	require.Error(t, err)
}

func TestReadLevelTable(t *testing.T) {
	table := "title,region,variant,bas,adv,exp,mas,extra\n" +
		"Halcyon,intl,ST,4,7,11+,13.5,14.2\n" +
		",jp,,1,2,3,4,\n" +
		"Halcyon,,DX,5,8,12,14,\n"
	charts, err := ReadLevelTable(strings.NewReader(table), game.Maimai, data.RegionJP)
	require.NoError(t, err)
	require.Len(t, charts, 1)
	h := charts[0]
	require.Len(t, h.Levels, 2)
	st := h.LevelSet(data.RegionIntl, "ST")
	require.NotNil(t, st)
	require.Len(t, st.Levels, 5)
	assert.Equal(t, "13", st.Levels[3].Value)
	assert.Equal(t, "14", st.Levels[4].Value)
	assert.Equal(t, "REM", st.Levels[4].Difficulty)
	require.NotNil(t, st.Levels[4].Constant)
	assert.NotNil(t, h.LevelSet(data.RegionJP, "DX"))

	_, err = ReadLevelTable(strings.NewReader("name,bas\nx,1\n"), game.Maimai, data.RegionJP)
	require.Error(t, err)
}

func TestFromConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chuni.csv")
	require.NoError(t, os.WriteFile(path, []byte("title,mas\nHalcyon,14.4\n"), 0o644))

	srcs, err := FromConfig(game.Chunithm, []config.SourceSpec{
		{Kind: "json", URL: "http://example.invalid/chuni.json"},
		{Kind: "csv", Path: path, Region: data.RegionIntl},
	}, NewClient(0))
	require.NoError(t, err)
	require.Len(t, srcs, 2)
	assert.Equal(t, "chunithm-json-0", srcs[0].Name())
	assert.Equal(t, game.Chunithm, srcs[1].Game())

	charts, err := srcs[1].Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, charts, 1)
	assert.Equal(t, data.RegionIntl, charts[0].Levels[0].Region)
	assert.Equal(t, "14", charts[0].Levels[0].Levels[0].Value)

	_, err = FromConfig(game.Chunithm, []config.SourceSpec{{Kind: "xml"}}, nil)
	require.Error(t, err)
}

func TestImport(t *testing.T) {
	var got []data.Chart
	cat := &mock.Catalog{ReplaceChartsFunc: func(_ context.Context, g game.Game, charts []data.Chart) (int, error) {
		got = charts
		return len(charts), nil
	}}
	n, err := Import(context.Background(), cat, game.Chunithm, []data.Chart{
		{Game: game.Chunithm, Title: "Halcyon"},
		{Game: game.Maimai, Title: "Freedom Dive"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, got, 1)

	_, err = Import(context.Background(), cat, game.Ongeki, got)
	require.ErrorIs(t, err, ErrNoCharts)
}
