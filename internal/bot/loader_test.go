package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lomotos10/GCM-bot/internal/alias"
	"github.com/lomotos10/GCM-bot/internal/data/mock"
	"github.com/lomotos10/GCM-bot/internal/data/sqlite"
	"github.com/lomotos10/GCM-bot/internal/game"
	"github.com/lomotos10/GCM-bot/internal/resolver"
	"github.com/lomotos10/GCM-bot/test/fixtures"
)

func fixtureLoader(t *testing.T) *Loader {
	t.Helper()
	path, cleanup := fixtures.CreateTestDB(t)
	t.Cleanup(cleanup)
	db, err := sqlite.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	dir := fixtures.AliasDir(t)
	return &Loader{
		Catalog:   db,
		Nicknames: &alias.FileSource{Dir: dir},
		Manual:    &alias.ManualFileSource{Dir: dir},
		Registry:  resolver.NewRegistry(),
	}
}

func TestLoaderReload(t *testing.T) {
	l := fixtureLoader(t)
	var swapped []*resolver.Snapshot
	l.OnSwap = func(s *resolver.Snapshot) { swapped = append(swapped, s) }

	require.NoError(t, l.Reload(context.Background(), game.Maimai))
	require.Len(t, swapped, 1)

	snap, err := l.Registry.Snapshot(game.Maimai)
	require.NoError(t, err)
	assert.Same(t, swapped[0], snap)
	assert.Equal(t, 3, snap.Global.Titles())

	res, ok := snap.Resolve("halc", "")
	require.True(t, ok)
	assert.Equal(t, "Halcyon", res.Title)

	res, ok = snap.Resolve("oshama", "")
	require.True(t, ok)
	assert.Equal(t, "Oshama Scramble! (Cranky Remix)", res.Title)

	res, ok = snap.Resolve("freedom", "1000")
	require.True(t, ok)
	assert.Equal(t, "Freedom Dive", res.Title)
	assert.True(t, res.Community)
	assert.Equal(t, "42#0001", res.Submitter)

	_, ok = snap.Resolve("freedom", "2000")
	assert.False(t, ok)
}

func TestLoaderEmptyCatalogKeepsPrevious(t *testing.T) {
	titles := []string{"Halcyon"}
	cat := &mock.Catalog{
		TitlesFunc: func(context.Context, game.Game) ([]string, error) { return titles, nil },
	}
	var failed []error
	l := &Loader{
		Catalog:   cat,
		Registry:  resolver.NewRegistry(game.Chunithm),
		OnFailure: func(_ game.Game, err error) { failed = append(failed, err) },
	}
	ctx := context.Background()
	require.NoError(t, l.Reload(ctx, game.Chunithm))
	before, err := l.Registry.Snapshot(game.Chunithm)
	require.NoError(t, err)

	titles = nil
	err = l.Reload(ctx, game.Chunithm)
	require.ErrorIs(t, err, alias.ErrEmptyCatalog)
	require.Len(t, failed, 1)

	after, err := l.Registry.Snapshot(game.Chunithm)
	require.NoError(t, err)
	assert.Same(t, before, after)
}

func TestLoaderEmptyCatalogOnStartup(t *testing.T) {
	l := &Loader{Catalog: &mock.Catalog{}, Registry: resolver.NewRegistry(game.Ongeki)}
	err := l.Reload(context.Background(), game.Ongeki)
	require.ErrorIs(t, err, alias.ErrEmptyCatalog)
	_, err = l.Registry.Snapshot(game.Ongeki)
	assert.ErrorIs(t, err, resolver.ErrNotReady)
	assert.False(t, l.Registry.Ready())
}

func TestLoaderReloadAll(t *testing.T) {
	boom := errors.New("boom")
	cat := &mock.Catalog{
		TitlesFunc: func(_ context.Context, g game.Game) ([]string, error) {
			if g == game.Ongeki {
				return nil, boom
			}
			return []string{"Halcyon"}, nil
		},
	}
	l := &Loader{Catalog: cat, Registry: resolver.NewRegistry()}
	err := l.ReloadAll(context.Background())
	require.ErrorIs(t, err, boom)

	_, err = l.Registry.Snapshot(game.Maimai)
	assert.NoError(t, err)
	_, err = l.Registry.Snapshot(game.Chunithm)
	assert.NoError(t, err)
	_, err = l.Registry.Snapshot(game.Ongeki)
	assert.ErrorIs(t, err, resolver.ErrNotReady)
}
