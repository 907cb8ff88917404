package fixtures

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/lomotos10/GCM-bot/internal/data/sqlite"
	"github.com/lomotos10/GCM-bot/internal/game"
	"github.com/stretchr/testify/require"
)

func TestCreateTestDB_AndQuery(t *testing.T) {
	path, cleanup := CreateTestDB(t)
	defer cleanup()

	db, err := sqlite.Open(path)
	require.NoError(t, err)
	defer db.Close()

	titles, err := db.Titles(context.Background(), game.Maimai)
	require.NoError(t, err)
	require.Equal(t, []string{"Freedom Dive", "Halcyon", "Oshama Scramble! (Cranky Remix)"}, titles)

	chart, err := db.Chart(context.Background(), game.Maimai, "Halcyon")
	require.NoError(t, err)
	require.NotNil(t, chart)
	require.Equal(t, "xi", chart.Artist)
}

func TestAliasDir(t *testing.T) {
	dir := AliasDir(t)
	for rel := range AliasFiles {
		_, err := os.Stat(filepath.Join(dir, filepath.FromSlash(rel)))
		require.NoError(t, err)
	}
}
