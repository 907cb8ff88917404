package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/lomotos10/GCM-bot/internal/game"
	"github.com/lomotos10/GCM-bot/internal/resolver"
	"github.com/lomotos10/GCM-bot/test/fixtures"
	"github.com/stretchr/testify/require"
)

func TestUnresolvedQueries_RecordAndList(t *testing.T) {
	path, cleanup := fixtures.CreateTestDB(t)
	defer cleanup()
	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	var log resolver.UnresolvedQueryLog = db
	ctx := context.Background()
	base := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, log.Record(ctx, resolver.UnresolvedQuery{
		Game: game.Maimai, Query: "furidamdive", GuessKey: "freedomdive", GuessTitle: "Freedom Dive", Score: 0.83, At: base,
	}))
	require.NoError(t, log.Record(ctx, resolver.UnresolvedQuery{
		Game: game.Maimai, Query: "halcyn", CommunityID: "1000", GuessTitle: "Halcyon", Score: 0.9, At: base.Add(time.Second),
	}))
	require.NoError(t, log.Record(ctx, resolver.UnresolvedQuery{Game: game.Ongeki, Query: "sing"}))

	rows, err := db.UnresolvedQueries(ctx, game.Maimai, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "halcyn", rows[0].Query)
	require.Equal(t, "1000", rows[0].CommunityID)
	require.NotEmpty(t, rows[0].ID)
	require.True(t, rows[1].At.Equal(base))
	require.Equal(t, "freedomdive", rows[1].GuessKey)

	all, err := db.UnresolvedQueries(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, game.Ongeki, all[0].Game)
}
