package resolver

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lomotos10/GCM-bot/internal/alias"
	"github.com/lomotos10/GCM-bot/internal/game"
)

func TestRegistry_NotReady(t *testing.T) {
	r := NewRegistry()
	require.False(t, r.Ready())
	_, err := r.Snapshot(game.Maimai)
	require.ErrorIs(t, err, ErrNotReady)
	require.Equal(t, game.All(), r.Games())
}

func TestRegistry_SwapKeepsOldSnapshotForReaders(t *testing.T) {
	r := NewRegistry(game.Chunithm)
	_, err := r.Snapshot(game.Maimai)
	require.Error(t, err)

	oldIdx, err := alias.Build([]string{"Halcyon"}, nil)
	require.NoError(t, err)
	prev, err := r.Swap(&Snapshot{Game: game.Chunithm, Global: oldIdx, BuiltAt: time.Now()})
	require.NoError(t, err)
	require.Nil(t, prev)
	require.True(t, r.Ready())

	held, err := r.Snapshot(game.Chunithm)
	require.NoError(t, err)

	newIdx, err := alias.Build([]string{"Freedom Dive"}, nil)
	require.NoError(t, err)
	prev, err = r.Swap(&Snapshot{Game: game.Chunithm, Global: newIdx})
	require.NoError(t, err)
	require.Same(t, held, prev)

	_, ok := held.Resolve("Halcyon", "")
	require.True(t, ok, "old snapshot still answers")
	cur, err := r.Snapshot(game.Chunithm)
	require.NoError(t, err)
	_, ok = cur.Resolve("Halcyon", "")
	require.False(t, ok)
	_, ok = cur.Resolve("Freedom Dive", "")
	require.True(t, ok)
}

func TestRegistry_SwapRejectsInvalid(t *testing.T) {
	r := NewRegistry(game.Maimai)
	_, err := r.Swap(nil)
	require.Error(t, err)
	_, err = r.Swap(&Snapshot{Game: game.Maimai})
	require.Error(t, err)
	idx, err := alias.Build([]string{"Halcyon"}, nil)
	require.NoError(t, err)
	_, err = r.Swap(&Snapshot{Game: game.Ongeki, Global: idx})
	require.Error(t, err)
}

func TestRegistry_ConcurrentReadsDuringSwap(t *testing.T) {
	r := NewRegistry(game.Ongeki)
	a, err := alias.Build([]string{"Halcyon"}, nil)
	require.NoError(t, err)
	b, err := alias.Build([]string{"Halcyon", "Freedom Dive"}, nil)
	require.NoError(t, err)
	_, err = r.Swap(&Snapshot{Game: game.Ongeki, Global: a})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				s, err := r.Snapshot(game.Ongeki)
				if err != nil {
					t.Error(err)
					return
				}
				if _, ok := s.Resolve("halcyon", ""); !ok {
					t.Error("halcyon did not resolve")
					return
				}
			}
		}()
	}
	for i := 0; i < 50; i++ {
		next := a
		if i%2 == 0 {
			next = b
		}
		_, err := r.Swap(&Snapshot{Game: game.Ongeki, Global: next})
		require.NoError(t, err)
	}
	wg.Wait()
}
