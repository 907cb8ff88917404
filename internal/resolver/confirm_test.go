package resolver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lomotos10/GCM-bot/internal/alias"
	"github.com/lomotos10/GCM-bot/internal/game"
)

type transportFunc func(ctx context.Context, p Prompt) (Signal, error)

func (f transportFunc) Confirm(ctx context.Context, p Prompt) (Signal, error) { return f(ctx, p) }

type memLog struct {
	mu   sync.Mutex
	rows []UnresolvedQuery
	err  error
}

func (m *memLog) Record(_ context.Context, q UnresolvedQuery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, q)
	return m.err
}

type recorder struct {
	mu    sync.Mutex
	steps []string
}

func (r *recorder) Transition(_ game.Game, from, to State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, from.String()+">"+to.String())
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	idx, err := alias.Build(catalog, []alias.Nickname{{Title: "Halcyon", Nickname: "halc"}})
	require.NoError(t, err)
	r := NewRegistry(game.Maimai)
	_, err = r.Swap(&Snapshot{Game: game.Maimai, Global: idx})
	require.NoError(t, err)
	return r
}

func TestFlow_ResolvesDirectly(t *testing.T) {
	rec := &recorder{}
	log := &memLog{}
	f := NewFlow(newTestRegistry(t), WithObserver(rec), WithUnresolvedLog(log))
	called := false
	out, err := f.Run(context.Background(), Request{
		Game:  game.Maimai,
		Query: "halc",
		Transport: transportFunc(func(context.Context, Prompt) (Signal, error) {
			called = true
			return Signal{}, nil
		}),
	})
	require.NoError(t, err)
	require.Equal(t, Resolved, out.State)
	require.Equal(t, "Halcyon", out.Title)
	require.False(t, out.Confirmed)
	require.False(t, called)
	require.Empty(t, log.rows)
	require.Equal(t, []string{"awaiting_query>resolved"}, rec.steps)
}

func TestFlow_AcceptedSuggestion(t *testing.T) {
	rec := &recorder{}
	log := &memLog{}
	f := NewFlow(newTestRegistry(t), WithObserver(rec), WithUnresolvedLog(log))
	var got Prompt
	out, err := f.Run(context.Background(), Request{
		Game:        game.Maimai,
		Query:       "furidamdive",
		CommunityID: "c1",
		UserID:      "u1",
		Transport: transportFunc(func(ctx context.Context, p Prompt) (Signal, error) {
			got = p
			_, hasDeadline := ctx.Deadline()
			require.True(t, hasDeadline)
			return Signal{Key: p.Suggestion.Key}, nil
		}),
	})
	require.NoError(t, err)
	require.Equal(t, Resolved, out.State)
	require.True(t, out.Confirmed)
	require.Equal(t, "Freedom Dive", out.Title)
	require.Equal(t, "freedomdive", got.Suggestion.Key)
	require.NotEmpty(t, got.ID)
	require.False(t, got.Deadline.IsZero())

	require.Len(t, log.rows, 1)
	row := log.rows[0]
	require.Equal(t, "furidamdive", row.Query)
	require.Equal(t, game.Maimai, row.Game)
	require.Equal(t, "c1", row.CommunityID)
	require.Equal(t, "Freedom Dive", row.GuessTitle)
	require.Greater(t, row.Score, 0.8)
	require.Equal(t, []string{
		"awaiting_query>awaiting_confirmation",
		"awaiting_confirmation>resolved",
	}, rec.steps)
}

func TestFlow_TimeoutAbandons(t *testing.T) {
	rec := &recorder{}
	f := NewFlow(newTestRegistry(t), WithObserver(rec), WithTimeout(20*time.Millisecond))
	start := time.Now()
	out, err := f.Run(context.Background(), Request{
		Game:  game.Maimai,
		Query: "furidamdive",
		Transport: transportFunc(func(ctx context.Context, p Prompt) (Signal, error) {
			<-ctx.Done()
			return Signal{}, ctx.Err()
		}),
	})
	require.NoError(t, err)
	require.Equal(t, Abandoned, out.State)
	require.Equal(t, AbandonTimeout, out.Reason)
	require.Empty(t, out.Title)
	require.NotNil(t, out.Suggestion)
	require.Less(t, time.Since(start), 5*time.Second)
	require.Equal(t, "awaiting_confirmation>abandoned", rec.steps[len(rec.steps)-1])
}

func TestFlow_TransportReportsTimeout(t *testing.T) {
	f := NewFlow(newTestRegistry(t))
	out, err := f.Run(context.Background(), Request{
		Game:  game.Maimai,
		Query: "furidamdive",
		Transport: transportFunc(func(context.Context, Prompt) (Signal, error) {
			return Signal{}, ErrConfirmationTimeout
		}),
	})
	require.NoError(t, err)
	require.Equal(t, AbandonTimeout, out.Reason)
}

func TestFlow_UnsupportedTransport(t *testing.T) {
	f := NewFlow(newTestRegistry(t))
	out, err := f.Run(context.Background(), Request{
		Game:  game.Maimai,
		Query: "furidamdive",
		Transport: transportFunc(func(context.Context, Prompt) (Signal, error) {
			return Signal{}, ErrConfirmationUnsupported
		}),
	})
	require.NoError(t, err)
	require.Equal(t, Abandoned, out.State)
	require.Equal(t, AbandonUnsupported, out.Reason)

	out, err = f.Run(context.Background(), Request{Game: game.Maimai, Query: "furidamdive"})
	require.NoError(t, err)
	require.Equal(t, AbandonUnsupported, out.Reason)
	require.Equal(t, "Freedom Dive", out.Suggestion.Title)
}

func TestFlow_TransportError(t *testing.T) {
	f := NewFlow(newTestRegistry(t))
	boom := errors.New("boom")
	out, err := f.Run(context.Background(), Request{
		Game:  game.Maimai,
		Query: "furidamdive",
		Transport: transportFunc(func(context.Context, Prompt) (Signal, error) {
			return Signal{}, boom
		}),
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, Abandoned, out.State)
	require.Equal(t, AbandonError, out.Reason)
}

func TestFlow_LogFailureDoesNotFailRequest(t *testing.T) {
	f := NewFlow(newTestRegistry(t), WithUnresolvedLog(&memLog{err: errors.New("disk full")}))
	out, err := f.Run(context.Background(), Request{
		Game:  game.Maimai,
		Query: "furidamdive",
		Transport: transportFunc(func(_ context.Context, p Prompt) (Signal, error) {
			return Signal{Key: p.Suggestion.Key}, nil
		}),
	})
	require.NoError(t, err)
	require.Equal(t, "Freedom Dive", out.Title)
}

func TestFlow_ConfirmUsesSnapshotOfSuggestion(t *testing.T) {
	reg := newTestRegistry(t)
	f := NewFlow(reg)
	other, err := alias.Build([]string{"Something Else"}, nil)
	require.NoError(t, err)
	out, err := f.Run(context.Background(), Request{
		Game:  game.Maimai,
		Query: "furidamdive",
		Transport: transportFunc(func(_ context.Context, p Prompt) (Signal, error) {
			_, err := reg.Swap(&Snapshot{Game: game.Maimai, Global: other})
			require.NoError(t, err)
			return Signal{Key: p.Suggestion.Key}, nil
		}),
	})
	require.NoError(t, err)
	require.Equal(t, "Freedom Dive", out.Title)
}

func TestFlow_NotReady(t *testing.T) {
	f := NewFlow(NewRegistry(game.Ongeki))
	out, err := f.Run(context.Background(), Request{Game: game.Ongeki, Query: "x"})
	require.ErrorIs(t, err, ErrNotReady)
	require.Equal(t, Abandoned, out.State)
}

func TestFileLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "alias_log.tsv")
	l := &FileLog{Path: path}
	err := l.Record(context.Background(), UnresolvedQuery{
		Game: game.Ongeki, Query: "fd\tx", GuessKey: "freedomdive", GuessTitle: "Freedom Dive", CommunityID: "c1", Score: 0.8364,
	})
	require.NoError(t, err)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "fd x\tO.N.G.E.K.I.\tfreedomdive\tFreedom Dive\tc1\t0.8364\n", string(b))
	require.Len(t, strings.Split(strings.TrimSpace(string(b)), "\n"), 1)
}
