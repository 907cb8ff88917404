package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lomotos10/GCM-bot/internal/alias"
	"github.com/lomotos10/GCM-bot/internal/data"
	"github.com/lomotos10/GCM-bot/internal/game"
	"github.com/lomotos10/GCM-bot/internal/resolver"
)

// Loader rebuilds the alias indexes of a game from the catalog and alias files and
// publishes them on the registry.
type Loader struct {
	Catalog   data.Catalog
	Nicknames alias.NicknameSource
	Manual    alias.ManualSource
	Registry  *resolver.Registry
	// SuppressCollisionWarnings stops the per-key collision log lines.
	SuppressCollisionWarnings bool
	Logger                    zerolog.Logger
	// OnSwap is called with every published snapshot.
	OnSwap func(*resolver.Snapshot)
	// OnFailure is called when a rebuild keeps the previous snapshot.
	OnFailure func(game.Game, error)

	locks sync.Map // game.Game -> *sync.Mutex
	now   func() time.Time
}

// Build creates a fresh snapshot of g without publishing it.
// It fails with alias.ErrEmptyCatalog when g has no titles.
func (l *Loader) Build(ctx context.Context, g game.Game) (*resolver.Snapshot, error) {
	titles, err := l.Catalog.Titles(ctx, g)
	if err != nil {
		return nil, fmt.Errorf("%s titles: %w", g, err)
	}
	logger := l.Logger.With().Str("game", string(g)).Logger()
	opts := []alias.Option{
		alias.WithLogger(logger),
		alias.SuppressCollisionWarnings(l.SuppressCollisionWarnings),
	}

	var nicks []alias.Nickname
	if l.Nicknames != nil {
		nicks, _, err = l.Nicknames.Nicknames(ctx, string(g))
		if err != nil {
			return nil, fmt.Errorf("%s nicknames: %w", g, err)
		}
	}
	global, err := alias.Build(titles, nicks, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", g.DisplayName(), err)
	}

	communities := map[string]*alias.Index{}
	if l.Manual != nil {
		rows, _, err := l.Manual.ManualAliases(ctx, string(g))
		if err != nil {
			return nil, fmt.Errorf("%s manual aliases: %w", g, err)
		}
		communities = alias.BuildManual(titles, rows, opts...)
	}

	now := time.Now
	if l.now != nil {
		now = l.now
	}
	return &resolver.Snapshot{
		Game:        g,
		Global:      global,
		Communities: communities,
		BuiltAt:     now(),
	}, nil
}

// Reload builds and publishes a snapshot of g. On failure the previous snapshot stays live.
func (l *Loader) Reload(ctx context.Context, g game.Game) error {
	mu, _ := l.locks.LoadOrStore(g, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
	defer mu.(*sync.Mutex).Unlock()

	snap, err := l.Build(ctx, g)
	if err == nil {
		_, err = l.Registry.Swap(snap)
	}
	if err != nil {
		if l.OnFailure != nil {
			l.OnFailure(g, err)
		}
		ev := l.Logger.Error().Err(err).Str("game", string(g))
		if errors.Is(err, alias.ErrEmptyCatalog) {
			ev = ev.Bool("empty_catalog", true)
		}
		ev.Msg("snapshot rebuild failed; keeping previous")
		return err
	}
	l.Logger.Info().
		Str("game", string(g)).
		Int("titles", snap.Global.Titles()).
		Int("communities", len(snap.Communities)).
		Int("collisions", len(snap.Global.Collisions())).
		Msg("snapshot swapped")
	if l.OnSwap != nil {
		l.OnSwap(snap)
	}
	return nil
}

// ReloadAll reloads every registered game concurrently and joins their errors.
func (l *Loader) ReloadAll(ctx context.Context) error {
	games := l.Registry.Games()
	errs := make([]error, len(games))
	var eg errgroup.Group
	for i, g := range games {
		eg.Go(func() error {
			errs[i] = l.Reload(ctx, g)
			return nil
		})
	}
	_ = eg.Wait()
	return errors.Join(errs...)
}
