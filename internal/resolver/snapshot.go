package resolver

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/lomotos10/GCM-bot/internal/alias"
	"github.com/lomotos10/GCM-bot/internal/game"
)

// ErrNotReady is returned when a game has no snapshot yet.
var ErrNotReady = errors.New("resolver: no index loaded")

// Snapshot is the immutable set of indexes of one game. Readers keep using the snapshot
// they loaded even after a newer one is swapped in.
type Snapshot struct {
	Game        game.Game
	Global      *alias.Index
	Communities map[string]*alias.Index
	BuiltAt     time.Time
}

// Community returns the manual index of id, or nil.
func (s *Snapshot) Community(id string) *alias.Index {
	if s == nil || id == "" {
		return nil
	}
	return s.Communities[id]
}

// Resolve implements TitleResolver.
func (s *Snapshot) Resolve(query, communityID string) (Resolution, bool) {
	return Resolve(s.Global, s.Community(communityID), query)
}

// Suggest implements TitleResolver.
func (s *Snapshot) Suggest(query, communityID string) (Suggestion, bool) {
	return Suggest(s.Global, s.Community(communityID), query)
}

// Registry holds the current snapshot of every game and swaps them atomically.
type Registry struct {
	snaps map[game.Game]*atomic.Pointer[Snapshot]
}

// NewRegistry returns a registry for games, or for every game when none are given.
func NewRegistry(games ...game.Game) *Registry {
	if len(games) == 0 {
		games = game.All()
	}
	r := &Registry{snaps: make(map[game.Game]*atomic.Pointer[Snapshot], len(games))}
	for _, g := range games {
		r.snaps[g] = &atomic.Pointer[Snapshot]{}
	}
	return r
}

// Swap publishes s for new lookups and returns the previous snapshot.
func (r *Registry) Swap(s *Snapshot) (*Snapshot, error) {
	if s == nil || s.Global == nil {
		return nil, fmt.Errorf("resolver: refusing to publish an empty snapshot")
	}
	p, ok := r.snaps[s.Game]
	if !ok {
		return nil, fmt.Errorf("resolver: game %q not registered", s.Game)
	}
	return p.Swap(s), nil
}

// Snapshot returns the current snapshot of g.
func (r *Registry) Snapshot(g game.Game) (*Snapshot, error) {
	p, ok := r.snaps[g]
	if !ok {
		return nil, fmt.Errorf("resolver: game %q not registered", g)
	}
	s := p.Load()
	if s == nil {
		return nil, fmt.Errorf("%s: %w", g, ErrNotReady)
	}
	return s, nil
}

// Games lists the registered games in fixed order.
func (r *Registry) Games() []game.Game {
	var out []game.Game
	for _, g := range game.All() {
		if _, ok := r.snaps[g]; ok {
			out = append(out, g)
		}
	}
	return out
}

// Ready reports whether every registered game has a snapshot.
func (r *Registry) Ready() bool {
	for _, p := range r.snaps {
		if p.Load() == nil {
			return false
		}
	}
	return true
}
