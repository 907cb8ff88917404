// Package watch reloads alias indexes when files in the alias directory change.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/lomotos10/GCM-bot/internal/game"
)

// DefaultDebounce is how long the directory must stay quiet before a reload.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches Dir recursively. A change to any "<game>.tsv" schedules a reload of
// that game once events stop arriving for Debounce.
type Watcher struct {
	Dir      string
	Games    []game.Game
	Debounce time.Duration
	Reload   func(ctx context.Context, g game.Game) error
	Logger   zerolog.Logger
}

// Run blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()
	if err := addTree(fw, w.Dir); err != nil {
		return err
	}

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	games := w.Games
	if len(games) == 0 {
		games = game.All()
	}

	pending := map[game.Game]bool{}
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	w.Logger.Info().Str("dir", w.Dir).Msg("watching alias files")
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					if err := addTree(fw, ev.Name); err != nil {
						w.Logger.Warn().Err(err).Str("dir", ev.Name).Msg("watch new directory")
					}
					// files written before the directory was added
					for _, g := range gamesBelow(ev.Name, games) {
						pending[g] = true
					}
					timer.Reset(debounce)
					continue
				}
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			g, ok := gameOf(ev.Name, games)
			if !ok {
				continue
			}
			pending[g] = true
			timer.Reset(debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.Logger.Warn().Err(err).Msg("alias watcher")

		case <-timer.C:
			for _, g := range games {
				if !pending[g] {
					continue
				}
				delete(pending, g)
				w.Logger.Debug().Str("game", string(g)).Msg("alias files changed")
				// failures are logged by the reloader; the previous index stays live
				_ = w.Reload(ctx, g)
			}
		}
	}
}

func addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
}

func gameOf(path string, games []game.Game) (game.Game, bool) {
	base := filepath.Base(path)
	name, ok := strings.CutSuffix(base, ".tsv")
	if !ok {
		return "", false
	}
	for _, g := range games {
		if string(g) == name {
			return g, true
		}
	}
	return "", false
}

func gamesBelow(dir string, games []game.Game) []game.Game {
	var out []game.Game
	seen := map[game.Game]bool{}
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if g, ok := gameOf(path, games); ok && !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
		return nil
	})
	return out
}
