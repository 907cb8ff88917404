package resolver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileLog appends unresolved queries to a tab-separated file:
// query, game, guessed key, guessed title, community, score.
type FileLog struct {
	Path string
	mu   sync.Mutex
}

// Record implements UnresolvedQueryLog.
func (l *FileLog) Record(ctx context.Context, q UnresolvedQuery) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	clean := func(s string) string {
		return strings.NewReplacer("\t", " ", "\n", " ", "\r", " ").Replace(s)
	}
	line := fmt.Sprintf("%s\t%s\t%s\t%s\t%s\t%.4f\n",
		clean(q.Query), q.Game.DisplayName(), clean(q.GuessKey), clean(q.GuessTitle), q.CommunityID, q.Score)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(l.Path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(l.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
