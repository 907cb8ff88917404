package alias

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// ManualDir is the subdirectory of the alias directory holding community submissions.
const ManualDir = "manual"

// RowError describes an alias row that did not have the expected shape.
type RowError struct {
	File   string
	Line   int
	Fields int
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s:%d: %s (%d fields)", e.File, e.Line, e.Reason, e.Fields)
}

// NicknameSource yields the static nickname rows of one game.
type NicknameSource interface {
	Nicknames(ctx context.Context, game string) ([]Nickname, []*RowError, error)
}

// ManualSource yields the community-submitted rows of one game.
type ManualSource interface {
	ManualAliases(ctx context.Context, game string) ([]ManualAlias, []*RowError, error)
}

// FileSource reads every "<game>.tsv" below Dir except those in the manual subdirectory.
// Each line is a title followed by tab-separated nicknames.
type FileSource struct {
	Dir    string
	Logger zerolog.Logger
}

// Nicknames walks Dir in lexical order and returns rows in file order.
func (s *FileSource) Nicknames(ctx context.Context, game string) ([]Nickname, []*RowError, error) {
	var out []Nickname
	var bad []*RowError
	name := game + ".tsv"
	err := filepath.WalkDir(s.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ManualDir && path != s.Dir {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() != name {
			return nil
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		rows, rowErrs, err := ReadNicknames(f, path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		out = append(out, rows...)
		bad = append(bad, rowErrs...)
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		s.Logger.Warn().Str("dir", s.Dir).Msg("alias directory missing; no nicknames loaded")
		return nil, nil, nil
	}
	logRowErrors(s.Logger, bad)
	return out, bad, err
}

// ReadNicknames parses nickname rows. file is only used in row errors.
func ReadNicknames(r io.Reader, file string) ([]Nickname, []*RowError, error) {
	var out []Nickname
	var bad []*RowError
	err := scanLines(r, func(n int, line string) {
		fields := strings.Split(line, "\t")
		if strings.TrimSpace(fields[0]) == "" {
			bad = append(bad, &RowError{File: file, Line: n, Fields: len(fields), Reason: "empty title"})
			return
		}
		for _, nick := range fields[1:] {
			if nick == "" {
				continue
			}
			out = append(out, Nickname{Title: fields[0], Nickname: nick})
		}
	})
	return out, bad, err
}

// ManualFileSource reads Dir/manual/<game>.tsv. A missing file means no submissions.
type ManualFileSource struct {
	Dir    string
	Logger zerolog.Logger
}

// ManualAliases returns the submissions in file order.
func (s *ManualFileSource) ManualAliases(ctx context.Context, game string) ([]ManualAlias, []*RowError, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	path := ManualPath(s.Dir, game)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	rows, bad, err := ReadManualAliases(f, path)
	logRowErrors(s.Logger, bad)
	return rows, bad, err
}

// ManualPath is the submission file of game below dir.
func ManualPath(dir, game string) string {
	return filepath.Join(dir, ManualDir, game+".tsv")
}

// ReadManualAliases parses rows of title, nickname, submitter id, discriminator and
// community id. Single-field rows are ignored; any other shape is a row error.
func ReadManualAliases(r io.Reader, file string) ([]ManualAlias, []*RowError, error) {
	var out []ManualAlias
	var bad []*RowError
	err := scanLines(r, func(n int, line string) {
		fields := strings.Split(line, "\t")
		switch len(fields) {
		case 1:
			return
		case 5:
		default:
			bad = append(bad, &RowError{File: file, Line: n, Fields: len(fields), Reason: "expected 5 fields"})
			return
		}
		if fields[0] == "" || fields[1] == "" || fields[4] == "" {
			bad = append(bad, &RowError{File: file, Line: n, Fields: len(fields), Reason: "empty title, alias or community"})
			return
		}
		out = append(out, ManualAlias{
			Title:                  fields[0],
			Nickname:               fields[1],
			SubmitterID:            fields[2],
			SubmitterDiscriminator: fields[3],
			CommunityID:            fields[4],
		})
	})
	return out, bad, err
}

func scanLines(r io.Reader, fn func(n int, line string)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimRight(sc.Text(), "\r")
		if n == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		fn(n, line)
	}
	return sc.Err()
}

func logRowErrors(l zerolog.Logger, bad []*RowError) {
	for _, e := range bad {
		l.Warn().Str("file", e.File).Int("line", e.Line).Int("fields", e.Fields).Msg("malformed alias row skipped: " + e.Reason)
	}
}

// ManualWriter appends community submissions to the manual alias files.
type ManualWriter struct {
	Dir string
	mu  sync.Mutex
}

// Append writes one row to the game's manual file, creating it if needed.
func (w *ManualWriter) Append(ctx context.Context, game string, a ManualAlias) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, f := range []string{a.Title, a.Nickname, a.SubmitterID, a.SubmitterDiscriminator, a.CommunityID} {
		if strings.ContainsAny(f, "\t\n\r") {
			return fmt.Errorf("alias field %q contains a tab or newline", f)
		}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	path := ManualPath(w.Dir, game)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	line := strings.Join([]string{a.Title, a.Nickname, a.SubmitterID, a.SubmitterDiscriminator, a.CommunityID}, "\t") + "\n"
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
