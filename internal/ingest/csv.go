package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lomotos10/GCM-bot/internal/data"
	"github.com/lomotos10/GCM-bot/internal/game"
)

// CSVSource reads a local level table with the header
// title,region,variant,bas,adv,exp,mas,extra (region and variant optional).
// A cell with a decimal point is a chart constant; its display level is derived from it.
type CSVSource struct {
	SourceName string
	Path       string
	Region     string
	For        game.Game
}

func (s *CSVSource) Name() string    { return s.SourceName }
func (s *CSVSource) Game() game.Game { return s.For }

// Fetch reads the table at Path.
func (s *CSVSource) Fetch(ctx context.Context) ([]data.Chart, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadLevelTable(f, s.For, s.Region)
}

var levelColumns = []string{"bas", "adv", "exp", "mas", "extra"}

// ReadLevelTable parses a CSV level table. Rows without a title are skipped.
func ReadLevelTable(r io.Reader, g game.Game, region string) ([]data.Chart, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	if _, ok := col["title"]; !ok {
		return nil, fmt.Errorf("level table: missing title column")
	}
	cell := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	diffs := g.Difficulties()
	var out []data.Chart
	pos := make(map[string]int)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		title := cell(rec, "title")
		if title == "" {
			continue
		}
		ls := data.LevelSet{Region: region, Variant: strings.ToUpper(cell(rec, "variant"))}
		if r := strings.ToLower(cell(rec, "region")); r != "" {
			ls.Region = r
		}
		for i, name := range levelColumns {
			v := cell(rec, name)
			if v == "" {
				continue
			}
			lv := data.Level{Difficulty: diffs[i], Value: v}
			if strings.Contains(v, ".") {
				lv.Constant = game.ParseConstant(v)
				lv.Value = game.FormatLevel(g, v)
			}
			ls.Levels = append(ls.Levels, lv)
		}
		if at, ok := pos[title]; ok {
			out[at].Levels = append(out[at].Levels, ls)
			continue
		}
		pos[title] = len(out)
		out = append(out, data.Chart{Game: g, Title: title, Levels: []data.LevelSet{ls}})
	}
	return out, nil
}
