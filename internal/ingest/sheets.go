package ingest

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/lomotos10/GCM-bot/internal/data"
	"github.com/lomotos10/GCM-bot/internal/game"
)

// SheetsSource reads a maimai sheet database ({"songs": [...]} with per-sheet note
// counts and designers). It only enriches charts that another source already listed.
type SheetsSource struct {
	SourceName string
	URL        string
	Region     string
	Client     *Client
}

func (s *SheetsSource) Name() string    { return s.SourceName }
func (s *SheetsSource) Game() game.Game { return game.Maimai }

// Supplements reports that the source never adds titles of its own.
func (s *SheetsSource) Supplements() bool { return true }

// Fetch downloads and decodes the sheet database.
func (s *SheetsSource) Fetch(ctx context.Context) ([]data.Chart, error) {
	client := s.Client
	if client == nil {
		client = NewClient(0)
	}
	var doc SheetsDocument
	if err := client.GetJSON(ctx, s.URL, &doc); err != nil {
		return nil, err
	}
	return ParseSheets(s.Region, doc)
}

// SheetsDocument is the top level of the sheet database.
type SheetsDocument struct {
	Songs []SheetsSong `json:"songs"`
}

// SheetsSong is one song with all of its sheets.
type SheetsSong struct {
	SongID   string  `json:"songId"`
	Category string  `json:"category"`
	Sheets   []Sheet `json:"sheets"`
}

// Sheet is one difficulty of one chart type.
type Sheet struct {
	Type          string          `json:"type"` // std, dx or utage
	Difficulty    string          `json:"difficulty"`
	Level         any             `json:"level"`
	InternalLevel any             `json:"internalLevel"`
	NoteDesigner  *string         `json:"noteDesigner"`
	NoteCounts    sheetNoteCounts `json:"noteCounts"`
	Regions       map[string]bool `json:"regions"`
}

type sheetNoteCounts struct {
	Tap   *int `json:"tap"`
	Hold  *int `json:"hold"`
	Slide *int `json:"slide"`
	Touch *int `json:"touch"`
	Break *int `json:"break"`
}

var sheetDifficulty = map[string]string{
	"basic":    "BAS",
	"advanced": "ADV",
	"expert":   "EXP",
	"master":   "MAS",
	"remaster": "REM",
}

var sheetVariant = map[string]string{
	"std": "ST",
	"dx":  "DX",
}

// ParseSheets converts the sheet database into maimai charts holding one level set per
// chart type. Sheets not available in region are left out.
func ParseSheets(region string, doc SheetsDocument) ([]data.Chart, error) {
	out := make([]data.Chart, 0, len(doc.Songs))
	for i, song := range doc.Songs {
		if song.SongID == "" {
			return nil, fmt.Errorf("sheet song %d: missing songId", i)
		}
		if song.Category == utageCategory {
			continue
		}
		c := data.Chart{Game: game.Maimai, Title: sheetsTitle(song.SongID)}
		for _, sh := range song.Sheets {
			variant, ok := sheetVariant[sh.Type]
			if !ok {
				continue
			}
			diff, ok := sheetDifficulty[strings.ToLower(sh.Difficulty)]
			if !ok {
				continue
			}
			if avail, listed := sh.Regions[region]; listed && !avail {
				continue
			}
			lv := data.Level{
				Difficulty: diff,
				Value:      anyString(sh.Level),
				Constant:   game.ParseConstant(anyString(sh.InternalLevel)),
				Notes:      sh.NoteCounts.counts(),
			}
			if sh.NoteDesigner != nil {
				lv.Designer = strings.TrimSpace(*sh.NoteDesigner)
			}
			ls := c.LevelSet(region, variant)
			if ls == nil {
				c.Levels = append(c.Levels, data.LevelSet{Region: region, Variant: variant})
				ls = &c.Levels[len(c.Levels)-1]
			}
			ls.Levels = append(ls.Levels, lv)
		}
		if len(c.Levels) > 0 {
			out = append(out, c)
		}
	}
	return out, nil
}

// counts is nil when the sheet has no tap count; a missing touch count is zero.
func (n sheetNoteCounts) counts() *data.NoteCounts {
	if n.Tap == nil {
		return nil
	}
	v := func(p *int) int {
		if p == nil {
			return 0
		}
		return *p
	}
	return &data.NoteCounts{Tap: *n.Tap, Hold: v(n.Hold), Slide: v(n.Slide), Touch: v(n.Touch), Break: v(n.Break)}
}

// sheetsTitle maps sheet database ids onto catalog titles.
func sheetsTitle(id string) string {
	switch id {
	case "Link":
		return "Link (maimai)"
	case "Link (2)":
		return "Link"
	}
	return id
}

func anyString(v any) string {
	switch v := v.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}
