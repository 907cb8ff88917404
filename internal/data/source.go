package data

import (
	"context"

	"github.com/lomotos10/GCM-bot/internal/game"
)

// Catalog stores the chart records of every game.
type Catalog interface {
	// Titles returns the canonical titles of g in ingest order.
	Titles(ctx context.Context, g game.Game) ([]string, error)
	// Chart returns the chart with the exact title, or nil when there is none.
	Chart(ctx context.Context, g game.Game, title string) (*Chart, error)
	// ReplaceCharts swaps the whole catalog of g for charts.
	ReplaceCharts(ctx context.Context, g game.Game, charts []Chart) (int, error)
	Close() error
}

// Region codes used in LevelSet.Region.
const (
	RegionJP   = "jp"
	RegionIntl = "intl"
)

// Chart is one song of one game with its difficulty levels.
type Chart struct {
	Game      game.Game
	Title     string
	Artist    string
	Category  string
	Version   string
	BPM       string
	JacketURL string
	Date      int // yyyymmdd, 0 when unknown
	Character string
	Deleted   bool
	Levels    []LevelSet
}

// LevelSet is the difficulty row of one region and chart variant (e.g. maimai ST or DX).
type LevelSet struct {
	Region  string
	Variant string
	Levels  []Level
}

// Level is one difficulty of a LevelSet.
type Level struct {
	Difficulty string
	Value      string
	Constant   *float64
	// Designer and Notes are only known for maimai sheets.
	Designer string
	Notes    *NoteCounts
}

// NoteCounts is the note breakdown of one maimai sheet.
type NoteCounts struct {
	Tap   int
	Hold  int
	Slide int
	Touch int
	Break int
}

// Total is the sum of every note type.
func (n NoteCounts) Total() int {
	return n.Tap + n.Hold + n.Slide + n.Touch + n.Break
}

// LevelSet returns the set for region and variant, or nil.
func (c *Chart) LevelSet(region, variant string) *LevelSet {
	for i := range c.Levels {
		if c.Levels[i].Region == region && c.Levels[i].Variant == variant {
			return &c.Levels[i]
		}
	}
	return nil
}

// Variants lists the distinct variants in first-seen order.
func (c *Chart) Variants() []string {
	var out []string
	seen := make(map[string]bool)
	for _, ls := range c.Levels {
		if !seen[ls.Variant] {
			seen[ls.Variant] = true
			out = append(out, ls.Variant)
		}
	}
	return out
}
