package formatter

import (
	"encoding/json"

	"github.com/lomotos10/GCM-bot/internal/data"
	"github.com/lomotos10/GCM-bot/internal/game"
)

type chartJSON struct {
	Game      string         `json:"game"`
	Title     string         `json:"title"`
	Display   string         `json:"display_title"`
	Artist    string         `json:"artist,omitempty"`
	Category  string         `json:"category,omitempty"`
	Version   string         `json:"version,omitempty"`
	BPM       string         `json:"bpm,omitempty"`
	JacketURL string         `json:"jacket_url,omitempty"`
	Character string         `json:"character,omitempty"`
	Deleted   bool           `json:"deleted,omitempty"`
	Levels    []levelSetJSON `json:"levels"`
}

type levelSetJSON struct {
	Region  string      `json:"region"`
	Variant string      `json:"variant,omitempty"`
	Levels  []levelJSON `json:"levels"`
}

type levelJSON struct {
	Difficulty string     `json:"difficulty"`
	Level      string     `json:"level"`
	Constant   *float64   `json:"constant,omitempty"`
	Designer   string     `json:"designer,omitempty"`
	Notes      *notesJSON `json:"notes,omitempty"`
}

type notesJSON struct {
	Total int `json:"total"`
	Tap   int `json:"tap"`
	Hold  int `json:"hold"`
	Slide int `json:"slide"`
	Touch int `json:"touch"`
	Break int `json:"break"`
}

// ChartJSON converts c into its JSON view.
func ChartJSON(c *data.Chart) any {
	out := chartJSON{
		Game:      string(c.Game),
		Title:     c.Title,
		Display:   game.DisplayTitle(c.Game, c.Title),
		Artist:    c.Artist,
		Category:  c.Category,
		Version:   c.Version,
		BPM:       c.BPM,
		JacketURL: c.JacketURL,
		Character: c.Character,
		Deleted:   c.Deleted,
		Levels:    []levelSetJSON{},
	}
	if c.Game == game.Ongeki && out.Version == "" {
		out.Version = game.OngekiVersion(c.Date)
	}
	for _, ls := range c.Levels {
		set := levelSetJSON{Region: ls.Region, Variant: ls.Variant, Levels: []levelJSON{}}
		for _, lv := range ls.Levels {
			set.Levels = append(set.Levels, levelJSON{
				Difficulty: lv.Difficulty,
				Level:      game.FormatLevel(c.Game, lv.Value),
				Constant:   lv.Constant,
				Designer:   lv.Designer,
				Notes:      toNotesJSON(lv.Notes),
			})
		}
		out.Levels = append(out.Levels, set)
	}
	return out
}

func formatJSON(c *data.Chart) (string, error) {
	b, err := json.MarshalIndent(ChartJSON(c), "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func toNotesJSON(n *data.NoteCounts) *notesJSON {
	if n == nil {
		return nil
	}
	return &notesJSON{Total: n.Total(), Tap: n.Tap, Hold: n.Hold, Slide: n.Slide, Touch: n.Touch, Break: n.Break}
}
