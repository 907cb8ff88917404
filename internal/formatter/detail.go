package formatter

import (
	"fmt"
	"strings"

	"github.com/lomotos10/GCM-bot/internal/data"
	"github.com/lomotos10/GCM-bot/internal/game"
)

const detailLegend = "Chart info legend:\n**Total notes** / Tap / Hold / Slide / Touch / Break"

var difficultySquares = map[string]string{
	"BAS": "green",
	"ADV": "yellow",
	"EXP": "red",
	"MAS": "purple",
	"REM": "white_large",
}

// Detailed builds the per-sheet embed of a maimai chart: level, designer and note counts
// of every difficulty, DX charts first.
func Detailed(c *data.Chart) Embed {
	return Embed{
		Title:        escape(game.DisplayTitle(c.Game, c.Title)),
		Description:  DescribeSheets(c),
		Color:        c.Game.Color(),
		ThumbnailURL: c.JacketURL,
	}
}

// DescribeSheets renders the body of the detailed embed. Japanese levels are preferred;
// a variant only released abroad uses the international row.
func DescribeSheets(c *data.Chart) string {
	var b strings.Builder
	b.WriteString(detailLegend)
	for _, variant := range []string{"DX", "ST"} {
		ls := c.LevelSet(data.RegionJP, variant)
		if ls == nil {
			ls = c.LevelSet(data.RegionIntl, variant)
		}
		if ls == nil || len(ls.Levels) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n\n**%s Chart Info:**", variant)
		for _, lv := range ls.Levels {
			square, ok := difficultySquares[lv.Difficulty]
			if !ok {
				square = "black_large"
			}
			designer := lv.Designer
			if designer == "" {
				designer = "-"
			}
			fmt.Fprintf(&b, "\n:%s_square: Lv.%s%s  Designer: %s",
				square, game.FormatLevel(c.Game, lv.Value), game.FormatConstant(lv.Constant), escape(designer))
			if n := lv.Notes; n != nil {
				fmt.Fprintf(&b, "\n**%d** / %d / %d / %d / %d / %d", n.Total(), n.Tap, n.Hold, n.Slide, n.Touch, n.Break)
			}
		}
	}
	return b.String()
}
