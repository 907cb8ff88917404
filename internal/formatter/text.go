package formatter

import (
	"fmt"
	"strings"

	"github.com/lomotos10/GCM-bot/internal/data"
	"github.com/lomotos10/GCM-bot/internal/game"
)

func formatText(c *data.Chart) string {
	var b strings.Builder
	b.WriteString(game.DisplayTitle(c.Game, c.Title))
	if c.Deleted {
		b.WriteString(" (deleted)")
	}
	b.WriteString("\n")
	row := func(k, v string) {
		if v != "" {
			fmt.Fprintf(&b, "%-9s %s\n", k+":", v)
		}
	}
	row("Artist", c.Artist)
	version := c.Version
	if c.Game == game.Ongeki && version == "" {
		version = game.OngekiVersion(c.Date)
	}
	row("Version", version)
	row("BPM", c.BPM)
	row("VS", c.Character)
	for _, ls := range c.Levels {
		label := strings.ToUpper(ls.Region)
		if ls.Variant != "" {
			label += " " + ls.Variant
		}
		parts := make([]string, 0, len(ls.Levels))
		for _, lv := range ls.Levels {
			parts = append(parts, fmt.Sprintf("%s %s%s", lv.Difficulty, game.FormatLevel(c.Game, lv.Value), game.FormatConstant(lv.Constant)))
		}
		fmt.Fprintf(&b, "%-9s %s\n", label+":", strings.Join(parts, " / "))
	}
	return b.String()
}
