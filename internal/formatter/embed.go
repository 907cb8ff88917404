package formatter

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/lomotos10/GCM-bot/internal/data"
	"github.com/lomotos10/GCM-bot/internal/game"
)

// Embed is a transport-neutral rich message.
type Embed struct {
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	Color        int    `json:"color"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	ImageURL     string `json:"image_url,omitempty"`
}

const unreleased = "**Unreleased**"

type difficultyName struct {
	letter string
	search string
}

var difficultyNames = map[string]difficultyName{
	"BAS": {"B", "BASIC"},
	"ADV": {"A", "ADVANCED"},
	"EXP": {"E", "EXPERT"},
	"MAS": {"M", "MASTER"},
	"REM": {"R", "Re:MASTER"},
	"ULT": {"U", "ULTIMA"},
	"LUN": {"L", "LUNATIC"},
}

func nameOf(difficulty string) difficultyName {
	if n, ok := difficultyNames[difficulty]; ok {
		return n
	}
	return difficultyName{difficulty, difficulty}
}

// Info builds the chart info embed: levels per region with video search links.
func Info(c *data.Chart) Embed {
	return Embed{
		Title:        escape(game.DisplayTitle(c.Game, c.Title)),
		Description:  Describe(c, true),
		Color:        c.Game.Color(),
		ThumbnailURL: c.JacketURL,
	}
}

// Jacket builds the embed that shows only the jacket image.
func Jacket(c *data.Chart) Embed {
	return Embed{
		Title:    escape(game.DisplayTitle(c.Game, c.Title)),
		Color:    c.Game.Color(),
		ImageURL: c.JacketURL,
	}
}

// Describe renders the markdown body of the info embed.
func Describe(c *data.Chart, links bool) string {
	var b strings.Builder
	if c.Deleted {
		b.WriteString("**THIS SONG IS DELETED**\n\n")
	}
	fmt.Fprintf(&b, "**Artist:** %s", escape(c.Artist))

	if c.Game == game.Ongeki {
		version := c.Version
		if version == "" {
			version = game.OngekiVersion(c.Date)
		}
		fmt.Fprintf(&b, "\n**Version**: %s\n**VS**: %s", version, c.Character)
		if ls := c.LevelSet(data.RegionJP, ""); ls != nil {
			fmt.Fprintf(&b, "\n\n**Level:** %s", levelLine(c, ls, links))
		}
		return b.String()
	}

	if c.Version != "" {
		fmt.Fprintf(&b, "\n**Version:** %s", c.Version)
	}
	if c.BPM != "" {
		fmt.Fprintf(&b, "\n**BPM:** %s", c.BPM)
	}
	for _, variant := range c.Variants() {
		heading := "**Level:**"
		if variant != "" {
			heading = "**Level(" + variant + "):**"
		}
		jp := c.LevelSet(data.RegionJP, variant)
		intl := c.LevelSet(data.RegionIntl, variant)
		if c.Deleted {
			if jp != nil {
				fmt.Fprintf(&b, "\n\n%s\n%s", heading, levelLine(c, jp, links))
			}
			continue
		}
		jpText, intlText := unreleased, unreleased
		if jp != nil {
			jpText = levelLine(c, jp, links)
		}
		if intl != nil {
			intlText = levelLine(c, intl, links)
		}
		if jpText == intlText {
			fmt.Fprintf(&b, "\n\n%s\n:flag_jp::globe_with_meridians: %s", heading, jpText)
		} else {
			fmt.Fprintf(&b, "\n\n%s\n:flag_jp: %s\n:globe_with_meridians: %s", heading, jpText, intlText)
		}
	}
	return b.String()
}

func levelLine(c *data.Chart, ls *data.LevelSet, links bool) string {
	query := searchTitle(game.DisplayTitle(c.Game, c.Title))
	parts := make([]string, 0, len(ls.Levels))
	for _, lv := range ls.Levels {
		n := nameOf(lv.Difficulty)
		value := game.FormatLevel(c.Game, lv.Value)
		if links {
			parts = append(parts, fmt.Sprintf("[%s](https://www.youtube.com/results?search_query=%s+%s+%s) **%s**%s",
				n.letter, c.Game.SearchName(), query, n.search, value, game.FormatConstant(lv.Constant)))
		} else {
			parts = append(parts, fmt.Sprintf("%s **%s**%s", n.letter, value, game.FormatConstant(lv.Constant)))
		}
	}
	return strings.Join(parts, " / ")
}

// searchTitle percent-encodes a title for a search query; spaces become %20.
func searchTitle(title string) string {
	title = strings.ReplaceAll(title, " -", " ")
	title = strings.TrimPrefix(title, "-")
	return strings.ReplaceAll(url.QueryEscape(title), "+", "%20")
}

func escape(s string) string {
	return strings.ReplaceAll(s, "*", "\\*")
}
