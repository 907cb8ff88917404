// Package game holds the fixed set of supported rhythm games and their display rules.
package game

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Game identifies one supported rhythm game.
type Game string

const (
	Maimai   Game = "maimai"
	Chunithm Game = "chunithm"
	Ongeki   Game = "ongeki"
)

// All returns every supported game in fixed order.
func All() []Game {
	return []Game{Maimai, Chunithm, Ongeki}
}

// Parse maps user input ("mai", "chuni", "geki", ...) to a Game.
func Parse(s string) (Game, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mai", "maimai":
		return Maimai, nil
	case "chuni", "chunithm":
		return Chunithm, nil
	case "ongeki", "geki", "o.n.g.e.k.i.":
		return Ongeki, nil
	}
	return "", fmt.Errorf("unknown game %q", s)
}

// DisplayName is the game's name as printed in replies.
func (g Game) DisplayName() string {
	switch g {
	case Maimai:
		return "maimai"
	case Chunithm:
		return "CHUNITHM"
	case Ongeki:
		return "O.N.G.E.K.I."
	}
	return string(g)
}

// CommandPrefix is the short form used in command names, e.g. "mai" in "mai-info".
func (g Game) CommandPrefix() string {
	switch g {
	case Maimai:
		return "mai"
	case Chunithm:
		return "chuni"
	}
	return string(g)
}

// Color is the embed accent color as 0xRRGGBB.
func (g Game) Color() int {
	switch g {
	case Maimai:
		return 0x00FFFF
	case Chunithm:
		return 0xFFFF00
	case Ongeki:
		return 0xFF7FFF
	}
	return 0
}

// Difficulties lists the chart difficulty labels, the last one being the optional extra chart.
func (g Game) Difficulties() []string {
	switch g {
	case Maimai:
		return []string{"BAS", "ADV", "EXP", "MAS", "REM"}
	case Chunithm:
		return []string{"BAS", "ADV", "EXP", "MAS", "ULT"}
	case Ongeki:
		return []string{"BAS", "ADV", "EXP", "MAS", "LUN"}
	}
	return nil
}

// SearchName is the keyword prepended to video search links.
func (g Game) SearchName() string {
	switch g {
	case Maimai:
		return "maimai"
	case Chunithm:
		return "CHUNITHM"
	case Ongeki:
		return "オンゲキ"
	}
	return string(g)
}

// plusBorder is the decimal part from which a level is shown with a "+".
func (g Game) plusBorder() float64 {
	switch g {
	case Maimai:
		return 0.6
	case Chunithm:
		return 0.5
	}
	return 0.7
}

// FormatLevel turns a numeric level such as "12.7" into its display form ("12+").
// Non-numeric input is returned unchanged.
func FormatLevel(g Game, level string) string {
	f, err := strconv.ParseFloat(strings.TrimSpace(level), 64)
	if err != nil {
		return level
	}
	f = math.Abs(f)
	whole := math.Floor(f)
	base := strconv.Itoa(int(whole))
	if g == Maimai && whole <= 6 {
		return base
	}
	if f-whole < g.plusBorder()-0.05 {
		return base
	}
	return base + "+"
}

// FormatConstant renders an optional chart constant as " (12.7)".
func FormatConstant(c *float64) string {
	if c == nil {
		return ""
	}
	return fmt.Sprintf(" (%.1f)", *c)
}

// ParseConstant reads a chart constant; negative or unparsable values mean "unknown".
func ParseConstant(s string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 {
		return nil
	}
	return &f
}

// DisplayTitle strips the disambiguation suffix that the catalog adds to duplicated titles.
func DisplayTitle(g Game, title string) string {
	switch g {
	case Maimai:
		if title == "Link (maimai)" {
			return "Link"
		}
	case Ongeki:
		switch title {
		case "Singularity (Arcaea)", "Singularity (MJ)":
			return "Singularity"
		case "Hand in Hand (deleted)":
			return "Hand in Hand"
		case "Perfect Shining!! (Location test)":
			return "Perfect Shining!!"
		}
	}
	return title
}

// OngekiVersion maps a release date (yyyymmdd) to the O.N.G.E.K.I. version it shipped in.
func OngekiVersion(date int) string {
	switch {
	case date >= 20220303:
		return "bright MEMORY"
	case date >= 20211021:
		return "bright"
	case date >= 20210331:
		return "R.E.D. PLUS"
	case date >= 20200930:
		return "R.E.D."
	case date >= 20200220:
		return "SUMMER PLUS"
	case date >= 20190822:
		return "SUMMER"
	case date >= 20190207:
		return "PLUS"
	case date >= 20180726:
		return "オンゲキ"
	}
	return ""
}

// DefaultJacketHost is the URL prefix jacket image names are resolved against.
func (g Game) DefaultJacketHost() string {
	switch g {
	case Maimai:
		return "https://maimaidx.jp/maimai-mobile/img/Music/"
	case Chunithm:
		return "https://new.chunithm-net.com/chuni-mobile/html/mobile/img/"
	case Ongeki:
		return "https://ongeki-net.com/ongeki-mobile/img/music/"
	}
	return ""
}

// JacketURL joins host and an image name. Absolute URLs and empty names pass through.
func JacketURL(host, image string) string {
	if image == "" || strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") {
		return image
	}
	return host + image
}
