package ingest

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/lomotos10/GCM-bot/internal/data"
	"github.com/lomotos10/GCM-bot/internal/game"
)

// JSONFeedSource reads a community JSON feed: an array of song objects with
// string-valued fields such as "title", "artist" and "lev_mas".
type JSONFeedSource struct {
	SourceName string
	URL        string
	Region     string
	For        game.Game
	Client     *Client
	// JacketHost overrides the game's default jacket host.
	JacketHost string
}

func (s *JSONFeedSource) Name() string    { return s.SourceName }
func (s *JSONFeedSource) Game() game.Game { return s.For }

// Fetch downloads and decodes the feed.
func (s *JSONFeedSource) Fetch(ctx context.Context) ([]data.Chart, error) {
	client := s.Client
	if client == nil {
		client = NewClient(0)
	}
	var songs []map[string]any
	if err := client.GetJSON(ctx, s.URL, &songs); err != nil {
		return nil, err
	}
	host := s.JacketHost
	if host == "" {
		host = s.For.DefaultJacketHost()
	}
	return ParseFeed(s.For, s.Region, host, songs)
}

// song is one feed entry. Values are strings in practice; numbers are tolerated.
type song map[string]any

func (s song) str(key string) string {
	switch v := s[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func (s song) has(key string) bool {
	_, ok := s[key]
	return ok
}

// levels reads one difficulty row; keys lists the level fields in difficulty order and an
// empty value for the last (extra) field drops it. Constants come from "<key>_i".
func (s song) levels(g game.Game, keys []string) []data.Level {
	diffs := g.Difficulties()
	out := make([]data.Level, 0, len(keys))
	for i, k := range keys {
		v := s.str(k)
		if v == "" && i == len(keys)-1 {
			continue
		}
		out = append(out, data.Level{
			Difficulty: diffs[i],
			Value:      v,
			Constant:   game.ParseConstant(s.str(k + "_i")),
		})
	}
	return out
}

var (
	maiST   = []string{"lev_bas", "lev_adv", "lev_exp", "lev_mas", "lev_remas"}
	maiDX   = []string{"dx_lev_bas", "dx_lev_adv", "dx_lev_exp", "dx_lev_mas", "dx_lev_remas"}
	chuni   = []string{"lev_bas", "lev_adv", "lev_exp", "lev_mas", "lev_ult"}
	chuniUL = []string{"lev_bas", "lev_adv", "lev_exp", "lev_mas", "lev_ul"}
	ongeki  = []string{"lev_bas", "lev_adv", "lev_exc", "lev_mas", "lev_lnt"}
)

// utageCategory marks maimai party charts, which are not listed.
const utageCategory = "宴会場"

// ParseFeed converts feed entries into charts in feed order.
func ParseFeed(g game.Game, region, jacketHost string, entries []map[string]any) ([]data.Chart, error) {
	var out []data.Chart
	pos := make(map[string]int)
	for i, e := range entries {
		s := song(e)
		title := s.str("title")
		if title == "" {
			return nil, fmt.Errorf("feed entry %d: missing title", i)
		}
		c := data.Chart{
			Game:      g,
			Title:     title,
			Artist:    s.str("artist"),
			Category:  firstOf(s, "catcode", "category", "catname"),
			Version:   s.str("version"),
			BPM:       s.str("bpm"),
			JacketURL: game.JacketURL(jacketHost, firstOf(s, "image_url", "image")),
			Character: s.str("character"),
		}
		if d, err := strconv.Atoi(s.str("date")); err == nil {
			c.Date = d
		}

		switch g {
		case game.Maimai:
			if c.Category == utageCategory {
				continue
			}
			if title == "Link" && c.Category == "maimai" {
				c.Title = "Link (maimai)"
			}
			if s.has("dx_lev_bas") {
				c.Levels = append(c.Levels, data.LevelSet{Region: region, Variant: "DX", Levels: s.levels(g, maiDX)})
			}
			if s.has("lev_bas") {
				c.Levels = append(c.Levels, data.LevelSet{Region: region, Variant: "ST", Levels: s.levels(g, maiST)})
			}
		case game.Chunithm:
			// WORLD'S END entries carry no regular levels
			if s.str("lev_bas") == "" {
				continue
			}
			keys := chuni
			if !s.has("lev_ult") && s.has("lev_ul") {
				keys = chuniUL
			}
			c.Levels = []data.LevelSet{{Region: region, Levels: s.levels(g, keys)}}
		case game.Ongeki:
			c.Title = ongekiTitle(title, s.str("date"))
			if at, ok := pos[c.Title]; ok && s.str("lev_bas") == "" {
				// a separate entry carries the LUNATIC chart of an existing song
				if lnt := s.str("lev_lnt"); lnt != "" && len(out[at].Levels) > 0 {
					ls := &out[at].Levels[0]
					ls.Levels = append(ls.Levels, data.Level{Difficulty: "LUN", Value: lnt, Constant: game.ParseConstant(s.str("lev_lnt_i"))})
				}
				continue
			}
			if s.str("lev_bas") == "" {
				// LUNATIC-only song
				lv := s.levels(g, ongeki)
				c.Levels = []data.LevelSet{{Region: region, Levels: dropEmpty(lv)}}
			} else {
				c.Levels = []data.LevelSet{{Region: region, Levels: s.levels(g, ongeki)}}
			}
		}

		if _, dup := pos[c.Title]; dup {
			c.Title = fmt.Sprintf("%s (%s)", c.Title, c.Category)
			if _, again := pos[c.Title]; again || c.Category == "" {
				continue
			}
		}
		pos[c.Title] = len(out)
		out = append(out, c)
	}
	return out, nil
}

func dropEmpty(lv []data.Level) []data.Level {
	out := lv[:0]
	for _, l := range lv {
		if l.Value != "" {
			out = append(out, l)
		}
	}
	return out
}

func ongekiTitle(title, date string) string {
	switch {
	case title == "Singularity" && date == "20201217":
		return "Singularity (Arcaea)"
	case title == "Singularity" && date == "20210401":
		return "Singularity (MJ)"
	case title == "Perfect Shining!!" && date == "20220804":
		return "Perfect Shining!! (Location test)"
	}
	return title
}

func firstOf(s song, keys ...string) string {
	for _, k := range keys {
		if v := s.str(k); v != "" {
			return v
		}
	}
	return ""
}
