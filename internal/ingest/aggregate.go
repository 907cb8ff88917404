package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lomotos10/GCM-bot/internal/data"
	"github.com/lomotos10/GCM-bot/internal/game"
)

// ErrNoCharts is returned when an ingest produced nothing to write.
var ErrNoCharts = errors.New("ingest: no charts")

// Result is the merged output of several sources.
type Result struct {
	Charts []data.Chart
	Failed []string
}

// Aggregate fetches every source concurrently and merges the charts by title in
// first-seen order. A failing source is logged and skipped; all sources failing is an error.
func Aggregate(ctx context.Context, logger zerolog.Logger, sources ...Source) (Result, error) {
	if len(sources) == 0 {
		return Result{}, fmt.Errorf("ingest: no sources")
	}
	fetched := make([][]data.Chart, len(sources))
	errs := make([]error, len(sources))
	var g errgroup.Group
	for i, src := range sources {
		g.Go(func() error {
			fetched[i], errs[i] = src.Fetch(ctx)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	var res Result
	var failures []error
	m := newMerger()
	// supplements run last so every title they enrich is already known
	for _, late := range []bool{false, true} {
		for i, src := range sources {
			if isSupplement(src) != late {
				continue
			}
			if errs[i] != nil {
				logger.Warn().Err(errs[i]).Str("source", src.Name()).Str("game", string(src.Game())).Msg("chart source failed; skipped")
				res.Failed = append(res.Failed, src.Name())
				failures = append(failures, fmt.Errorf("%s: %w", src.Name(), errs[i]))
				continue
			}
			for _, c := range fetched[i] {
				if late {
					m.enrich(c)
				} else {
					m.add(c)
				}
			}
			logger.Debug().Str("source", src.Name()).Int("charts", len(fetched[i])).Msg("chart source fetched")
		}
	}
	if len(failures) == len(sources) {
		return res, fmt.Errorf("ingest: every source failed: %w", errors.Join(failures...))
	}
	res.Charts = m.charts
	return res, nil
}

// supplement is implemented by sources that only add detail to charts listed elsewhere.
type supplement interface {
	Supplements() bool
}

func isSupplement(src Source) bool {
	s, ok := src.(supplement)
	return ok && s.Supplements()
}

type merger struct {
	charts []data.Chart
	pos    map[game.Game]map[string]int
}

func newMerger() *merger {
	return &merger{pos: make(map[game.Game]map[string]int)}
}

func (m *merger) add(c data.Chart) {
	byTitle := m.pos[c.Game]
	if byTitle == nil {
		byTitle = make(map[string]int)
		m.pos[c.Game] = byTitle
	}
	at, ok := byTitle[c.Title]
	if !ok {
		byTitle[c.Title] = len(m.charts)
		m.charts = append(m.charts, c)
		return
	}
	m.merge(&m.charts[at], c)
}

// enrich merges c into a chart that is already known and drops it otherwise.
func (m *merger) enrich(c data.Chart) {
	if at, ok := m.pos[c.Game][c.Title]; ok {
		m.merge(&m.charts[at], c)
	}
}

func (m *merger) merge(dst *data.Chart, c data.Chart) {
	fill(&dst.Artist, c.Artist)
	fill(&dst.Category, c.Category)
	fill(&dst.Version, c.Version)
	fill(&dst.BPM, c.BPM)
	fill(&dst.JacketURL, c.JacketURL)
	fill(&dst.Character, c.Character)
	if dst.Date == 0 {
		dst.Date = c.Date
	}
	dst.Deleted = dst.Deleted || c.Deleted
	for _, ls := range c.Levels {
		mergeLevelSet(dst, ls)
	}
}

func fill(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

// mergeLevelSet appends ls, or completes the existing set of the same region and variant
// with missing difficulties and constants.
func mergeLevelSet(c *data.Chart, ls data.LevelSet) {
	cur := c.LevelSet(ls.Region, ls.Variant)
	if cur == nil {
		c.Levels = append(c.Levels, ls)
		return
	}
	for _, lv := range ls.Levels {
		found := false
		for i := range cur.Levels {
			if cur.Levels[i].Difficulty != lv.Difficulty {
				continue
			}
			found = true
			if cur.Levels[i].Constant == nil {
				cur.Levels[i].Constant = lv.Constant
			}
			if cur.Levels[i].Value == "" {
				cur.Levels[i].Value = lv.Value
			}
			fill(&cur.Levels[i].Designer, lv.Designer)
			if cur.Levels[i].Notes == nil {
				cur.Levels[i].Notes = lv.Notes
			}
		}
		if !found {
			cur.Levels = append(cur.Levels, lv)
		}
	}
}

// Import replaces the catalog of g with the charts of g. An empty chart list is refused
// so a broken feed cannot wipe the catalog.
func Import(ctx context.Context, cat data.Catalog, g game.Game, charts []data.Chart) (int, error) {
	var mine []data.Chart
	for _, c := range charts {
		if c.Game == g {
			mine = append(mine, c)
		}
	}
	if len(mine) == 0 {
		return 0, fmt.Errorf("%w for %s", ErrNoCharts, g.DisplayName())
	}
	return cat.ReplaceCharts(ctx, g, mine)
}
