// Package ingest fetches chart data from remote feeds and local level tables and
// writes the merged result into a data.Catalog.
package ingest

import (
	"context"
	"fmt"

	"github.com/lomotos10/GCM-bot/internal/config"
	"github.com/lomotos10/GCM-bot/internal/data"
	"github.com/lomotos10/GCM-bot/internal/game"
)

// Source produces the charts of one game.
type Source interface {
	Name() string
	Game() game.Game
	Fetch(ctx context.Context) ([]data.Chart, error)
}

// FromConfig builds the sources configured for g.
func FromConfig(g game.Game, specs []config.SourceSpec, client *Client) ([]Source, error) {
	out := make([]Source, 0, len(specs))
	for i, s := range specs {
		region := s.Region
		if region == "" {
			region = data.RegionJP
		}
		switch s.Kind {
		case "json":
			out = append(out, &JSONFeedSource{
				SourceName: fmt.Sprintf("%s-json-%d", g, i),
				URL:        s.URL,
				Region:     region,
				For:        g,
				Client:     client,
			})
		case "csv":
			out = append(out, &CSVSource{
				SourceName: fmt.Sprintf("%s-csv-%d", g, i),
				Path:       s.Path,
				Region:     region,
				For:        g,
			})
		case "sheets":
			if g != game.Maimai {
				return nil, fmt.Errorf("ingest: sheets source is maimai only, not %s", g)
			}
			out = append(out, &SheetsSource{
				SourceName: fmt.Sprintf("%s-sheets-%d", g, i),
				URL:        s.URL,
				Region:     region,
				Client:     client,
			})
		default:
			return nil, fmt.Errorf("ingest: unknown source kind %q", s.Kind)
		}
	}
	return out, nil
}
