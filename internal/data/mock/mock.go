package mock

import (
	"context"

	"github.com/lomotos10/GCM-bot/internal/data"
	"github.com/lomotos10/GCM-bot/internal/game"
)

// Catalog is a mock that returns configurable results (for bot and server tests without a real DB).
type Catalog struct {
	TitlesFunc        func(ctx context.Context, g game.Game) ([]string, error)
	ChartFunc         func(ctx context.Context, g game.Game, title string) (*data.Chart, error)
	ReplaceChartsFunc func(ctx context.Context, g game.Game, charts []data.Chart) (int, error)
	CloseFunc         func() error
}

// Titles calls TitlesFunc if set, else returns nil.
func (m *Catalog) Titles(ctx context.Context, g game.Game) ([]string, error) {
	if m.TitlesFunc != nil {
		return m.TitlesFunc(ctx, g)
	}
	return nil, nil
}

// Chart calls ChartFunc if set, else returns nil.
func (m *Catalog) Chart(ctx context.Context, g game.Game, title string) (*data.Chart, error) {
	if m.ChartFunc != nil {
		return m.ChartFunc(ctx, g, title)
	}
	return nil, nil
}

// ReplaceCharts calls ReplaceChartsFunc if set, else reports every chart written.
func (m *Catalog) ReplaceCharts(ctx context.Context, g game.Game, charts []data.Chart) (int, error) {
	if m.ReplaceChartsFunc != nil {
		return m.ReplaceChartsFunc(ctx, g, charts)
	}
	return len(charts), nil
}

// Close calls CloseFunc if set, else returns nil.
func (m *Catalog) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// FromCharts returns a Catalog serving charts, keeping their order.
func FromCharts(charts ...data.Chart) *Catalog {
	return &Catalog{
		TitlesFunc: func(_ context.Context, g game.Game) ([]string, error) {
			var out []string
			for _, c := range charts {
				if c.Game == g {
					out = append(out, c.Title)
				}
			}
			return out, nil
		},
		ChartFunc: func(_ context.Context, g game.Game, title string) (*data.Chart, error) {
			for i := range charts {
				if charts[i].Game == g && charts[i].Title == title {
					c := charts[i]
					return &c, nil
				}
			}
			return nil, nil
		},
	}
}
