package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lomotos10/GCM-bot/internal/data"
	"github.com/lomotos10/GCM-bot/internal/data/sqlite"
	"github.com/lomotos10/GCM-bot/internal/game"
	"github.com/lomotos10/GCM-bot/internal/ingest"
	"github.com/lomotos10/GCM-bot/internal/metrics"
)

func newFetchCmd(a *app) *cobra.Command {
	var only string
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download chart data from the configured sources into the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			games := game.All()
			if only != "" {
				g, err := game.Parse(only)
				if err != nil {
					return err
				}
				games = []game.Game{g}
			}
			db, err := sqlite.Open(a.cfg.DB.Path)
			if err != nil {
				return err
			}
			defer db.Close()
			return a.fetch(cmd.Context(), db, games, nil, cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVar(&only, "game", "", "fetch a single game (mai, chuni, ongeki)")
	return cmd
}

// fetch ingests every game that has sources configured. m may be nil.
func (a *app) fetch(ctx context.Context, cat data.Catalog, games []game.Game, m *metrics.Metrics, out io.Writer) error {
	logger := a.component("ingest")
	client := ingest.NewClient(a.cfg.Ingest.RequestsPerSecond)
	for _, g := range games {
		specs := a.cfg.Ingest.Sources[string(g)]
		if len(specs) == 0 {
			logger.Info().Str("game", string(g)).Msg("no chart sources configured; skipped")
			continue
		}
		sources, err := ingest.FromConfig(g, specs, client)
		if err != nil {
			return err
		}
		res, err := ingest.Aggregate(ctx, logger, sources...)
		if m != nil {
			for _, name := range res.Failed {
				m.SourceFailed(name)
			}
		}
		if err != nil {
			return fmt.Errorf("%s: %w", g.DisplayName(), err)
		}
		n, err := ingest.Import(ctx, cat, g, res.Charts)
		if err != nil {
			return err
		}
		if m != nil {
			m.Ingested(g, n)
		}
		fmt.Fprintf(out, "%s: %d charts\n", g.DisplayName(), n)
	}
	return nil
}
