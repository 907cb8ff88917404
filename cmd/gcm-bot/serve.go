package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lomotos10/GCM-bot/internal/alias"
	"github.com/lomotos10/GCM-bot/internal/bot"
	"github.com/lomotos10/GCM-bot/internal/config"
	"github.com/lomotos10/GCM-bot/internal/cooldown"
	"github.com/lomotos10/GCM-bot/internal/data/sqlite"
	"github.com/lomotos10/GCM-bot/internal/discord"
	"github.com/lomotos10/GCM-bot/internal/game"
	"github.com/lomotos10/GCM-bot/internal/metrics"
	"github.com/lomotos10/GCM-bot/internal/resolver"
	"github.com/lomotos10/GCM-bot/internal/server"
	"github.com/lomotos10/GCM-bot/internal/watch"
)

func newServeCmd(a *app) *cobra.Command {
	var fetchFirst bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Discord bot, the HTTP API and the alias watcher",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			db, err := sqlite.Open(a.cfg.DB.Path)
			if err != nil {
				return err
			}
			defer db.Close()
			m := metrics.New()

			if fetchFirst {
				if err := a.fetch(ctx, db, game.All(), m, cmd.ErrOrStderr()); err != nil {
					return err
				}
			}

			reg := resolver.NewRegistry()
			var hub *server.Hub
			loader := a.loader(db, reg)
			loader.OnSwap = func(s *resolver.Snapshot) {
				m.Snapshot(s)
				if hub != nil {
					hub.Snapshot(s)
				}
			}
			loader.OnFailure = func(g game.Game, _ error) { m.ReloadFailed(g) }
			// every game must have charts before the bot answers anything
			if err := loader.ReloadAll(ctx); err != nil {
				return fmt.Errorf("build alias indexes: %w", err)
			}

			flowOpts := []resolver.FlowOption{
				resolver.WithObserver(m),
				resolver.WithTimeout(a.cfg.Confirm.Timeout),
				resolver.WithFlowLogger(a.component("resolver")),
			}
			switch a.cfg.Alias.UnresolvedLog {
			case config.UnresolvedSQLite:
				flowOpts = append(flowOpts, resolver.WithUnresolvedLog(db))
			case config.UnresolvedFile:
				flowOpts = append(flowOpts, resolver.WithUnresolvedLog(&resolver.FileLog{Path: a.cfg.Alias.UnresolvedLogPath}))
			}
			flow := resolver.NewFlow(reg, flowOpts...)

			d := bot.New(flow, reg, db,
				bot.WithManualWriter(&alias.ManualWriter{Dir: a.cfg.Alias.Dir}),
				bot.WithCooldown(cooldown.New(a.cfg.Cooldown)),
				bot.WithRecorder(m),
				bot.NotifyOnTimeout(a.cfg.Confirm.NotifyOnTimeout),
				bot.WithPrefix(a.cfg.Discord.Prefix),
				bot.WithLogger(a.component("bot")),
			)
			hub = server.NewHub(d, a.cfg.Discord.Prefix, a.component("console"))
			srv := server.New(reg, db,
				server.WithReloader(loader),
				server.WithGatherer(m.Registry),
				server.WithConsole(hub),
				server.WithLogger(a.component("http")),
			)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return srv.Run(gctx, a.cfg.HTTP.Addr) })
			if a.cfg.Alias.Watch {
				w := &watch.Watcher{
					Dir:    a.cfg.Alias.Dir,
					Games:  reg.Games(),
					Reload: loader.Reload,
					Logger: a.component("watch"),
				}
				g.Go(func() error { return w.Run(gctx) })
			}
			if a.cfg.Discord.Token != "" {
				g.Go(func() error {
					return discord.Serve(gctx, a.cfg.Discord, d,
						discord.WithLogger(a.component("discord")))
				})
			} else {
				a.logger.Warn().Msg("discord.token is empty; running without the Discord transport")
			}

			err = g.Wait()
			a.logger.Info().Msg("stopped")
			return err
		},
	}
	cmd.Flags().BoolVar(&fetchFirst, "fetch", false, "fetch chart data before building the indexes")
	return cmd
}
