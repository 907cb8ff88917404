package main

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lomotos10/GCM-bot/internal/alias"
	"github.com/lomotos10/GCM-bot/internal/bot"
	"github.com/lomotos10/GCM-bot/internal/config"
	"github.com/lomotos10/GCM-bot/internal/data"
	"github.com/lomotos10/GCM-bot/internal/resolver"
)

type app struct {
	cfgPath string
	dbPath  string
	cfg     config.Config
	logger  zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "gcm-bot",
		Short:        "GCM-bot: chart info provider for GekiChuMai",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.cfgPath)
			if err != nil {
				return err
			}
			if a.dbPath != "" {
				cfg.DB.Path = a.dbPath
			}
			a.cfg = cfg
			a.logger = newLogger(cfg.Log, cmd.ErrOrStderr())
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "config file (default "+config.DefaultPath+")")
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "chart database path (overrides db.path)")
	root.AddCommand(newServeCmd(a), newFetchCmd(a), newResolveCmd(a), newInitCmd(a))
	return root
}

func newLogger(c config.Log, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(c.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if c.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.DateTime}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func (a *app) component(name string) zerolog.Logger {
	return a.logger.With().Str("component", name).Logger()
}

// loader wires the alias files of the configured directory to reg.
func (a *app) loader(cat data.Catalog, reg *resolver.Registry) *bot.Loader {
	logger := a.component("alias")
	return &bot.Loader{
		Catalog:                   cat,
		Nicknames:                 &alias.FileSource{Dir: a.cfg.Alias.Dir, Logger: logger},
		Manual:                    &alias.ManualFileSource{Dir: a.cfg.Alias.Dir, Logger: logger},
		Registry:                  reg,
		SuppressCollisionWarnings: a.cfg.Alias.SuppressCollisionWarnings,
		Logger:                    logger,
	}
}
