package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lomotos10/GCM-bot/internal/alias"
	"github.com/lomotos10/GCM-bot/internal/data/sqlite"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the chart database and the alias directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := sqlite.Init(a.cfg.DB.Path); err != nil {
				return fmt.Errorf("init %s: %w", a.cfg.DB.Path, err)
			}
			if err := os.MkdirAll(filepath.Join(a.cfg.Alias.Dir, alias.ManualDir), 0o755); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Database created: %s\nAlias directory: %s\n", a.cfg.DB.Path, a.cfg.Alias.Dir)
			return nil
		},
	}
}
