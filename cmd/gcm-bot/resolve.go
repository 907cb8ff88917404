package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lomotos10/GCM-bot/internal/data/sqlite"
	"github.com/lomotos10/GCM-bot/internal/formatter"
	"github.com/lomotos10/GCM-bot/internal/game"
	"github.com/lomotos10/GCM-bot/internal/resolver"
)

func newResolveCmd(a *app) *cobra.Command {
	var (
		community string
		show      bool
		format    string
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "resolve <game> <query...>",
		Short: "Resolve a title query the way the bot would",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := game.Parse(args[0])
			if err != nil {
				return err
			}
			query := strings.Join(args[1:], " ")
			outFormat, err := formatter.ParseFormat(format)
			if err != nil {
				return err
			}

			db, err := sqlite.Open(a.cfg.DB.Path)
			if err != nil {
				return err
			}
			defer db.Close()
			ctx := cmd.Context()
			snap, err := a.loader(db, resolver.NewRegistry(g)).Build(ctx, g)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			res, ok := snap.Resolve(query, community)
			if !ok {
				sug, found := snap.Suggest(query, community)
				if asJSON {
					body := map[string]any{"query": query, "resolved": false}
					if found {
						body["suggestion"] = map[string]any{"title": sug.Title, "key": sug.Key, "tier": sug.Tier.String(), "score": sug.Score}
					}
					return json.NewEncoder(out).Encode(body)
				}
				if !found {
					fmt.Fprintf(out, "no match for %q\n", query)
					return nil
				}
				fmt.Fprintf(out, "no match for %q; did you mean %q (for %s, score %.3f)?\n", query, sug.Key, sug.Title, sug.Score)
				return nil
			}

			if asJSON {
				return json.NewEncoder(out).Encode(map[string]any{
					"query":     query,
					"resolved":  true,
					"title":     res.Title,
					"tier":      res.Tier.String(),
					"community": res.Community,
				})
			}
			scope := "global"
			if res.Community {
				scope = "community " + community + ", submitted by " + res.Submitter
			}
			fmt.Fprintf(out, "%s\t[%s, %s]\n", res.Title, res.Tier, scope)
			if !show {
				return nil
			}
			c, err := db.Chart(ctx, g, res.Title)
			if err != nil {
				return err
			}
			s, err := formatter.New().Format(c, outFormat)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, s)
			return nil
		},
	}
	cmd.Flags().StringVar(&community, "community", "", "community (guild) id for manual aliases")
	cmd.Flags().BoolVar(&show, "show", false, "print the chart after resolving")
	cmd.Flags().StringVar(&format, "format", "text", "chart format with --show: embed, text or json")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the resolution as JSON")
	return cmd
}
