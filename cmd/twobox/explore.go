package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/twobox/internal/forcing"
	"github.com/san-kum/twobox/internal/viz"
)

func newExploreCmd() *cobra.Command {
	var (
		flags runFlags
		theme string
	)
	cmd := &cobra.Command{
		Use:   "explore",
		Short: "interactive feedback explorer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			table, err := forcing.LoadFile(cfg.Forcing)
			if err != nil {
				return err
			}

			// The explorer owns the terminal, so run logs are discarded.
			m := viz.NewExplorer(cfg, viz.TableRunner(table, nil), loadObservations(cfg)).WithTheme(viz.GetTheme(theme))
			if err := m.Err(); err != nil {
				return err
			}
			return viz.RunExplorer(m)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&theme, "theme", viz.DefaultTheme().Name, "color theme: "+strings.Join(viz.ThemeNames(), ", "))
	return cmd
}
