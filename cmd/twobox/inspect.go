package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/san-kum/twobox/internal/config"
	"github.com/san-kum/twobox/internal/feedback"
	"github.com/san-kum/twobox/internal/forcing"
	"github.com/san-kum/twobox/internal/viz"
)

var heading = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00a8cc"))

func newFeedbackCmd() *cobra.Command {
	var (
		configFile string
		enabled    string
		envelope   string
	)
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "show feedback components and their combined lambda",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.DefaultConfig()
			if configFile != "" {
				loaded, err := config.Load(configFile)
				if err != nil {
					return fmt.Errorf("failed to load config: %w", err)
				}
				cfg = loaded
			}
			components := cfg.Components()
			mask := cfg.Mask()
			if cmd.Flags().Changed("enabled") {
				mask = feedback.ParseMask(enabled)
			}
			mode := cfg.EnvelopeMode()
			if cmd.Flags().Changed("envelope") {
				m, err := feedback.ParseMode(envelope)
				if err != nil {
					return err
				}
				mode = m
			}
			return printFeedback(components, mask, mode)
		},
	}
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&enabled, "enabled", "all", "enabled components, comma separated")
	cmd.Flags().StringVar(&envelope, "envelope", string(feedback.ModeBounds), "envelope mode: bounds or rss")
	return cmd
}

func printFeedback(components []feedback.Component, mask feedback.Mask, mode feedback.Mode) error {
	agg, err := feedback.Combine(components, mask)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	defer func() { _ = table.Close() }()
	table.Header([]string{"#", "Name", "Label", "Central", "Low", "High", "Confidence", "Enabled"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for i, c := range components {
		on := ""
		if mask.Enabled(c.Name) {
			on = "yes"
		}
		data = append(data, []string{
			fmt.Sprint(i + 1),
			c.Name,
			c.Label,
			fmt.Sprintf("%.2f", c.Central),
			fmt.Sprintf("%.2f", c.Low),
			fmt.Sprintf("%.2f", c.High),
			string(c.Confidence),
			on,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	lo, hi := agg.Range(mode)
	fmt.Printf("\n%s %.2f W/m²/K\n", heading.Render("lambda"), agg.Sum)
	fmt.Printf("min %.2f  max %.2f  std %.3f\n", agg.Min, agg.Max, agg.Std)
	fmt.Printf("envelope (%s): [%.2f, %.2f]\n", mode, lo, hi)
	if agg.Runaway() {
		warn("the enabled set has a non-negative lambda in its range, runs will diverge")
	}
	return nil
}

func newForcingCmd() *cobra.Command {
	var (
		categories string
		sum        bool
		window     string
		year       int
	)
	cmd := &cobra.Command{
		Use:   "forcing [table]",
		Short: "chart forcing categories of a table",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultForcing
			if len(args) > 0 {
				path = args[0]
			}
			table, err := forcing.LoadFile(path)
			if err != nil {
				return err
			}

			cats, err := table.Expand(splitList(categories))
			if err != nil {
				return err
			}
			fmt.Printf("%s %s\n", heading.Render("columns"), strings.Join(table.Columns, ", "))
			if len(table.Years) > 0 {
				fmt.Printf("%s %d-%d\n\n", heading.Render("years"), table.Years[0], table.Years[len(table.Years)-1])
			}

			if year != 0 {
				shares, err := table.Shares(year, cats)
				if err != nil {
					return err
				}
				return printShares(year, shares)
			}

			var from, to int
			if window != "" {
				if from, to, err = parseRange(window); err != nil {
					return fmt.Errorf("window: %w", err)
				}
			}

			var names []string
			var series []forcing.Series
			if sum {
				s, empty, err := table.Sum(cats)
				if err != nil {
					return err
				}
				if empty {
					warn("no categories selected, the sum is zero")
				}
				names, series = []string{"sum"}, []forcing.Series{s.Window(from, to)}
			} else {
				for _, c := range cats {
					s, err := table.Column(c)
					if err != nil {
						return err
					}
					names = append(names, c)
					series = append(series, s.Window(from, to))
				}
			}

			fmt.Println(viz.ForcingChart(names, series, viz.DefaultChartOptions("forcing (W/m²)")))
			return nil
		},
	}
	cmd.Flags().StringVar(&categories, "categories", forcing.AllCategories, "categories to chart, comma separated")
	cmd.Flags().BoolVar(&sum, "sum", false, "chart the sum of the categories")
	cmd.Flags().StringVar(&window, "window", "", "years from:to")
	cmd.Flags().IntVar(&year, "year", 0, "print each category's share of the forcing in this year instead of charting")
	return cmd
}

func printShares(year int, shares []forcing.Share) error {
	fmt.Printf("%s %d\n\n", heading.Render("year"), year)

	table := tablewriter.NewWriter(os.Stdout)
	defer func() { _ = table.Close() }()

	table.Header([]string{"category", "W/m²", "share"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	var rows [][]string
	total := 0.0
	for _, sh := range shares {
		total += sh.Value
		rows = append(rows, []string{sh.Category, fmt.Sprintf("%.3f", sh.Value), fmt.Sprintf("%.1f%%", 100*sh.Fraction)})
	}
	rows = append(rows, []string{"total", fmt.Sprintf("%.3f", total), ""})
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

func newObservationsCmd() *cobra.Command {
	var window string
	cmd := &cobra.Command{
		Use:   "observations [file]",
		Short: "chart the observed anomaly record",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultObservations
			if len(args) > 0 {
				path = args[0]
			}
			obs, err := forcing.LoadObservationsFile(path)
			if err != nil {
				return err
			}
			if window != "" {
				from, to, err := parseRange(window)
				if err != nil {
					return fmt.Errorf("window: %w", err)
				}
				obs = obs.Window(from, to)
			}
			fmt.Println(viz.ObservationsChart(obs, viz.DefaultChartOptions("observed anomaly (K)")))
			return nil
		},
	}
	cmd.Flags().StringVar(&window, "window", "", "years from:to")
	return cmd
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list configuration presets",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, name := range config.ListPresets() {
				fmt.Printf("  %-10s %s\n", heading.Render(name), config.PresetDescription(name))
			}
		},
	}
}

func splitList(s string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
