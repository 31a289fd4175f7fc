package main

import (
	"fmt"
	"os"
	"slices"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/san-kum/twobox/internal/config"
	"github.com/san-kum/twobox/internal/experiment"
	"github.com/san-kum/twobox/internal/forcing"
	"github.com/san-kum/twobox/internal/optim"
	"github.com/san-kum/twobox/internal/viz"
)

func newCalibrateCmd() *cobra.Command {
	var (
		flags      runFlags
		lambdaGrid string
		gammaGrid  string
		top        int
	)
	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "fit lambda and gamma to the observed record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			grid := experiment.DefaultGrid()
			if cmd.Flags().Changed("lambda-grid") {
				if grid.Lambdas, err = parseGrid(lambdaGrid); err != nil {
					return fmt.Errorf("lambda grid: %w", err)
				}
			}
			if cmd.Flags().Changed("gamma-grid") {
				if grid.Gammas, err = parseGrid(gammaGrid); err != nil {
					return fmt.Errorf("gamma grid: %w", err)
				}
			}

			logger := newLogger()
			table, err := forcing.LoadFile(cfg.Forcing)
			if err != nil {
				return err
			}
			obs, err := forcing.LoadObservationsFile(cfg.Observations)
			if err != nil {
				return err
			}
			exp, err := experiment.New(cfg, table, logger)
			if err != nil {
				return err
			}

			cal, err := exp.Calibrate(cmd.Context(), obs, grid)
			if err != nil {
				return err
			}

			fmt.Printf("%s %s\n", heading.Render("subset"), cal.Subset)
			fmt.Printf("%s %.3f W/m²/K\n", heading.Render("lambda"), cal.Lambda)
			fmt.Printf("%s %.3f W/m²/K\n", heading.Render("gamma"), cal.Gamma)
			fmt.Printf("%s %.4f K over %d years\n\n", heading.Render("rmse"), cal.RMSE, cal.Overlap)
			if err := printBestPoints(cal.Points, top); err != nil {
				return err
			}

			// Re-run the winner so it can be drawn against the record.
			fitted := cfg.Clone()
			fitted.Lambda = config.LambdaConfig{Source: config.LambdaFixed, Value: cal.Lambda}
			fitted.Gamma = cal.Gamma
			fitted.Uncertainty = false
			fitted.Scenario = false
			fitted.Subsets = exp.Subsets()[:1]
			fexp, err := experiment.New(fitted, table, logger)
			if err != nil {
				return err
			}
			res, err := fexp.Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println()
			fmt.Println(viz.AnomalyChart(res, obs, viz.DefaultChartOptions("calibrated surface anomaly (K)")))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&lambdaGrid, "lambda-grid", "-3:-0.5:26", "lambda values lo:hi:n")
	cmd.Flags().StringVar(&gammaGrid, "gamma-grid", "-1.5:0:16", "gamma values lo:hi:n")
	cmd.Flags().IntVar(&top, "top", 5, "number of best grid points to list")
	return cmd
}

func printBestPoints(points []optim.Point, top int) error {
	ranked := slices.Clone(points)
	slices.SortStableFunc(ranked, func(a, b optim.Point) int {
		switch {
		case a.Score < b.Score:
			return -1
		case a.Score > b.Score:
			return 1
		}
		return 0
	})
	if top > 0 && len(ranked) > top {
		ranked = ranked[:top]
	}

	table := tablewriter.NewWriter(os.Stdout)
	defer func() { _ = table.Close() }()
	table.Header([]string{"Rank", "Lambda", "Gamma", "RMSE"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for i, p := range ranked {
		data = append(data, []string{
			fmt.Sprint(i + 1),
			fmt.Sprintf("%.3f", p.Params["lambda"]),
			fmt.Sprintf("%.3f", p.Params["gamma"]),
			fmt.Sprintf("%.4f", p.Score),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
