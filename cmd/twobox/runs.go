package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/san-kum/twobox/internal/export"
	"github.com/san-kum/twobox/internal/storage"
	"github.com/san-kum/twobox/internal/viz"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			runs, err := st.List()
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no runs found")
				return nil
			}

			table := tablewriter.NewWriter(os.Stdout)
			defer func() { _ = table.Close() }()
			table.Header([]string{"ID", "Time", "Forcing", "Lambda", "Gamma", "Envelope", "Subsets"})

			var data [][]string
			for _, r := range runs {
				names := make([]string, len(r.Subsets))
				for i, s := range r.Subsets {
					names[i] = s.Name
				}
				env := "-"
				if r.Uncertainty {
					env = fmt.Sprintf("%s [%.2f, %.2f]", r.Envelope, r.LambdaLow, r.LambdaHigh)
				}
				data = append(data, []string{
					r.ID,
					r.Timestamp.Local().Format("2006-01-02 15:04:05"),
					r.Forcing,
					fmt.Sprintf("%.2f (%s)", r.Lambda, r.Source),
					fmt.Sprintf("%.2f", r.Gamma),
					env,
					strings.Join(names, ", "),
				})
			}
			if err := table.Bulk(data); err != nil {
				return err
			}
			return table.Render()
		},
	}
}

func newPlotCmd() *cobra.Command {
	var height int
	cmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "chart a saved run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			meta, err := st.Load(args[0])
			if err != nil {
				return err
			}
			samples, err := st.LoadSamples(args[0])
			if err != nil {
				return err
			}

			opts := viz.DefaultChartOptions("")
			opts.Height = height
			for _, sub := range meta.Subsets {
				rows := storage.SubsetSamples(samples, sub.Name)
				if len(rows) == 0 {
					continue
				}
				lines := []viz.Line{{Label: "ts", Values: column(rows, func(s storage.Sample) float64 { return s.Ts })}}
				if meta.Uncertainty {
					lines = append(lines,
						viz.Line{Label: "λ low", Values: column(rows, func(s storage.Sample) float64 { return s.TsLambdaMin }), Color: asciigraph.Gray},
						viz.Line{Label: "λ high", Values: column(rows, func(s storage.Sample) float64 { return s.TsLambdaMax }), Color: asciigraph.Gray},
					)
				}
				opts.Caption = fmt.Sprintf("%s: surface anomaly (K) %d-%d", sub.Name, rows[0].Year, rows[len(rows)-1].Year)
				fmt.Println(viz.Plot(lines, opts))
				fmt.Println()
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&height, "height", viz.DefaultChartHeight, "chart height")
	return cmd
}

func column(samples []storage.Sample, get func(storage.Sample) float64) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = get(s)
	}
	return out
}

func newExportJSONCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and samples to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			meta, err := st.Load(args[0])
			if err != nil {
				return err
			}
			samples, err := st.LoadSamples(args[0])
			if err != nil {
				return err
			}
			return storage.ExportJSON(os.Stdout, *meta, samples)
		},
	}
}

func newExportCSVCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run samples to CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			samples, err := st.LoadSamples(args[0])
			if err != nil {
				return err
			}
			return storage.WriteCSV(os.Stdout, samples)
		},
	}
}

func newExportParquetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export-parquet [run_id] [file]",
		Short: "export run samples to a Parquet file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			samples, err := st.LoadSamples(args[0])
			if err != nil {
				return err
			}
			if err := storage.ExportParquet(args[1], samples); err != nil {
				return err
			}
			fmt.Printf("wrote %d samples to %s\n", len(samples), args[1])
			return nil
		},
	}
}

func newExportSVGCmd() *cobra.Command {
	var width, height int
	cmd := &cobra.Command{
		Use:   "export-svg [run_id] [file]",
		Short: "draw a saved run to an SVG file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			meta, err := st.Load(args[0])
			if err != nil {
				return err
			}
			samples, err := st.LoadSamples(args[0])
			if err != nil {
				return err
			}

			chart := runChart(meta, samples)
			chart.Width, chart.Height = width, height

			f, err := os.Create(args[1])
			if err != nil {
				return err
			}
			if err := export.WriteSVG(f, chart); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[1])
			return nil
		},
	}
	cmd.Flags().IntVar(&width, "width", 900, "image width")
	cmd.Flags().IntVar(&height, "height", 450, "image height")
	return cmd
}

// runChart draws Ts per subset, with the lambda envelope as a band when the
// run had one.
func runChart(meta *storage.RunMetadata, samples []storage.Sample) export.Chart {
	chart := export.Chart{Title: fmt.Sprintf("surface anomaly (K), λ=%.2f γ=%.2f", meta.Lambda, meta.Gamma)}
	for i, sub := range meta.Subsets {
		rows := storage.SubsetSamples(samples, sub.Name)
		if len(rows) == 0 {
			continue
		}
		color := export.Palette[i%len(export.Palette)]
		x := column(rows, func(s storage.Sample) float64 { return float64(s.Year) })
		if meta.Uncertainty {
			chart.Bands = append(chart.Bands, export.Band{
				Color: color,
				X:     x,
				Lower: column(rows, func(s storage.Sample) float64 { return s.TsLambdaMin }),
				Upper: column(rows, func(s storage.Sample) float64 { return s.TsLambdaMax }),
			})
		}
		chart.Lines = append(chart.Lines, export.Line{
			Label: sub.Name,
			Color: color,
			X:     x,
			Y:     column(rows, func(s storage.Sample) float64 { return s.Ts }),
		})
	}
	return chart
}
