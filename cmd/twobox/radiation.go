package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/san-kum/twobox/internal/physics"
	"github.com/san-kum/twobox/internal/viz"
)

func newPlanckCmd() *cobra.Command {
	var (
		temps    []float64
		points   int
		logScale bool
		height   int
	)
	cmd := &cobra.Command{
		Use:   "planck",
		Short: "chart the black-body spectrum at given temperatures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(temps) == 0 {
				return fmt.Errorf("at least one --temp is required")
			}
			kelvins := make([]float64, len(temps))
			for i, c := range temps {
				kelvins[i] = physics.Kelvin(c)
				if kelvins[i] <= 0 {
					return fmt.Errorf("temperature %g °C is below absolute zero", c)
				}
			}

			caption := "u(λ) in J/m⁴"
			if logScale {
				caption = "log10 u(λ) in J/m⁴"
			}
			opts := viz.DefaultChartOptions(caption)
			opts.Height = height
			fmt.Println(viz.PlanckChart(kelvins, points, logScale, opts))

			for _, k := range kelvins {
				fmt.Printf("%s %.2f °C: peak %.2f µm, emission %.1f W/m²\n",
					heading.Render("T"), physics.Celsius(k), physics.WienPeak(k)*1e6, physics.Emission(k))
			}
			return nil
		},
	}
	cmd.Flags().Float64SliceVar(&temps, "temp", []float64{14}, "temperature in °C, repeatable")
	cmd.Flags().IntVar(&points, "points", 200, "wavelengths sampled")
	cmd.Flags().BoolVar(&logScale, "log", false, "draw log10 of the density")
	cmd.Flags().IntVar(&height, "height", viz.DefaultChartHeight, "chart height")
	return cmd
}

func newBalanceCmd() *cobra.Command {
	var (
		temp       float64
		albedo     float64
		oneLayer   bool
		airTemp    float64
		emissivity float64
	)
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "radiation budget of a planet without or with one atmospheric layer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !oneLayer {
				return printBareBalance(physics.Kelvin(temp), albedo)
			}

			var air float64
			if cmd.Flags().Changed("atmosphere-temp") {
				air = physics.Kelvin(airTemp)
			} else {
				_, ta, err := physics.OneLayerEquilibrium(albedo, emissivity)
				if err != nil {
					return err
				}
				air = ta
			}
			return printOneLayerBalance(physics.Kelvin(temp), air, albedo, emissivity)
		},
	}
	cmd.Flags().Float64Var(&temp, "temp", 14, "surface temperature in °C")
	cmd.Flags().Float64Var(&albedo, "albedo", physics.DefaultAlbedo, "planetary albedo")
	cmd.Flags().BoolVar(&oneLayer, "one-layer", false, "add an atmospheric layer opaque to longwave by --emissivity")
	cmd.Flags().Float64Var(&airTemp, "atmosphere-temp", 0, "atmosphere temperature in °C (default: its equilibrium)")
	cmd.Flags().Float64Var(&emissivity, "emissivity", physics.DefaultEmissivity, "longwave emissivity of the atmosphere")
	return cmd
}

func printBareBalance(kelvin, albedo float64) error {
	b, err := physics.NewBare(kelvin, albedo)
	if err != nil {
		return err
	}
	te, err := physics.RadiativeEquilibrium(albedo)
	if err != nil {
		return err
	}

	if err := printFluxes([][]string{
		{"incoming sunlight", flux(b.Insolation)},
		{"reflected", flux(b.Reflected)},
		{"absorbed", flux(b.Absorbed)},
		{"emitted", flux(b.Emitted)},
		{"net", flux(b.Net())},
	}); err != nil {
		return err
	}
	fmt.Printf("\n%s %.2f °C (%.2f K)\n", heading.Render("equilibrium"), physics.Celsius(te), te)
	warnBalance("surface", b.Net())
	return nil
}

func printOneLayerBalance(surface, air, albedo, emissivity float64) error {
	b, err := physics.NewOneLayer(surface, air, albedo, emissivity)
	if err != nil {
		return err
	}
	ts, ta, err := physics.OneLayerEquilibrium(albedo, emissivity)
	if err != nil {
		return err
	}

	fmt.Printf("%s %.2f °C\n\n", heading.Render("atmosphere"), physics.Celsius(air))
	if err := printFluxes([][]string{
		{"absorbed sunlight", flux(b.Absorbed)},
		{"surface emission", flux(b.SurfaceEmission)},
		{"back radiation", flux(b.BackRadiation)},
		{"absorbed by atmosphere", flux(b.AtmosphereAbsorbed)},
		{"atmosphere emission", flux(b.AtmosphereEmission)},
		{"outgoing", flux(b.Outgoing)},
		{"surface net", flux(b.SurfaceNet())},
		{"atmosphere net", flux(b.AtmosphereNet())},
		{"top net", flux(b.TopNet())},
	}); err != nil {
		return err
	}
	fmt.Printf("\n%s surface %.2f °C, atmosphere %.2f °C\n",
		heading.Render("equilibrium"), physics.Celsius(ts), physics.Celsius(ta))
	warnBalance("surface", b.SurfaceNet())
	warnBalance("atmosphere", b.AtmosphereNet())
	return nil
}

func printFluxes(rows [][]string) error {
	table := tablewriter.NewWriter(os.Stdout)
	defer func() { _ = table.Close() }()

	table.Header([]string{"flux", "W/m²"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

func flux(v float64) string { return fmt.Sprintf("%.2f", v) }

// balanceTolerance is the net flux in W/m² still reported as balanced.
const balanceTolerance = 0.05

func warnBalance(layer string, net float64) {
	switch {
	case net > balanceTolerance:
		warn("%s gains %.2f W/m² and warms", layer, net)
	case net < -balanceTolerance:
		warn("%s loses %.2f W/m² and cools", layer, -net)
	}
}
