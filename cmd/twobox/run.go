package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/san-kum/twobox/internal/config"
	"github.com/san-kum/twobox/internal/experiment"
	"github.com/san-kum/twobox/internal/feedback"
	"github.com/san-kum/twobox/internal/forcing"
	"github.com/san-kum/twobox/internal/metrics"
	"github.com/san-kum/twobox/internal/storage"
	"github.com/san-kum/twobox/internal/viz"
)

// runFlags are the model settings shared by run and explore.
type runFlags struct {
	configFile   string
	preset       string
	forcing      string
	observations string
	subsets      []string
	scenario     bool
	lambda       float64
	feedback     string
	gamma        float64
	noOcean      bool
	uncertainty  bool
	envelope     string
	baseline     string
	window       string
	strict       bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.configFile, "config", "", "config file path (yaml)")
	fs.StringVar(&f.preset, "preset", "", "use preset configuration")
	fs.StringVar(&f.forcing, "forcing", config.DefaultForcing, "forcing table (csv)")
	fs.StringVar(&f.observations, "observations", config.DefaultObservations, "observed anomaly overlay (csv)")
	fs.StringArrayVar(&f.subsets, "subset", nil, "forcing subset name=cat1+cat2, repeatable; * selects every column")
	fs.BoolVar(&f.scenario, "scenario", false, "run every column of the table as its own subset")
	fs.Float64Var(&f.lambda, "lambda", config.DefaultLambda, "fixed feedback parameter in W/m²/K (overrides feedback components)")
	fs.StringVar(&f.feedback, "feedback", "all", "enabled feedback components, comma separated")
	fs.Float64Var(&f.gamma, "gamma", config.DefaultGamma, "ocean heat uptake coefficient in W/m²/K")
	fs.BoolVar(&f.noOcean, "no-ocean", false, "disable ocean heat uptake")
	fs.BoolVar(&f.uncertainty, "uncertainty", false, "run the feedback uncertainty envelope")
	fs.StringVar(&f.envelope, "envelope", string(feedback.ModeBounds), "envelope mode: bounds or rss")
	fs.StringVar(&f.baseline, "baseline", "", "rebaseline onto from:to, or off")
	fs.StringVar(&f.window, "window", "", "display years from:to")
	fs.BoolVar(&f.strict, "strict", false, "fail a run whose state reaches NaN or Inf")
}

// resolve builds the configuration: preset, then config file, then any flag
// given explicitly on the command line.
func (f *runFlags) resolve(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if f.preset != "" {
		cfg = config.GetPreset(f.preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", f.preset, config.ListPresets())
		}
	}
	if f.configFile != "" {
		loaded, err := config.Load(f.configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	changed := cmd.Flags().Changed
	if changed("forcing") {
		cfg.Forcing = f.forcing
	}
	if changed("observations") {
		cfg.Observations = f.observations
	}
	if changed("subset") {
		subsets := make([]config.Subset, len(f.subsets))
		for i, s := range f.subsets {
			subsets[i] = parseSubset(s)
		}
		cfg.Subsets = subsets
	}
	if changed("scenario") {
		cfg.Scenario = f.scenario
	}
	if changed("lambda") {
		cfg.Lambda = config.LambdaConfig{Source: config.LambdaFixed, Value: f.lambda}
	}
	if changed("feedback") {
		cfg.Lambda.Source = config.LambdaFromFeedback
		cfg.Feedback.Enabled = enabledList(feedback.ParseMask(f.feedback), cfg.Components())
	}
	if changed("gamma") {
		cfg.Gamma = f.gamma
	}
	if changed("no-ocean") {
		cfg.OceanHeatUptake = !f.noOcean
	}
	if changed("uncertainty") {
		cfg.Uncertainty = f.uncertainty
	}
	if changed("envelope") {
		cfg.Feedback.Envelope = f.envelope
	}
	if changed("baseline") {
		b, err := parseBaseline(f.baseline)
		if err != nil {
			return nil, err
		}
		cfg.Baseline = b
	}
	if changed("window") {
		from, to, err := parseRange(f.window)
		if err != nil {
			return nil, fmt.Errorf("window: %w", err)
		}
		cfg.Window = config.WindowConfig{From: from, To: to}
	}
	if changed("strict") {
		cfg.Strict = f.strict
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newRunCmd() *cobra.Command {
	var (
		flags  runFlags
		save   bool
		chart  bool
		height int
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "integrate the configured forcing subsets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			return runModel(cmd.Context(), cfg, save, chart, height)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&save, "save", false, "save the run to the data directory")
	cmd.Flags().BoolVar(&chart, "chart", true, "draw the anomaly chart")
	cmd.Flags().IntVar(&height, "height", viz.DefaultChartHeight, "chart height")
	return cmd
}

func runModel(ctx context.Context, cfg *config.Config, save, chart bool, height int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := newLogger()

	table, err := forcing.LoadFile(cfg.Forcing)
	if err != nil {
		return err
	}
	exp, err := experiment.New(cfg, table, logger)
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	logger.Info("run complete", "subsets", len(res.Subsets), "elapsed", time.Since(start))

	warnResult(res)
	printParameters(res.Params)
	if err := printMetrics(res); err != nil {
		return err
	}

	if chart {
		obs := loadObservations(cfg)
		opts := viz.DefaultChartOptions("surface anomaly (K)")
		opts.Height = height
		fmt.Println()
		fmt.Println(viz.AnomalyChart(res, obs, opts))
	}

	if !save {
		return nil
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	meta, samples := storage.Record(cfg, res)
	id, err := st.Save(meta, samples)
	if err != nil {
		return err
	}
	fmt.Printf("\nrun id: %s\n", id)
	return nil
}

func warnResult(res *experiment.Result) {
	if res.Params.Runaway() {
		warn("lambda %.2f W/m²/K is non-negative: there is no restoring feedback and warming diverges", res.Params.Lambda.Central)
	}
	for _, sub := range res.Subsets {
		if sub.EmptySelection {
			warn("subset %s selects no forcing categories, ran with zero forcing", sub.Name)
		}
		if diverged(sub.Central.Ts) {
			warn("subset %s diverged to NaN or Inf; rerun with --strict to stop at the first bad step", sub.Name)
		}
	}
}

func diverged(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

func printParameters(p experiment.Parameters) {
	fmt.Printf("lambda: %.3f W/m²/K (%s)\n", p.Lambda.Central, p.Source)
	if p.Feedback != nil {
		fmt.Printf("feedback: %v\n", p.Feedback.Enabled)
	}
	if p.Uncertainty {
		fmt.Printf("envelope: %s [%.3f, %.3f]\n", p.Mode, p.Lambda.Low, p.Lambda.High)
	}
	fmt.Printf("gamma: %.3f W/m²/K\n\n", p.Gamma)
}

func printMetrics(res *experiment.Result) error {
	table := tablewriter.NewWriter(os.Stdout)
	defer func() { _ = table.Close() }()

	headers := append([]string{"subset"}, metrics.Order...)
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, sub := range res.Subsets {
		row := []string{sub.Name}
		for _, name := range metrics.Order {
			row = append(row, fmt.Sprintf("%.3f", sub.Central.Metrics[name]))
		}
		data = append(data, row)
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// loadObservations returns nil when the overlay cannot be read; it is
// optional.
func loadObservations(cfg *config.Config) *forcing.Observations {
	if cfg.Observations == "" {
		return nil
	}
	obs, err := forcing.LoadObservationsFile(cfg.Observations)
	if err != nil {
		newLogger().Debug("no observation overlay", "error", err)
		return nil
	}
	return obs
}
