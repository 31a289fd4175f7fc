package viz

import (
	"fmt"
	"math"
	"os"

	"github.com/guptarohit/asciigraph"
	"golang.org/x/term"

	"github.com/san-kum/twobox/internal/experiment"
	"github.com/san-kum/twobox/internal/forcing"
	"github.com/san-kum/twobox/internal/physics"
	"github.com/san-kum/twobox/internal/twobox"
)

const (
	DefaultChartHeight = 12
	minChartWidth      = 20
	maxChartWidth      = 160
	// room for the y-axis labels asciigraph draws left of the plot
	axisWidth = 12
)

var palette = []asciigraph.AnsiColor{
	asciigraph.Red,
	asciigraph.Blue,
	asciigraph.Green,
	asciigraph.Yellow,
	asciigraph.Magenta,
	asciigraph.Cyan,
}

type ChartOptions struct {
	Width   int
	Height  int
	Caption string
}

// DefaultChartOptions sizes a chart to the terminal.
func DefaultChartOptions(caption string) ChartOptions {
	return ChartOptions{
		Width:   min(max(TerminalWidth()-axisWidth, minChartWidth), maxChartWidth),
		Height:  DefaultChartHeight,
		Caption: caption,
	}
}

// TerminalWidth returns the width of stdout, or 80 when it is not a
// terminal.
func TerminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

// Line is one labelled series of a chart.
type Line struct {
	Label  string
	Values []float64
	Color  asciigraph.AnsiColor
}

// Plot draws lines on one chart. Lines without values are skipped and an
// empty string is returned when nothing is left.
func Plot(lines []Line, opts ChartOptions) string {
	data := make([][]float64, 0, len(lines))
	colors := make([]asciigraph.AnsiColor, 0, len(lines))
	legends := make([]string, 0, len(lines))
	for _, l := range lines {
		if !hasData(l.Values) {
			continue
		}
		c := l.Color
		if c == asciigraph.Default {
			c = palette[len(data)%len(palette)]
		}
		data = append(data, l.Values)
		colors = append(colors, c)
		legends = append(legends, l.Label)
	}
	if len(data) == 0 {
		return ""
	}

	options := []asciigraph.Option{asciigraph.SeriesColors(colors...)}
	if opts.Height > 0 {
		options = append(options, asciigraph.Height(opts.Height))
	}
	if opts.Width > 0 {
		options = append(options, asciigraph.Width(opts.Width))
	}
	if opts.Caption != "" {
		options = append(options, asciigraph.Caption(opts.Caption))
	}
	if len(data) > 1 {
		options = append(options, asciigraph.SeriesLegends(legends...))
	}
	return asciigraph.PlotMany(data, options...)
}

// AnomalyChart draws the surface anomaly of every subset. A single subset
// with an envelope also gets its bounds. Observations, when given, are
// aligned to the model years.
func AnomalyChart(res *experiment.Result, obs *forcing.Observations, opts ChartOptions) string {
	if res == nil || len(res.Subsets) == 0 {
		return ""
	}

	var lines []Line
	years := res.Subsets[0].Central.Years
	for _, sub := range res.Subsets {
		lines = append(lines, Line{Label: sub.Name, Values: sub.Central.Ts})
	}
	if len(res.Subsets) == 1 && res.Subsets[0].Envelope != nil {
		env := res.Subsets[0].Envelope
		lines = append(lines,
			Line{Label: "lower", Values: env.Lower, Color: asciigraph.Gray},
			Line{Label: "upper", Values: env.Upper, Color: asciigraph.Gray},
		)
	}
	if obs != nil {
		lines = append(lines, Line{Label: "observed", Values: align(years, obs.Years, obs.Values), Color: asciigraph.White})
	}

	opts.Caption = yearCaption(opts.Caption, years)
	return Plot(lines, opts)
}

// EnvelopeChart draws the central run between the pointwise envelope bounds.
func EnvelopeChart(env *twobox.Envelope, opts ChartOptions) string {
	if env == nil {
		return ""
	}
	opts.Caption = yearCaption(opts.Caption, env.Central.Years)
	return Plot([]Line{
		{Label: fmt.Sprintf("λ=%.2f", env.Central.Lambda), Values: env.Central.Ts, Color: asciigraph.Red},
		{Label: "lower", Values: env.Lower, Color: asciigraph.Blue},
		{Label: "upper", Values: env.Upper, Color: asciigraph.Yellow},
	}, opts)
}

// ForcingChart draws named forcing series. They are assumed to share years.
func ForcingChart(names []string, series []forcing.Series, opts ChartOptions) string {
	if len(series) == 0 {
		return ""
	}
	lines := make([]Line, len(series))
	for i, s := range series {
		lines[i] = Line{Label: names[i], Values: s.Values}
	}
	opts.Caption = yearCaption(opts.Caption, series[0].Years)
	return Plot(lines, opts)
}

// ObservationsChart draws the observed anomaly inside its 95% band.
func ObservationsChart(obs *forcing.Observations, opts ChartOptions) string {
	if obs == nil {
		return ""
	}
	opts.Caption = yearCaption(opts.Caption, obs.Years)
	return Plot([]Line{
		{Label: "observed", Values: obs.Values, Color: asciigraph.White},
		{Label: "ci95 low", Values: obs.Min, Color: asciigraph.Gray},
		{Label: "ci95 high", Values: obs.Max, Color: asciigraph.Gray},
	}, opts)
}

// PlanckChart draws the black-body spectrum at each temperature in K on
// the log-spaced wavelength grid of physics.PlanckCurve. With logScale the
// density is drawn as log10 and zero densities are left out.
func PlanckChart(kelvins []float64, points int, logScale bool, opts ChartOptions) string {
	lines := make([]Line, 0, len(kelvins))
	for _, k := range kelvins {
		_, u := physics.PlanckCurve(k, points)
		if logScale {
			for i, v := range u {
				if v > 0 {
					u[i] = math.Log10(v)
				} else {
					u[i] = math.NaN()
				}
			}
		}
		lines = append(lines, Line{Label: fmt.Sprintf("%.0f K", k), Values: u})
	}
	opts.Caption = fmt.Sprintf("%s, λ %.2f-%.0f µm", opts.Caption, physics.MinWavelength*1e6, physics.MaxWavelength*1e6)
	return Plot(lines, opts)
}

// align maps values onto years, leaving NaN where src has no entry.
func align(years, srcYears []int, values []float64) []float64 {
	idx := make(map[int]int, len(srcYears))
	for i, y := range srcYears {
		idx[y] = i
	}
	out := make([]float64, len(years))
	for i, y := range years {
		if j, ok := idx[y]; ok {
			out[i] = values[j]
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

func hasData(values []float64) bool {
	for _, v := range values {
		if !math.IsNaN(v) {
			return true
		}
	}
	return false
}

func yearCaption(caption string, years []int) string {
	if len(years) == 0 {
		return caption
	}
	span := fmt.Sprintf("%d-%d", years[0], years[len(years)-1])
	if caption == "" {
		return span
	}
	return caption + " (" + span + ")"
}
