package viz

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/twobox/internal/config"
	"github.com/san-kum/twobox/internal/experiment"
	"github.com/san-kum/twobox/internal/feedback"
	"github.com/san-kum/twobox/internal/forcing"
	"github.com/san-kum/twobox/internal/metrics"
)

// Runner runs the model for a configuration.
type Runner func(ctx context.Context, cfg *config.Config) (*experiment.Result, error)

// TableRunner runs experiments against a loaded forcing table.
func TableRunner(table *forcing.Table, logger *slog.Logger) Runner {
	return func(ctx context.Context, cfg *config.Config) (*experiment.Result, error) {
		exp, err := experiment.New(cfg, table, logger)
		if err != nil {
			return nil, err
		}
		return exp.Run(ctx)
	}
}

// Explorer is an interactive view of how feedback and ocean settings move
// the anomaly. Every toggle re-runs the model.
type Explorer struct {
	cfg        *config.Config
	run        Runner
	obs        *forcing.Observations
	components []feedback.Component

	result *experiment.Result
	err    error
	subset int
	runs   int

	theme  Theme
	styles Styles
	width  int
	height int
}

// NewExplorer copies cfg and performs the first run.
func NewExplorer(cfg *config.Config, run Runner, obs *forcing.Observations) Explorer {
	t := DefaultTheme()
	m := Explorer{
		cfg:        cfg.Clone(),
		run:        run,
		obs:        obs,
		components: cfg.Components(),
		theme:      t,
		styles:     NewStyles(t),
	}
	m.rerun()
	return m
}

// WithTheme returns m drawn with t.
func (m Explorer) WithTheme(t Theme) Explorer {
	m.theme, m.styles = t, NewStyles(t)
	return m
}

func (m Explorer) Config() *config.Config     { return m.cfg }
func (m Explorer) Result() *experiment.Result { return m.result }
func (m Explorer) Err() error                 { return m.err }
func (m Explorer) Runs() int                  { return m.runs }

func (m Explorer) Init() tea.Cmd { return nil }

func (m Explorer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	}
	return m, nil
}

func (m Explorer) handleKey(msg tea.KeyMsg) (Explorer, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		i := int(key[0] - '1')
		if i >= len(m.components) {
			return m, nil
		}
		m.toggleFeedback(m.components[i].Name)
	case "o":
		m.cfg.OceanHeatUptake = !m.cfg.OceanHeatUptake
	case "b":
		m.cfg.Baseline = config.BaselineConfig{
			Enabled: !m.cfg.Baseline.Enabled,
			From:    config.DefaultBaselineFrom,
			To:      config.DefaultBaselineTo,
		}
	case "u":
		m.cfg.Uncertainty = !m.cfg.Uncertainty
	case "e":
		if m.cfg.EnvelopeMode() == feedback.ModeRSS {
			m.cfg.Feedback.Envelope = string(feedback.ModeBounds)
		} else {
			m.cfg.Feedback.Envelope = string(feedback.ModeRSS)
		}
	case "tab":
		if m.result != nil && len(m.result.Subsets) > 0 {
			m.subset = (m.subset + 1) % len(m.result.Subsets)
		}
		return m, nil
	case "t":
		m.theme = nextTheme(m.theme)
		m.styles = NewStyles(m.theme)
		return m, nil
	default:
		return m, nil
	}
	m.rerun()
	return m, nil
}

func (m *Explorer) toggleFeedback(name string) {
	mask := m.cfg.Mask().Toggle(m.components, name)
	enabled := make([]string, 0, len(m.components))
	for _, c := range m.components {
		if mask.Enabled(c.Name) {
			enabled = append(enabled, c.Name)
		}
	}
	m.cfg.Feedback.Enabled = enabled
}

func (m *Explorer) rerun() {
	m.runs++
	res, err := m.run(context.Background(), m.cfg)
	if err != nil {
		m.err = err
		return
	}
	m.result, m.err = res, nil
	if m.subset >= len(res.Subsets) {
		m.subset = 0
	}
}

func (m Explorer) View() string {
	s := m.styles
	width := m.width
	if width == 0 {
		width = TerminalWidth()
	}

	var b strings.Builder
	b.WriteString("\n  " + s.Title.Render("TWOBOX") + "  " + s.Subtle.Render("feedback explorer") + "\n")
	b.WriteString("  " + s.Separator(min(width-4, 60)) + "\n\n")

	mask := m.cfg.Mask()
	for i, c := range m.components {
		box := s.Off.Render("[ ]")
		if mask.Enabled(c.Name) {
			box = s.On.Render("[x]")
		}
		fmt.Fprintf(&b, "  %s %s %-16s %s\n",
			s.Key.Render(fmt.Sprint(i+1)), box, c.Label,
			s.MetricValue.Render(fmt.Sprintf("%+.2f", c.Central)))
	}
	b.WriteString("\n")

	if m.result != nil {
		b.WriteString(m.viewParams())
	}
	b.WriteString(m.viewSwitches())

	if m.err != nil {
		b.WriteString("\n  " + s.Error.Render("error: "+m.err.Error()) + "\n")
	}
	if m.result != nil && len(m.result.Subsets) > 0 {
		b.WriteString(m.viewSubset(width))
	}

	b.WriteString("\n  " + m.hints() + "\n")
	return b.String()
}

func (m Explorer) viewParams() string {
	s := m.styles
	p := m.result.Params

	var b strings.Builder
	fmt.Fprintf(&b, "  %s %s", s.MetricLabel.Render("λ"), s.MetricValue.Render(fmt.Sprintf("%.2f W/m²/K", p.Lambda.Central)))
	if p.Feedback != nil {
		fmt.Fprintf(&b, "  %s", s.Subtle.Render(fmt.Sprintf("[%.2f, %.2f] %s", p.Lambda.Low, p.Lambda.High, p.Mode)))
	} else {
		b.WriteString("  " + s.Subtle.Render("fixed"))
	}
	fmt.Fprintf(&b, "  %s %s\n", s.MetricLabel.Render("γ"), s.MetricValue.Render(fmt.Sprintf("%.2f", p.Gamma)))
	if p.Runaway() {
		b.WriteString("  " + s.Warning.Render("non-negative lambda: no restoring feedback, warming diverges") + "\n")
	}
	return b.String()
}

func (m Explorer) viewSwitches() string {
	s := m.styles
	onOff := func(v bool) string {
		if v {
			return s.On.Render("on")
		}
		return s.Off.Render("off")
	}
	baseline := onOff(m.cfg.Baseline.Enabled)
	if m.cfg.Baseline.Enabled {
		baseline += s.Subtle.Render(fmt.Sprintf(" %d-%d", m.cfg.Baseline.From, m.cfg.Baseline.To))
	}
	return fmt.Sprintf("  %s %s  %s %s  %s %s\n",
		s.MetricLabel.Render("ocean"), onOff(m.cfg.OceanHeatUptake),
		s.MetricLabel.Render("baseline"), baseline,
		s.MetricLabel.Render("envelope"), onOff(m.cfg.Uncertainty),
	)
}

func (m Explorer) viewSubset(width int) string {
	s := m.styles
	sub := m.result.Subsets[m.subset]

	var b strings.Builder
	fmt.Fprintf(&b, "\n  %s %s %s\n",
		s.MetricLabel.Render("subset"),
		s.MetricValue.Render(sub.Name),
		s.Subtle.Render(fmt.Sprintf("(%d/%d) %s", m.subset+1, len(m.result.Subsets), strings.Join(sub.Categories, "+"))))
	if sub.EmptySelection {
		b.WriteString("  " + s.Warning.Render("empty selection, zero forcing") + "\n")
	}
	fmt.Fprintf(&b, "  %s %s\n\n", s.MetricLabel.Render("forcing"), s.Subtle.Render(Sparkline(sub.Forcing.Values, min(width-14, 60))))

	one := &experiment.Result{Params: m.result.Params, Subsets: []experiment.SubsetResult{sub}}
	opts := ChartOptions{
		Width:   min(max(width-axisWidth-2, minChartWidth), maxChartWidth),
		Height:  DefaultChartHeight,
		Caption: "surface anomaly (K)",
	}
	if m.height > 0 {
		opts.Height = min(max(m.height-24, 6), DefaultChartHeight)
	}
	for _, line := range strings.Split(AnomalyChart(one, m.obs, opts), "\n") {
		b.WriteString("  " + line + "\n")
	}

	b.WriteString("\n")
	for _, name := range metrics.Order {
		v, ok := sub.Central.Metrics[name]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "  %s %s\n", s.MetricLabel.Render(fmt.Sprintf("%-14s", name)), s.MetricValue.Render(fmt.Sprintf("%8.3f %s", v, metrics.Unit(name))))
	}
	return b.String()
}

func (m Explorer) hints() string {
	s := m.styles
	pairs := [][2]string{
		{"1-5", "feedback"},
		{"o", "ocean"},
		{"b", "baseline"},
		{"u", "envelope"},
		{"e", "mode"},
		{"tab", "subset"},
		{"t", "theme"},
		{"q", "quit"},
	}
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = s.Key.Render(p[0]) + s.KeyHint.Render(" "+p[1])
	}
	return strings.Join(parts, "  ")
}

// RunExplorer starts the explorer full screen.
func RunExplorer(m Explorer) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
