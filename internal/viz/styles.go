package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles are the lipgloss styles derived from a Theme.
type Styles struct {
	Title       lipgloss.Style
	Subtle      lipgloss.Style
	Header      lipgloss.Style
	Panel       lipgloss.Style
	MetricLabel lipgloss.Style
	MetricValue lipgloss.Style
	KeyHint     lipgloss.Style
	Key         lipgloss.Style
	On          lipgloss.Style
	Off         lipgloss.Style
	Warning     lipgloss.Style
	Error       lipgloss.Style
}

func NewStyles(t Theme) Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Subtle: lipgloss.NewStyle().Foreground(t.Muted),
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Text).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(t.Muted),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Muted).
			Padding(0, 1),
		MetricLabel: lipgloss.NewStyle().Foreground(t.Muted),
		MetricValue: lipgloss.NewStyle().Bold(true).Foreground(t.Secondary),
		KeyHint:     lipgloss.NewStyle().Italic(true).Foreground(t.Muted),
		Key:         lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		On:          lipgloss.NewStyle().Bold(true).Foreground(t.Success),
		Off:         lipgloss.NewStyle().Foreground(t.Muted),
		Warning:     lipgloss.NewStyle().Bold(true).Foreground(t.Warning),
		Error:       lipgloss.NewStyle().Bold(true).Foreground(t.Error),
	}
}

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders values as a one-line bar chart of at most width cells.
func Sparkline(values []float64, width int) string {
	if width <= 0 {
		return ""
	}
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	step := max(len(values)/width, 1)
	var b strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - lo) / rng
		idx := int(norm * float64(len(sparkChars)-1))
		idx = min(max(idx, 0), len(sparkChars)-1)
		b.WriteRune(sparkChars[idx])
	}
	return b.String()
}

// Separator is a muted horizontal rule.
func (s Styles) Separator(width int) string {
	mid := width / 2
	if mid < 3 {
		return s.Subtle.Render(strings.Repeat("─", max(width, 0)))
	}
	return s.Subtle.Render(strings.Repeat("─", mid-3) + " ◆ " + strings.Repeat("─", max(width-mid-3, 0)))
}
