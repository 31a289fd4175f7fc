package viz

import "github.com/charmbracelet/lipgloss"

// Theme defines the color scheme of the explorer.
type Theme struct {
	Name      string
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Text      lipgloss.Color
	Muted     lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
}

func themes() []Theme {
	return []Theme{
		{
			Name:      "ocean",
			Primary:   lipgloss.Color("#00a8cc"),
			Secondary: lipgloss.Color("#0077be"),
			Accent:    lipgloss.Color("#ffd700"),
			Text:      lipgloss.Color("#e0f0ff"),
			Muted:     lipgloss.Color("#4488aa"),
			Success:   lipgloss.Color("#00ff88"),
			Warning:   lipgloss.Color("#ffcc00"),
			Error:     lipgloss.Color("#ff4444"),
		},
		{
			Name:      "cyberpunk",
			Primary:   lipgloss.Color("#00ffff"),
			Secondary: lipgloss.Color("#ff00ff"),
			Accent:    lipgloss.Color("#ffff00"),
			Text:      lipgloss.Color("#ffffff"),
			Muted:     lipgloss.Color("#666666"),
			Success:   lipgloss.Color("#00ff00"),
			Warning:   lipgloss.Color("#ff8800"),
			Error:     lipgloss.Color("#ff0000"),
		},
		{
			Name:      "minimal",
			Primary:   lipgloss.Color("#ffffff"),
			Secondary: lipgloss.Color("#cccccc"),
			Accent:    lipgloss.Color("#0088ff"),
			Text:      lipgloss.Color("#ffffff"),
			Muted:     lipgloss.Color("#888888"),
			Success:   lipgloss.Color("#00ff00"),
			Warning:   lipgloss.Color("#ffaa00"),
			Error:     lipgloss.Color("#ff0000"),
		},
	}
}

// DefaultTheme is the first built-in theme.
func DefaultTheme() Theme { return themes()[0] }

// GetTheme returns a theme by name, falling back to the default.
func GetTheme(name string) Theme {
	for _, t := range themes() {
		if t.Name == name {
			return t
		}
	}
	return DefaultTheme()
}

func ThemeNames() []string {
	ts := themes()
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = t.Name
	}
	return names
}

// nextTheme returns the theme after current, wrapping around.
func nextTheme(current Theme) Theme {
	ts := themes()
	for i, t := range ts {
		if t.Name == current.Name {
			return ts[(i+1)%len(ts)]
		}
	}
	return ts[0]
}
