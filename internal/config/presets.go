package config

import (
	"slices"

	"github.com/san-kum/twobox/internal/forcing"
)

// Preset adjusts a default configuration.
type Preset struct {
	Description string
	apply       func(*Config)
}

func presets() map[string]Preset {
	return map[string]Preset{
		"giss": {
			Description: "fixed lambda, all historical drivers, 1951-1980 baseline",
			apply: func(c *Config) {
				c.Lambda = LambdaConfig{Source: LambdaFixed, Value: DefaultLambda}
				c.Baseline = BaselineConfig{Enabled: true, From: 1951, To: 1980}
			},
		},
		"drivers": {
			Description: "historical drivers with a fixed lambda, no baseline",
			apply: func(c *Config) {
				c.Lambda = LambdaConfig{Source: LambdaFixed, Value: DefaultLambda}
				c.Subsets = []Subset{
					{Name: "all", Categories: []string{forcing.AllCategories}},
				}
			},
		},
		"feedback": {
			Description: "lambda from feedback components, 1986-2005 baseline",
			apply: func(c *Config) {
				c.Lambda.Source = LambdaFromFeedback
				c.Baseline = BaselineConfig{Enabled: true, From: DefaultBaselineFrom, To: DefaultBaselineTo}
			},
		},
		"future": {
			Description: "scenario table, feedback envelope, 1850-2100",
			apply: func(c *Config) {
				c.Forcing = "data/futureForcing_IPCC6.csv"
				c.Scenario = true
				c.Subsets = nil
				c.Lambda.Source = LambdaFromFeedback
				c.Uncertainty = true
				c.Baseline.Enabled = false
				c.Window = WindowConfig{From: 1850, To: 2100}
			},
		},
	}
}

// GetPreset returns a fresh default configuration with the named preset
// applied, or nil if there is no such preset.
func GetPreset(name string) *Config {
	p, ok := presets()[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	p.apply(cfg)
	return cfg
}

func PresetDescription(name string) string {
	return presets()[name].Description
}

func ListPresets() []string {
	ps := presets()
	names := make([]string, 0, len(ps))
	for name := range ps {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
