package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/twobox/internal/feedback"
	"github.com/san-kum/twobox/internal/forcing"
	"github.com/san-kum/twobox/internal/physics"
)

const (
	DefaultForcing      = "data/historical_IPCC6.csv"
	DefaultObservations = "data/graph.csv"
	DefaultLambda       = -1.3
	DefaultGamma        = -0.69
	DefaultBaselineFrom = 1986
	DefaultBaselineTo   = 2005

	LambdaFromFeedback = "feedback"
	LambdaFixed        = "fixed"
)

var ErrInvalidConfig = errors.New("config: invalid")

type Config struct {
	Forcing         string         `yaml:"forcing"`
	Observations    string         `yaml:"observations,omitempty"`
	Subsets         []Subset       `yaml:"subsets"`
	Scenario        bool           `yaml:"scenario"`
	Lambda          LambdaConfig   `yaml:"lambda"`
	Feedback        FeedbackConfig `yaml:"feedback"`
	OceanHeatUptake bool           `yaml:"ocean_heat_uptake"`
	Gamma           float64        `yaml:"gamma"`
	Uncertainty     bool           `yaml:"uncertainty"`
	Baseline        BaselineConfig `yaml:"baseline"`
	Window          WindowConfig   `yaml:"window"`
	Ocean           physics.Ocean  `yaml:"ocean"`
	// Strict turns a run that reaches NaN or Inf into an error.
	Strict bool `yaml:"strict,omitempty"`
}

// Subset is a named selection of forcing categories that is summed and
// run on its own. forcing.AllCategories selects every column.
type Subset struct {
	Name       string   `yaml:"name"`
	Categories []string `yaml:"categories"`
}

type LambdaConfig struct {
	Source string  `yaml:"source"`
	Value  float64 `yaml:"value"`
}

type FeedbackConfig struct {
	Enabled    []string             `yaml:"enabled"`
	Components []feedback.Component `yaml:"components,omitempty"`
	Envelope   string               `yaml:"envelope"`
}

type BaselineConfig struct {
	Enabled bool `yaml:"enabled"`
	From    int  `yaml:"from"`
	To      int  `yaml:"to"`
}

// WindowConfig limits the displayed years. Zero bounds are open.
type WindowConfig struct {
	From int `yaml:"from"`
	To   int `yaml:"to"`
}

func DefaultConfig() *Config {
	return &Config{
		Forcing:      DefaultForcing,
		Observations: DefaultObservations,
		Subsets: []Subset{
			{Name: "all", Categories: []string{forcing.AllCategories}},
		},
		Lambda: LambdaConfig{
			Source: LambdaFromFeedback,
			Value:  DefaultLambda,
		},
		Feedback: FeedbackConfig{
			Enabled:  feedback.Names(feedback.DefaultComponents()),
			Envelope: string(feedback.ModeBounds),
		},
		OceanHeatUptake: true,
		Gamma:           DefaultGamma,
		Baseline: BaselineConfig{
			From: DefaultBaselineFrom,
			To:   DefaultBaselineTo,
		},
		Ocean: physics.DefaultOcean(),
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Forcing == "" {
		return fmt.Errorf("%w: forcing path is empty", ErrInvalidConfig)
	}
	if c.Lambda.Source != LambdaFromFeedback && c.Lambda.Source != LambdaFixed {
		return fmt.Errorf("%w: lambda source %q", ErrInvalidConfig, c.Lambda.Source)
	}
	if _, err := feedback.ParseMode(c.Feedback.Envelope); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := feedback.Validate(c.Components()); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Baseline.Enabled && c.Baseline.From > c.Baseline.To {
		return fmt.Errorf("%w: baseline %d-%d is inverted", ErrInvalidConfig, c.Baseline.From, c.Baseline.To)
	}
	if c.Window.From != 0 && c.Window.To != 0 && c.Window.From > c.Window.To {
		return fmt.Errorf("%w: window %d-%d is inverted", ErrInvalidConfig, c.Window.From, c.Window.To)
	}
	if err := c.Ocean.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	seen := make(map[string]bool, len(c.Subsets))
	for _, s := range c.Subsets {
		if s.Name == "" {
			return fmt.Errorf("%w: subset without a name", ErrInvalidConfig)
		}
		if seen[s.Name] {
			return fmt.Errorf("%w: duplicate subset %q", ErrInvalidConfig, s.Name)
		}
		seen[s.Name] = true
	}
	if len(c.Subsets) == 0 && !c.Scenario {
		return fmt.Errorf("%w: no subsets", ErrInvalidConfig)
	}
	return nil
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	out := *c
	out.Subsets = make([]Subset, len(c.Subsets))
	for i, s := range c.Subsets {
		out.Subsets[i] = Subset{Name: s.Name, Categories: slices.Clone(s.Categories)}
	}
	if c.Subsets == nil {
		out.Subsets = nil
	}
	out.Feedback.Enabled = slices.Clone(c.Feedback.Enabled)
	out.Feedback.Components = slices.Clone(c.Feedback.Components)
	return &out
}

// Components is the default feedback table with the configured overrides
// applied.
func (c *Config) Components() []feedback.Component {
	return feedback.Override(feedback.DefaultComponents(), c.Feedback.Components)
}

// Mask returns the enabled feedback set. An absent list enables all.
func (c *Config) Mask() feedback.Mask {
	if c.Feedback.Enabled == nil {
		return nil
	}
	return feedback.MaskOf(c.Feedback.Enabled...)
}

func (c *Config) EnvelopeMode() feedback.Mode {
	mode, err := feedback.ParseMode(c.Feedback.Envelope)
	if err != nil {
		return feedback.ModeBounds
	}
	return mode
}

// EffectiveGamma is Gamma, or zero with ocean heat uptake switched off.
func (c *Config) EffectiveGamma() float64 {
	if !c.OceanHeatUptake {
		return 0
	}
	return c.Gamma
}
