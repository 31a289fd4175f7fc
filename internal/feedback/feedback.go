// Package feedback combines named climate feedback terms into the net
// feedback parameter lambda and its uncertainty range.
package feedback

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
)

var (
	ErrUnknownComponent = errors.New("feedback: unknown component")
	ErrInvalidComponent = errors.New("feedback: invalid component")
	ErrUnknownMode      = errors.New("feedback: unknown envelope mode")
)

type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Component is one feedback mechanism in W/(m²·K). Low and High bound the
// one-sigma range around Central.
type Component struct {
	Name       string     `yaml:"name" json:"name"`
	Label      string     `yaml:"label,omitempty" json:"label,omitempty"`
	Central    float64    `yaml:"central" json:"central"`
	Low        float64    `yaml:"low" json:"low"`
	High       float64    `yaml:"high" json:"high"`
	Confidence Confidence `yaml:"confidence,omitempty" json:"confidence,omitempty"`
}

const (
	Planck     = "planck"
	WaterVapor = "water_vapor"
	LapseRate  = "lapse_rate"
	Albedo     = "albedo"
	Cloud      = "cloud"
)

// DefaultComponents returns a fresh copy of the five standard feedbacks.
func DefaultComponents() []Component {
	return []Component{
		{Name: Planck, Label: "Planck", Central: -3.22, Low: -3.4, High: -3.0, Confidence: ConfidenceHigh},
		{Name: WaterVapor, Label: "Water vapour", Central: 1.77, Low: 1.57, High: 1.97, Confidence: ConfidenceHigh},
		{Name: LapseRate, Label: "Lapse rate", Central: -0.5, Low: -0.7, High: -0.3, Confidence: ConfidenceHigh},
		{Name: Albedo, Label: "Surface albedo", Central: 0.35, Low: 0.1, High: 0.6, Confidence: ConfidenceMedium},
		{Name: Cloud, Label: "Clouds", Central: 0.42, Low: -0.1, High: 0.94, Confidence: ConfidenceHigh},
	}
}

// Names lists component names in order.
func Names(components []Component) []string {
	names := make([]string, len(components))
	for i, c := range components {
		names[i] = c.Name
	}
	return names
}

func Lookup(components []Component, name string) (Component, bool) {
	for _, c := range components {
		if c.Name == name {
			return c, true
		}
	}
	return Component{}, false
}

// Validate rejects unnamed or duplicate components and bounds that do not
// bracket the central value.
func Validate(components []Component) error {
	seen := make(map[string]bool, len(components))
	for _, c := range components {
		if c.Name == "" {
			return fmt.Errorf("%w: missing name", ErrInvalidComponent)
		}
		if seen[c.Name] {
			return fmt.Errorf("%w: duplicate %q", ErrInvalidComponent, c.Name)
		}
		seen[c.Name] = true
		if c.Low > c.Central || c.High < c.Central {
			return fmt.Errorf("%w: %s range [%g, %g] excludes central %g", ErrInvalidComponent, c.Name, c.Low, c.High, c.Central)
		}
	}
	return nil
}

// Override replaces components of base that share a name with one of
// overrides and appends the rest. base is not modified.
func Override(base, overrides []Component) []Component {
	out := slices.Clone(base)
	for _, o := range overrides {
		idx := slices.IndexFunc(out, func(c Component) bool { return c.Name == o.Name })
		if idx < 0 {
			out = append(out, o)
			continue
		}
		if o.Label == "" {
			o.Label = out[idx].Label
		}
		if o.Confidence == "" {
			o.Confidence = out[idx].Confidence
		}
		out[idx] = o
	}
	return out
}

// Mask is the set of enabled component names. A nil Mask enables every
// component; an empty non-nil Mask enables none.
type Mask map[string]bool

func MaskOf(names ...string) Mask {
	m := make(Mask, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// ParseMask reads a comma separated list of names. "all" yields a nil
// Mask and an empty string yields an empty one.
func ParseMask(s string) Mask {
	s = strings.TrimSpace(s)
	if s == "all" {
		return nil
	}
	m := Mask{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			m[part] = true
		}
	}
	return m
}

func (m Mask) Enabled(name string) bool {
	if m == nil {
		return true
	}
	return m[name]
}

// Toggle returns a copy of m with name flipped.
func (m Mask) Toggle(components []Component, name string) Mask {
	out := make(Mask, len(components))
	for _, c := range components {
		if m.Enabled(c.Name) {
			out[c.Name] = true
		}
	}
	if out[name] {
		delete(out, name)
	} else {
		out[name] = true
	}
	return out
}

func (m Mask) check(components []Component) error {
	for name, on := range m {
		if !on {
			continue
		}
		if _, ok := Lookup(components, name); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownComponent, name)
		}
	}
	return nil
}

// Aggregate is the combined feedback of the enabled components.
//
// Min and Max are the literal sums of the per-component bounds. Std is the
// root-sum-square of the upper half-ranges and is not used to build Min or
// Max; Range lets the caller pick which of the two envelopes to use.
type Aggregate struct {
	Sum     float64  `json:"sum"`
	Min     float64  `json:"min"`
	Max     float64  `json:"max"`
	Std     float64  `json:"std"`
	Enabled []string `json:"enabled"`
}

func Combine(components []Component, mask Mask) (Aggregate, error) {
	if err := mask.check(components); err != nil {
		return Aggregate{}, err
	}

	agg := Aggregate{Enabled: make([]string, 0, len(components))}
	var variance float64
	for _, c := range components {
		if !mask.Enabled(c.Name) {
			continue
		}
		agg.Sum += c.Central
		agg.Min += c.Low
		agg.Max += c.High
		half := (c.High - c.Central) / 2
		variance += half * half
		agg.Enabled = append(agg.Enabled, c.Name)
	}
	agg.Std = math.Sqrt(variance)

	return agg, nil
}

// Runaway reports whether any lambda in the bounds envelope is
// non-negative, i.e. the model has no restoring feedback.
func (a Aggregate) Runaway() bool {
	return a.Sum >= 0 || a.Max >= 0
}

type Mode string

const (
	ModeBounds Mode = "bounds"
	ModeRSS    Mode = "rss"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeBounds:
		return ModeBounds, nil
	case ModeRSS:
		return ModeRSS, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Range returns the low and high lambda of the envelope. ModeBounds gives
// Min and Max, ModeRSS gives Sum ∓ Std.
func (a Aggregate) Range(mode Mode) (lo, hi float64) {
	if mode == ModeRSS {
		return a.Sum - a.Std, a.Sum + a.Std
	}
	return a.Min, a.Max
}
