package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/san-kum/twobox/internal/config"
	"github.com/san-kum/twobox/internal/feedback"
	"github.com/san-kum/twobox/internal/optim"
)

// parseSubset reads name=cat1+cat2. Without a name the categories name the
// subset. An empty category list is kept and runs with zero forcing.
func parseSubset(s string) config.Subset {
	name, cats, ok := strings.Cut(s, "=")
	if !ok {
		cats = s
	}
	name, cats = strings.TrimSpace(name), strings.TrimSpace(cats)

	categories := make([]string, 0)
	for _, c := range strings.Split(cats, "+") {
		if c = strings.TrimSpace(c); c != "" {
			categories = append(categories, c)
		}
	}
	return config.Subset{Name: name, Categories: categories}
}

// parseRange reads from:to. Either side may be empty for an open bound.
func parseRange(s string) (from, to int, err error) {
	lo, hi, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("%q: expected from:to", s)
	}
	if from, err = parseYear(lo); err != nil {
		return 0, 0, err
	}
	if to, err = parseYear(hi); err != nil {
		return 0, 0, err
	}
	if from != 0 && to != 0 && from > to {
		return 0, 0, fmt.Errorf("%q: from is after to", s)
	}
	return from, to, nil
}

func parseYear(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	y, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("year %q: %w", s, err)
	}
	return y, nil
}

// parseBaseline reads from:to or off. Both years are required.
func parseBaseline(s string) (config.BaselineConfig, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "off", "none", "false":
		return config.BaselineConfig{From: config.DefaultBaselineFrom, To: config.DefaultBaselineTo}, nil
	case "on", "true":
		return config.BaselineConfig{Enabled: true, From: config.DefaultBaselineFrom, To: config.DefaultBaselineTo}, nil
	}
	from, to, err := parseRange(s)
	if err != nil {
		return config.BaselineConfig{}, fmt.Errorf("baseline: %w", err)
	}
	if from == 0 || to == 0 {
		return config.BaselineConfig{}, fmt.Errorf("baseline %q: both years are required", s)
	}
	return config.BaselineConfig{Enabled: true, From: from, To: to}, nil
}

// enabledList turns a mask into the config form: nil for all, otherwise the
// enabled names in table order. Unknown names are kept so validation can
// report them.
func enabledList(mask feedback.Mask, components []feedback.Component) []string {
	if mask == nil {
		return nil
	}
	out := make([]string, 0, len(mask))
	for _, c := range components {
		if mask[c.Name] {
			out = append(out, c.Name)
		}
	}
	for name, on := range mask {
		if _, ok := feedback.Lookup(components, name); on && !ok {
			out = append(out, name)
		}
	}
	return out
}

// parseGrid reads lo:hi:n into n evenly spaced values.
func parseGrid(s string) ([]float64, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%q: expected lo:hi:n", s)
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", s, err)
	}
	hi, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", s, err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil || n < 1 {
		return nil, fmt.Errorf("%q: point count must be a positive integer", s)
	}
	return optim.Linspace(lo, hi, n), nil
}
