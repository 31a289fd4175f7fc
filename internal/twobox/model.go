package twobox

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/san-kum/twobox/internal/dynamo"
	"github.com/san-kum/twobox/internal/forcing"
	"github.com/san-kum/twobox/internal/integrators"
	"github.com/san-kum/twobox/internal/metrics"
	"github.com/san-kum/twobox/internal/physics"
)

var (
	// ErrInvalidInput is returned for empty, gapped or non-finite forcing.
	ErrInvalidInput = forcing.ErrInvalidInput

	ErrBaselineWindow = errors.New("twobox: baseline window does not overlap the series")
	ErrNoOverlap      = errors.New("twobox: no years in common with the observations")
)

// MetricSet builds the observers for one run of sys. Warming metrics are
// measured from ref.
type MetricSet func(sys *physics.TwoBox, ref dynamo.State) []dynamo.Metric

type Model struct {
	ocean   physics.Ocean
	metrics MetricSet
	strict  bool
}

type Option func(*Model)

// WithMetrics replaces the standard metric set. nil disables metrics.
func WithMetrics(ms MetricSet) Option {
	return func(m *Model) { m.metrics = ms }
}

// WithStrict stops a run at the first NaN or Inf state and reports it as a
// [dynamo.SimulationError] instead of returning the diverged series.
func WithStrict(strict bool) Option {
	return func(m *Model) { m.strict = strict }
}

func New(ocean physics.Ocean, opts ...Option) (*Model, error) {
	if err := ocean.Validate(); err != nil {
		return nil, err
	}
	m := &Model{ocean: ocean, metrics: metrics.Standard}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *Model) Ocean() physics.Ocean { return m.ocean }

// seriesDriver feeds F[step] into the step that produces sample step.
type seriesDriver struct {
	values []float64
}

func (d seriesDriver) Compute(x dynamo.State, step int) dynamo.Control {
	return dynamo.Control{d.values[step]}
}

func (m *Model) member(s forcing.Series, lambda, gamma float64) dynamo.Member {
	sys := physics.NewTwoBox(m.ocean, lambda, gamma)
	member := dynamo.Member{
		System: sys,
		Driver: seriesDriver{values: s.Values},
		X0:     dynamo.State{0, 0},
	}
	if m.metrics != nil {
		ms := m.metrics
		member.Metrics = func() []dynamo.Metric { return ms(sys, nil) }
	}
	return member
}

func (m *Model) config(s forcing.Series) dynamo.Config {
	return dynamo.Config{Dt: m.ocean.SecondsPerYear, Samples: s.Len(), ValidateState: m.strict}
}

// firstError returns the state error a strict run stopped on.
func firstError(res *dynamo.Result) error {
	if len(res.Errors) > 0 {
		return res.Errors[0]
	}
	return nil
}

// Integrate runs the model over s. Degenerate parameters such as a
// non-negative lambda are integrated as given and may diverge.
func (m *Model) Integrate(s forcing.Series, lambda, gamma float64) (*Anomaly, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	mb := m.member(s, lambda, gamma)
	sim := dynamo.New(mb.System, integrators.NewEuler(), mb.Driver)
	if mb.Metrics != nil {
		for _, metric := range mb.Metrics() {
			sim.AddMetric(metric)
		}
	}

	res, err := sim.Run(context.Background(), mb.X0, m.config(s))
	if err == nil {
		err = firstError(res)
	}
	if err != nil {
		return nil, fmt.Errorf("integrate: %w", err)
	}

	return newAnomaly(s, lambda, gamma, res), nil
}

func newAnomaly(s forcing.Series, lambda, gamma float64, res *dynamo.Result) *Anomaly {
	return &Anomaly{
		Years:   slices.Clone(s.Years),
		Forcing: slices.Clone(s.Values),
		Ts:      res.Trajectory.Column(0),
		To:      res.Trajectory.Column(1),
		Lambda:  lambda,
		Gamma:   gamma,
		Metrics: res.Metrics,
	}
}

// Measure evaluates the metric set over the samples of a as they stand
// after any rebaseline or window, so the values match what is displayed.
// Metrics that need absolute temperatures, such as the imbalance, see the
// state before the baseline shift.
func (m *Model) Measure(a *Anomaly) map[string]float64 {
	out := make(map[string]float64)
	if m.metrics == nil {
		return out
	}

	sys := physics.NewTwoBox(m.ocean, a.Lambda, a.Gamma)
	set := m.metrics(sys, dynamo.State{a.Offset[0], a.Offset[1]})
	for _, metric := range set {
		metric.Reset()
	}

	x := make(dynamo.State, 2)
	for i := range a.Ts {
		x[0], x[1] = a.Ts[i]+a.Offset[0], a.To[i]+a.Offset[1]
		u := dynamo.Control{a.Forcing[i]}
		for _, metric := range set {
			metric.Observe(x, u, i)
		}
	}

	for _, metric := range set {
		out[metric.Name()] = metric.Value()
	}
	return out
}
