package twobox

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/twobox/internal/dynamo"
	"github.com/san-kum/twobox/internal/feedback"
	"github.com/san-kum/twobox/internal/forcing"
	"github.com/san-kum/twobox/internal/integrators"
)

// Lambdas are the three feedback values of an envelope.
type Lambdas struct {
	Central float64
	Low     float64
	High    float64
}

// LambdasFrom picks the envelope range of agg for mode.
func LambdasFrom(agg feedback.Aggregate, mode feedback.Mode) Lambdas {
	lo, hi := agg.Range(mode)
	return Lambdas{Central: agg.Sum, Low: lo, High: hi}
}

// Envelope holds one run per lambda plus the pointwise spread of their
// surface anomalies.
type Envelope struct {
	Central *Anomaly
	AtLow   *Anomaly
	AtHigh  *Anomaly
	Lower   []float64
	Upper   []float64
}

// Envelope runs the model for the three lambdas concurrently with the same
// gamma.
func (m *Model) Envelope(ctx context.Context, s forcing.Series, l Lambdas, gamma float64) (*Envelope, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	members := []dynamo.Member{
		m.member(s, l.Central, gamma),
		m.member(s, l.Low, gamma),
		m.member(s, l.High, gamma),
	}

	ens := dynamo.NewEnsemble(func() dynamo.Integrator { return integrators.NewEuler() }, nil, len(members))
	results, err := ens.Run(ctx, members, m.config(s))
	if err != nil {
		return nil, fmt.Errorf("envelope: %w", err)
	}
	for i, res := range results {
		if err := firstError(res); err != nil {
			return nil, fmt.Errorf("envelope run %d: %w", i, err)
		}
	}

	return assemble(
		newAnomaly(s, l.Central, gamma, results[0]),
		newAnomaly(s, l.Low, gamma, results[1]),
		newAnomaly(s, l.High, gamma, results[2]),
	), nil
}

func assemble(central, low, high *Anomaly) *Envelope {
	env := &Envelope{
		Central: central,
		AtLow:   low,
		AtHigh:  high,
		Lower:   make([]float64, central.Len()),
		Upper:   make([]float64, central.Len()),
	}
	for i := range env.Lower {
		env.Lower[i] = math.Min(central.Ts[i], math.Min(low.Ts[i], high.Ts[i]))
		env.Upper[i] = math.Max(central.Ts[i], math.Max(low.Ts[i], high.Ts[i]))
	}
	return env
}

// Rebaseline shifts each run onto [from, to] independently.
func (e *Envelope) Rebaseline(from, to int) (*Envelope, error) {
	runs := make([]*Anomaly, 3)
	for i, a := range []*Anomaly{e.Central, e.AtLow, e.AtHigh} {
		r, err := a.Rebaseline(from, to)
		if err != nil {
			return nil, err
		}
		runs[i] = r
	}
	return assemble(runs[0], runs[1], runs[2]), nil
}

func (e *Envelope) Window(from, to int) *Envelope {
	return assemble(e.Central.Window(from, to), e.AtLow.Window(from, to), e.AtHigh.Window(from, to))
}
