package metrics

import (
	"math"

	"github.com/san-kum/twobox/internal/dynamo"
	"github.com/san-kum/twobox/internal/physics"
)

const (
	NameFinalWarming = "final_warming"
	NamePeakWarming  = "peak_warming"
	NameDeepWarming  = "deep_warming"
	NameEquilibrium  = "equilibrium_warming"
	NameMeanForcing  = "mean_forcing"
	NameImbalance    = "toa_imbalance"
	NameStability    = "stability"
)

// Final records one state component after the last step, measured from
// ref.
type Final struct {
	name      string
	component int
	ref       float64
	last      float64
}

func NewFinal(name string, component int, ref float64) *Final {
	return &Final{name: name, component: component, ref: ref}
}

func (f *Final) Name() string { return f.name }

func (f *Final) Observe(x dynamo.State, u dynamo.Control, step int) {
	f.last = x[f.component] - f.ref
}

func (f *Final) Value() float64 { return f.last }
func (f *Final) Reset()         { f.last = 0 }

// Peak is the largest value a state component reaches, measured from ref.
// It is zero until something has been observed.
type Peak struct {
	name      string
	component int
	ref       float64
	max       float64
	seen      bool
}

func NewPeak(name string, component int, ref float64) *Peak {
	return &Peak{name: name, component: component, ref: ref}
}

func (p *Peak) Name() string { return p.name }

func (p *Peak) Observe(x dynamo.State, u dynamo.Control, step int) {
	v := x[p.component] - p.ref
	if !p.seen || v > p.max || math.IsNaN(v) {
		p.max = v
	}
	p.seen = true
}

func (p *Peak) Value() float64 { return p.max }

func (p *Peak) Reset() {
	p.max = 0
	p.seen = false
}

// Standard returns the metric set reported for every two-box run of sys.
// The warming metrics are measured from ref, the state the displayed
// anomaly is relative to; nil means the state at rest.
func Standard(sys *physics.TwoBox, ref dynamo.State) []dynamo.Metric {
	ts, to := 0.0, 0.0
	if len(ref) == 2 {
		ts, to = ref[0], ref[1]
	}
	return []dynamo.Metric{
		NewFinal(NameFinalWarming, 0, ts),
		NewPeak(NamePeakWarming, 0, ts),
		NewFinal(NameDeepWarming, 1, to),
		NewEquilibrium(sys, ts),
		NewMeanForcing(),
		NewImbalance(sys),
		NewStability(DefaultStabilityBound),
	}
}

// Order is the display order of the standard metrics.
var Order = []string{
	NameFinalWarming,
	NamePeakWarming,
	NameDeepWarming,
	NameEquilibrium,
	NameMeanForcing,
	NameImbalance,
	NameStability,
}

// Unit returns the display unit of a standard metric.
func Unit(name string) string {
	switch name {
	case NameFinalWarming, NamePeakWarming, NameDeepWarming, NameEquilibrium:
		return "K"
	case NameMeanForcing, NameImbalance:
		return "W/m²"
	}
	return ""
}
