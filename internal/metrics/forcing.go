package metrics

import (
	"github.com/san-kum/twobox/internal/dynamo"
	"github.com/san-kum/twobox/internal/physics"
)

// MeanForcing averages the applied forcing over all steps.
type MeanForcing struct {
	name    string
	sum     float64
	samples int
}

func NewMeanForcing() *MeanForcing {
	return &MeanForcing{
		name: NameMeanForcing,
	}
}

func (m *MeanForcing) Name() string {
	return m.name
}

func (m *MeanForcing) Observe(x dynamo.State, u dynamo.Control, step int) {
	m.sum += forcingOf(u)
	m.samples++
}

func (m *MeanForcing) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanForcing) Reset() {
	m.sum = 0
	m.samples = 0
}

// Imbalance is the top-of-atmosphere imbalance of sys after the last
// step, in W/m². It needs the state before any baseline shift.
type Imbalance struct {
	name string
	sys  *physics.TwoBox
	last float64
}

func NewImbalance(sys *physics.TwoBox) *Imbalance {
	return &Imbalance{name: NameImbalance, sys: sys}
}

func (m *Imbalance) Name() string { return m.name }

func (m *Imbalance) Observe(x dynamo.State, u dynamo.Control, step int) {
	m.last = m.sys.Imbalance(x[0], forcingOf(u))
}

func (m *Imbalance) Value() float64 { return m.last }
func (m *Imbalance) Reset()         { m.last = 0 }

// Equilibrium is the surface anomaly, measured from ref, at which the mean
// forcing observed so far would be balanced. A non-negative lambda has no
// finite equilibrium.
type Equilibrium struct {
	sys  *physics.TwoBox
	ref  float64
	mean MeanForcing
}

func NewEquilibrium(sys *physics.TwoBox, ref float64) *Equilibrium {
	return &Equilibrium{sys: sys, ref: ref}
}

func (m *Equilibrium) Name() string { return NameEquilibrium }

func (m *Equilibrium) Observe(x dynamo.State, u dynamo.Control, step int) {
	m.mean.Observe(x, u, step)
}

func (m *Equilibrium) Value() float64 {
	return m.sys.EquilibriumWarming(m.mean.Value()) - m.ref
}

func (m *Equilibrium) Reset() { m.mean.Reset() }

func forcingOf(u dynamo.Control) float64 {
	if len(u) > 0 {
		return u[0]
	}
	return 0
}
