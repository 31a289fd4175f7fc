package integrators

import "github.com/san-kum/twobox/internal/dynamo"

// Euler is the explicit forward Euler method. It is the only scheme the
// two-box model is defined with; results depend on it step for step.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn dynamo.System, dst, x dynamo.State, u dynamo.Control, t float64, dt float64) {
	dx := dyn.Derive(x, u, t)
	for i := range x {
		dst[i] = x[i] + dt*dx[i]
	}
}
