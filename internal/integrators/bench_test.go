package integrators

import (
	"testing"

	"github.com/san-kum/twobox/internal/dynamo"
)

type benchDynamics struct{}

func (b *benchDynamics) StateDim() int   { return 2 }
func (b *benchDynamics) ControlDim() int { return 1 }
func (b *benchDynamics) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{u[0] - 1.3*x[0] - 0.7*(x[0]-x[1]), 0.05 * (x[0] - x[1])}
}

func BenchmarkEuler(b *testing.B) {
	integrator := NewEuler()
	dyn := &benchDynamics{}
	x := dynamo.State{0.0, 0.0}
	next := make(dynamo.State, 2)
	u := dynamo.Control{1.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		integrator.Step(dyn, next, x, u, 0, 0.01)
		x, next = next, x
	}
}
