package dynamo

import "math"

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Control is the external input applied to a System for one step. For the
// climate models it carries the radiative forcing in W/m².
type Control []float64

type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

// Integrator advances x by dt and writes the new state into dst.
// dst and x never alias.
type Integrator interface {
	Step(dyn System, dst, x State, u Control, t, dt float64)
}

// Driver supplies the control applied when stepping from sample step-1 to
// sample step.
type Driver interface {
	Compute(x State, step int) Control
}

type Metric interface {
	Name() string
	Observe(x State, u Control, step int)
	Value() float64
	Reset()
}

// MetricFactory builds a fresh set of metrics for one run. Runs executed in
// parallel each get their own observers.
type MetricFactory func() []Metric

type Config struct {
	Dt            float64
	Samples       int
	ValidateState bool
}

// SecondsPerJulianYear is 365.25 days.
const SecondsPerJulianYear = 365.25 * 24 * 60 * 60

// Trajectory is a row-major buffer of Samples states of Dim values each.
type Trajectory struct {
	Dim  int
	Data []float64
}

func NewTrajectory(samples, dim int) *Trajectory {
	return &Trajectory{Dim: dim, Data: make([]float64, samples*dim)}
}

func (tr *Trajectory) Len() int {
	if tr.Dim == 0 {
		return 0
	}
	return len(tr.Data) / tr.Dim
}

// At returns a view of sample i. Writes through the view modify the buffer.
func (tr *Trajectory) At(i int) State {
	return State(tr.Data[i*tr.Dim : (i+1)*tr.Dim : (i+1)*tr.Dim])
}

// Column copies component k of every sample into a new slice.
func (tr *Trajectory) Column(k int) []float64 {
	n := tr.Len()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = tr.Data[i*tr.Dim+k]
	}
	return out
}

type Result struct {
	Trajectory *Trajectory
	Metrics    map[string]float64
	StepsTaken int
	Errors     []error
}
