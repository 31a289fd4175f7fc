package physics

import "github.com/san-kum/twobox/internal/dynamo"

// TwoBox is the surface/deep-ocean energy balance model. State is
// {Ts, To}, the temperature anomalies in K of the mixed layer and the deep
// ocean. Control is {F}, the radiative forcing in W/m².
//
// Lambda is the climate feedback parameter and Gamma the ocean heat uptake
// coefficient, both in W/(m²·K). Lambda is negative for a stable climate.
// Gamma is negative in the usual convention: heat flows down while the
// surface is warmer than the deep ocean.
type TwoBox struct {
	Lambda float64
	Gamma  float64

	cmix  float64
	cdeep float64
}

func NewTwoBox(ocean Ocean, lambda, gamma float64) *TwoBox {
	return &TwoBox{
		Lambda: lambda,
		Gamma:  gamma,
		cmix:   ocean.CMix(),
		cdeep:  ocean.CDeep(),
	}
}

func (m *TwoBox) StateDim() int   { return 2 }
func (m *TwoBox) ControlDim() int { return 1 }

func (m *TwoBox) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	ts, to := x[0], x[1]

	f := 0.0
	if len(u) > 0 {
		f = u[0]
	}

	exchange := m.Gamma * (ts - to)
	return dynamo.State{
		(f + m.Lambda*ts + exchange) / m.cmix,
		-exchange / m.cdeep,
	}
}

// Imbalance is the net downward flux at the top of the atmosphere for
// surface anomaly ts under forcing f.
func (m *TwoBox) Imbalance(ts, f float64) float64 {
	return f + m.Lambda*ts
}

// EquilibriumWarming is the surface anomaly at which forcing f is balanced.
// It is +Inf or -Inf for a non-negative lambda.
func (m *TwoBox) EquilibriumWarming(f float64) float64 {
	return -f / m.Lambda
}
