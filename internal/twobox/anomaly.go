package twobox

import (
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/san-kum/twobox/internal/forcing"
)

// Anomaly is the model response to one forcing series. Ts and To are in K
// and line up with Years. Offset is what rebaselining has subtracted from
// Ts and To so far.
type Anomaly struct {
	Years   []int
	Forcing []float64
	Ts      []float64
	To      []float64
	Lambda  float64
	Gamma   float64
	Offset  [2]float64
	Metrics map[string]float64
}

func (a *Anomaly) Len() int { return len(a.Years) }

// At returns the anomalies for year.
func (a *Anomaly) At(year int) (ts, to float64, ok bool) {
	i := slices.Index(a.Years, year)
	if i < 0 {
		return 0, 0, false
	}
	return a.Ts[i], a.To[i], true
}

func (a *Anomaly) clone() *Anomaly {
	return &Anomaly{
		Years:   slices.Clone(a.Years),
		Forcing: slices.Clone(a.Forcing),
		Ts:      slices.Clone(a.Ts),
		To:      slices.Clone(a.To),
		Lambda:  a.Lambda,
		Gamma:   a.Gamma,
		Offset:  a.Offset,
		Metrics: maps.Clone(a.Metrics),
	}
}

// BaselineMeans returns the mean Ts and To over the years of a inside
// [from, to].
func (a *Anomaly) BaselineMeans(from, to int) (ts, deep float64, err error) {
	if from > to {
		return 0, 0, fmt.Errorf("%w: %d > %d", ErrBaselineWindow, from, to)
	}

	n := 0
	for i, y := range a.Years {
		if y < from || y > to {
			continue
		}
		ts += a.Ts[i]
		deep += a.To[i]
		n++
	}
	if n == 0 {
		return 0, 0, fmt.Errorf("%w: %d-%d", ErrBaselineWindow, from, to)
	}

	return ts / float64(n), deep / float64(n), nil
}

// Rebaseline returns a copy of a with the mean over [from, to] subtracted
// from Ts and To. Years outside the series are ignored.
func (a *Anomaly) Rebaseline(from, to int) (*Anomaly, error) {
	mts, mto, err := a.BaselineMeans(from, to)
	if err != nil {
		return nil, err
	}

	out := a.clone()
	for i := range out.Ts {
		out.Ts[i] -= mts
		out.To[i] -= mto
	}
	out.Offset[0] += mts
	out.Offset[1] += mto
	return out, nil
}

// Window returns a copy restricted to from <= year <= to. A zero bound is
// open.
func (a *Anomaly) Window(from, to int) *Anomaly {
	lo, hi := 0, len(a.Years)
	for lo < hi && from != 0 && a.Years[lo] < from {
		lo++
	}
	for hi > lo && to != 0 && a.Years[hi-1] > to {
		hi--
	}

	out := a.clone()
	out.Years = out.Years[lo:hi]
	out.Forcing = out.Forcing[lo:hi]
	out.Ts = out.Ts[lo:hi]
	out.To = out.To[lo:hi]
	return out
}

// Misfit is the root-mean-square difference between Ts and the observed
// record over their common years. Both are centred on their own mean over
// those years first, so the result does not depend on either baseline.
func (a *Anomaly) Misfit(obs *forcing.Observations) (rmse float64, n int, err error) {
	idx := make(map[int]int, len(obs.Years))
	for i, y := range obs.Years {
		idx[y] = i
	}

	var model, observed []float64
	for i, y := range a.Years {
		if j, ok := idx[y]; ok {
			model = append(model, a.Ts[i])
			observed = append(observed, obs.Values[j])
		}
	}
	if len(model) == 0 {
		return 0, 0, ErrNoOverlap
	}

	mm, mo := mean(model), mean(observed)
	var sum float64
	for i := range model {
		d := (model[i] - mm) - (observed[i] - mo)
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(model))), len(model), nil
}

func mean(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}
