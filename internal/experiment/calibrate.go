package experiment

import (
	"context"
	"errors"
	"fmt"

	"github.com/san-kum/twobox/internal/forcing"
	"github.com/san-kum/twobox/internal/optim"
)

var ErrNoSubset = errors.New("experiment: no subset to calibrate")

// Grid is the lambda and gamma values a calibration tries.
type Grid struct {
	Lambdas []float64
	Gammas  []float64
}

// DefaultGrid spans the physically plausible negative feedbacks and ocean
// uptake coefficients.
func DefaultGrid() Grid {
	return Grid{
		Lambdas: optim.Linspace(-3, -0.5, 26),
		Gammas:  optim.Linspace(-1.5, 0, 16),
	}
}

// Calibration is the lambda and gamma whose run best matches the
// observations.
type Calibration struct {
	Subset  string
	Lambda  float64
	Gamma   float64
	RMSE    float64
	Overlap int
	Points  []optim.Point
}

// Calibrate grid-searches lambda and gamma for the first subset against
// obs. With ocean heat uptake off only gamma = 0 is tried.
func (e *Experiment) Calibrate(ctx context.Context, obs *forcing.Observations, grid Grid) (*Calibration, error) {
	subsets := e.Subsets()
	if len(subsets) == 0 {
		return nil, ErrNoSubset
	}
	sub := subsets[0]

	cats, err := e.table.Expand(sub.Categories)
	if err != nil {
		return nil, err
	}
	series, empty, err := e.table.Sum(cats)
	if err != nil {
		return nil, err
	}
	if empty {
		e.logger.Warn("calibrating against zero forcing", "subset", sub.Name)
	}

	gammas := grid.Gammas
	if !e.cfg.OceanHeatUptake {
		gammas = []float64{0}
	}

	search := optim.NewGridSearch([]string{"lambda", "gamma"}, [][]float64{grid.Lambdas, gammas})
	best, points, err := search.Search(ctx, func(ctx context.Context, p map[string]float64) (float64, error) {
		a, err := e.model.Integrate(series, p["lambda"], p["gamma"])
		if err != nil {
			return 0, err
		}
		rmse, _, err := a.Misfit(obs)
		return rmse, err
	})
	if err != nil {
		return nil, fmt.Errorf("calibrate %s: %w", sub.Name, err)
	}

	e.logger.Info("calibrated",
		"subset", sub.Name,
		"lambda", best.Params["lambda"],
		"gamma", best.Params["gamma"],
		"rmse", best.Score,
		"points", len(points),
	)

	return &Calibration{
		Subset:  sub.Name,
		Lambda:  best.Params["lambda"],
		Gamma:   best.Params["gamma"],
		RMSE:    best.Score,
		Overlap: commonYears(series.Years, obs.Years),
		Points:  points,
	}, nil
}

func commonYears(a, b []int) int {
	in := make(map[int]bool, len(b))
	for _, y := range b {
		in[y] = true
	}
	n := 0
	for _, y := range a {
		if in[y] {
			n++
		}
	}
	return n
}
