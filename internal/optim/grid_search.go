package optim

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"

	"golang.org/x/sync/errgroup"
)

var (
	ErrEmptyGrid = errors.New("optim: empty grid")
	ErrNoResult  = errors.New("optim: no point produced a finite score")
)

// Objective scores one parameter point. Lower is better.
type Objective func(ctx context.Context, params map[string]float64) (float64, error)

// Point is one evaluated grid point.
type Point struct {
	Params map[string]float64
	Score  float64
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	workers    int
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// WithWorkers bounds concurrent objective calls. Zero or less means no
// limit.
func (g *GridSearch) WithWorkers(n int) *GridSearch {
	g.workers = n
	return g
}

// Points returns the cartesian product of the ranges, first parameter
// outermost.
func (g *GridSearch) Points() []map[string]float64 {
	var out []map[string]float64
	g.collect(0, make(map[string]float64), &out)
	return out
}

func (g *GridSearch) collect(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		*out = append(*out, maps.Clone(current))
		return
	}
	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		current[name] = val
		g.collect(depth+1, current, out)
	}
	delete(current, name)
}

// Search evaluates every point and returns the lowest finite score along
// with all evaluations in grid order. NaN and Inf scores never win.
func (g *GridSearch) Search(ctx context.Context, obj Objective) (Point, []Point, error) {
	if len(g.paramNames) == 0 || len(g.paramNames) != len(g.ranges) {
		return Point{}, nil, fmt.Errorf("%w: %d names for %d ranges", ErrEmptyGrid, len(g.paramNames), len(g.ranges))
	}
	for i, r := range g.ranges {
		if len(r) == 0 {
			return Point{}, nil, fmt.Errorf("%w: no values for %s", ErrEmptyGrid, g.paramNames[i])
		}
	}

	points := g.Points()
	evaluated := make([]Point, len(points))

	eg, ctx := errgroup.WithContext(ctx)
	if g.workers > 0 {
		eg.SetLimit(g.workers)
	}
	for i, p := range points {
		eg.Go(func() error {
			score, err := obj(ctx, p)
			if err != nil {
				return err
			}
			evaluated[i] = Point{Params: p, Score: score}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Point{}, nil, err
	}

	best := Point{Score: math.Inf(1)}
	for _, p := range evaluated {
		if math.IsNaN(p.Score) || math.IsInf(p.Score, 0) {
			continue
		}
		if p.Score < best.Score {
			best = p
		}
	}
	if best.Params == nil {
		return Point{}, evaluated, ErrNoResult
	}
	return best, evaluated, nil
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + step*float64(i)
	}
	out[n-1] = hi
	return out
}
