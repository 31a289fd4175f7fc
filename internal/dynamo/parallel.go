package dynamo

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Member is one independent run of an Ensemble. Metrics, when set,
// replaces the ensemble's factory for this member.
type Member struct {
	System  System
	Driver  Driver
	X0      State
	Metrics MetricFactory
}

// Ensemble runs independent members concurrently. Integrators and metrics
// are built per member so nothing mutable is shared between goroutines.
type Ensemble struct {
	newIntegrator func() Integrator
	metrics       MetricFactory
	limit         int
}

func NewEnsemble(newIntegrator func() Integrator, metrics MetricFactory, limit int) *Ensemble {
	return &Ensemble{newIntegrator: newIntegrator, metrics: metrics, limit: limit}
}

func (e *Ensemble) Run(ctx context.Context, members []Member, cfg Config) ([]*Result, error) {
	results := make([]*Result, len(members))

	g, gctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}

	for i, m := range members {
		g.Go(func() error {
			s := New(m.System, e.newIntegrator(), m.Driver)
			factory := e.metrics
			if m.Metrics != nil {
				factory = m.Metrics
			}
			if factory != nil {
				for _, metric := range factory() {
					s.AddMetric(metric)
				}
			}

			res, err := s.Run(gctx, m.X0, cfg)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
