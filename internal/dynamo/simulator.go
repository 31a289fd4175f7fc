package dynamo

import (
	"context"
	"fmt"
)

type Simulator struct {
	dyn        System
	integrator Integrator
	driver     Driver
	metrics    []Metric
}

func New(dyn System, integrator Integrator, driver Driver) *Simulator {
	return &Simulator{
		dyn:        dyn,
		integrator: integrator,
		driver:     driver,
		metrics:    make([]Metric, 0),
	}
}

func (s *Simulator) AddMetric(m Metric) { s.metrics = append(s.metrics, m) }

// Run fills a trajectory of cfg.Samples states starting from x0. Sample 0 is
// x0 itself; sample i is one integrator step from sample i-1 using the
// control the driver returns for step i.
func (s *Simulator) Run(ctx context.Context, x0 State, cfg Config) (*Result, error) {
	if err := s.validateConfig(x0, cfg); err != nil {
		return nil, err
	}

	dim := len(x0)
	result := &Result{
		Trajectory: NewTrajectory(cfg.Samples, dim),
		Metrics:    make(map[string]float64),
		Errors:     make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	copy(result.Trajectory.At(0), x0)
	dt := cfg.Dt

	for i := 1; i < cfg.Samples; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		prev := result.Trajectory.At(i - 1)
		next := result.Trajectory.At(i)
		t := float64(i-1) * dt

		u := s.driver.Compute(prev, i)
		s.integrator.Step(s.dyn, next, prev, u, t, dt)
		result.StepsTaken++

		for _, m := range s.metrics {
			m.Observe(next, u, i)
		}

		if cfg.ValidateState && !next.IsValid() {
			result.Errors = append(result.Errors, &SimulationError{
				Step:    i,
				Time:    t + dt,
				State:   next.Clone(),
				Wrapped: ErrInvalidState,
			})
			break
		}
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

func (s *Simulator) validateConfig(x0 State, cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Samples < 1 {
		return fmt.Errorf("samples must be at least 1, got %d", cfg.Samples)
	}
	if len(x0) != s.dyn.StateDim() {
		return fmt.Errorf("%w: state has %d values, system expects %d", ErrDimensionMismatch, len(x0), s.dyn.StateDim())
	}
	return nil
}
