package experiment

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/twobox/internal/config"
	"github.com/san-kum/twobox/internal/feedback"
	"github.com/san-kum/twobox/internal/forcing"
	"github.com/san-kum/twobox/internal/logging"
	"github.com/san-kum/twobox/internal/twobox"
)

// Parameters are the model inputs resolved from a configuration.
type Parameters struct {
	Lambda      twobox.Lambdas
	Gamma       float64
	Source      string
	Feedback    *feedback.Aggregate
	Mode        feedback.Mode
	Uncertainty bool
}

// Runaway reports whether any lambda that will be integrated is
// non-negative.
func (p Parameters) Runaway() bool {
	if p.Lambda.Central >= 0 {
		return true
	}
	return p.Uncertainty && (p.Lambda.Low >= 0 || p.Lambda.High >= 0)
}

type SubsetResult struct {
	Name           string
	Categories     []string
	Forcing        forcing.Series
	Central        *twobox.Anomaly
	Envelope       *twobox.Envelope
	EmptySelection bool
}

type Result struct {
	Params  Parameters
	Subsets []SubsetResult
}

type Experiment struct {
	cfg    *config.Config
	table  *forcing.Table
	model  *twobox.Model
	logger *slog.Logger
}

func New(cfg *config.Config, table *forcing.Table, logger *slog.Logger) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	model, err := twobox.New(cfg.Ocean, twobox.WithStrict(cfg.Strict))
	if err != nil {
		return nil, err
	}
	return &Experiment{
		cfg:    cfg,
		table:  table,
		model:  model,
		logger: logging.OrDiscard(logger),
	}, nil
}

func (e *Experiment) Config() *config.Config { return e.cfg }

// Parameters resolves lambda and gamma. With a fixed lambda there is no
// feedback range, so uncertainty is switched off.
func (e *Experiment) Parameters() (Parameters, error) {
	p := Parameters{
		Gamma:       e.cfg.EffectiveGamma(),
		Source:      e.cfg.Lambda.Source,
		Mode:        e.cfg.EnvelopeMode(),
		Uncertainty: e.cfg.Uncertainty,
	}

	if e.cfg.Lambda.Source == config.LambdaFixed {
		v := e.cfg.Lambda.Value
		p.Lambda = twobox.Lambdas{Central: v, Low: v, High: v}
		if p.Uncertainty {
			e.logger.Warn("uncertainty needs lambda from feedback components, ignoring", "lambda", v)
			p.Uncertainty = false
		}
		return p, nil
	}

	agg, err := feedback.Combine(e.cfg.Components(), e.cfg.Mask())
	if err != nil {
		return Parameters{}, err
	}
	p.Feedback = &agg
	p.Lambda = twobox.LambdasFrom(agg, p.Mode)
	return p, nil
}

// Subsets returns the selections to run. In scenario mode every column of
// the table is its own subset.
func (e *Experiment) Subsets() []config.Subset {
	if !e.cfg.Scenario {
		return e.cfg.Subsets
	}
	out := make([]config.Subset, len(e.table.Columns))
	for i, col := range e.table.Columns {
		out[i] = config.Subset{Name: col, Categories: []string{col}}
	}
	return out
}

// Run integrates every subset concurrently.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	params, err := e.Parameters()
	if err != nil {
		return nil, err
	}

	e.logger.Debug("run parameters",
		"lambda", params.Lambda.Central,
		"lambda_low", params.Lambda.Low,
		"lambda_high", params.Lambda.High,
		"gamma", params.Gamma,
		"source", params.Source,
		"uncertainty", params.Uncertainty,
		"mode", params.Mode,
	)
	if params.Runaway() {
		e.logger.Warn("non-negative lambda, temperatures will diverge", "lambda", params.Lambda.Central, "lambda_high", params.Lambda.High)
	}

	subsets := e.Subsets()
	results := make([]SubsetResult, len(subsets))

	g, gctx := errgroup.WithContext(ctx)
	for i, sub := range subsets {
		g.Go(func() error {
			res, err := e.runSubset(gctx, sub, params)
			if err != nil {
				return fmt.Errorf("subset %s: %w", sub.Name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Result{Params: params, Subsets: results}, nil
}

func (e *Experiment) runSubset(ctx context.Context, sub config.Subset, p Parameters) (SubsetResult, error) {
	cats, err := e.table.Expand(sub.Categories)
	if err != nil {
		return SubsetResult{}, err
	}
	series, empty, err := e.table.Sum(cats)
	if err != nil {
		return SubsetResult{}, err
	}
	if empty {
		e.logger.Warn("empty forcing selection, running with zero forcing", "subset", sub.Name)
	}
	e.logger.Log(ctx, logging.LevelTrace, "subset",
		"subset", sub.Name,
		"categories", cats,
		"years", series.Len(),
	)

	res := SubsetResult{
		Name:           sub.Name,
		Categories:     cats,
		Forcing:        series,
		EmptySelection: empty,
	}

	if p.Uncertainty {
		env, err := e.model.Envelope(ctx, series, p.Lambda, p.Gamma)
		if err != nil {
			return SubsetResult{}, err
		}
		res.Envelope = env
		res.Central = env.Central
	} else {
		a, err := e.model.Integrate(series, p.Lambda.Central, p.Gamma)
		if err != nil {
			return SubsetResult{}, err
		}
		res.Central = a
	}

	if err := e.shape(&res); err != nil {
		return SubsetResult{}, err
	}
	return res, nil
}

// shape applies the configured baseline and display window, then measures
// the runs over the samples that remain.
func (e *Experiment) shape(res *SubsetResult) error {
	b, w := e.cfg.Baseline, e.cfg.Window

	if b.Enabled {
		if res.Envelope != nil {
			env, err := res.Envelope.Rebaseline(b.From, b.To)
			if err != nil {
				return err
			}
			res.Envelope = env
			res.Central = env.Central
		} else {
			a, err := res.Central.Rebaseline(b.From, b.To)
			if err != nil {
				return err
			}
			res.Central = a
		}
	}

	if w.From != 0 || w.To != 0 {
		res.Forcing = res.Forcing.Window(w.From, w.To)
		if res.Envelope != nil {
			res.Envelope = res.Envelope.Window(w.From, w.To)
			res.Central = res.Envelope.Central
		} else {
			res.Central = res.Central.Window(w.From, w.To)
		}
	}

	runs := []*twobox.Anomaly{res.Central}
	if res.Envelope != nil {
		runs = append(runs, res.Envelope.AtLow, res.Envelope.AtHigh)
	}
	for _, a := range runs {
		a.Metrics = e.model.Measure(a)
	}
	return nil
}
