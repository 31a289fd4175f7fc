package storage

import (
	"github.com/san-kum/twobox/internal/config"
	"github.com/san-kum/twobox/internal/experiment"
)

// Record flattens an experiment result into storable form.
func Record(cfg *config.Config, res *experiment.Result) (RunMetadata, []Sample) {
	p := res.Params
	meta := RunMetadata{
		Forcing:     cfg.Forcing,
		Source:      p.Source,
		Lambda:      p.Lambda.Central,
		LambdaLow:   p.Lambda.Low,
		LambdaHigh:  p.Lambda.High,
		Gamma:       p.Gamma,
		Uncertainty: p.Uncertainty,
		Subsets:     make([]SubsetMeta, 0, len(res.Subsets)),
	}
	if p.Uncertainty {
		meta.Envelope = string(p.Mode)
	}
	if p.Feedback != nil {
		meta.Feedback = p.Feedback.Enabled
	}
	if cfg.Baseline.Enabled {
		meta.BaselineFrom = cfg.Baseline.From
		meta.BaselineTo = cfg.Baseline.To
	}

	var samples []Sample
	for _, sub := range res.Subsets {
		meta.Subsets = append(meta.Subsets, SubsetMeta{
			Name:           sub.Name,
			Categories:     sub.Categories,
			EmptySelection: sub.EmptySelection,
			Metrics:        sub.Central.Metrics,
		})

		a := sub.Central
		for i, year := range a.Years {
			smp := Sample{
				Subset:      sub.Name,
				Year:        int32(year),
				Forcing:     a.Forcing[i],
				Ts:          a.Ts[i],
				To:          a.To[i],
				TsLambdaMin: a.Ts[i],
				TsLambdaMax: a.Ts[i],
			}
			if env := sub.Envelope; env != nil {
				smp.TsLambdaMin = env.AtLow.Ts[i]
				smp.TsLambdaMax = env.AtHigh.Ts[i]
			}
			samples = append(samples, smp)
		}
	}

	return meta, samples
}
