package twobox_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/twobox/internal/dynamo"
	"github.com/san-kum/twobox/internal/feedback"
	"github.com/san-kum/twobox/internal/forcing"
	"github.com/san-kum/twobox/internal/metrics"
	"github.com/san-kum/twobox/internal/physics"
	"github.com/san-kum/twobox/internal/twobox"
)

func stepForcing(first, n, onset int, f float64) forcing.Series {
	s := forcing.Constant(first, n, 0)
	for i := onset; i < n; i++ {
		s.Values[i] = f
	}
	return s
}

var _ = Describe("Model", func() {
	var (
		model *twobox.Model
		ocean physics.Ocean
	)

	BeforeEach(func() {
		ocean = physics.DefaultOcean()
		var err error
		model, err = twobox.New(ocean)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("New", func() {
		It("rejects an invalid ocean", func() {
			ocean.MixedLayerDepth = 0
			_, err := twobox.New(ocean)
			Expect(err).To(MatchError(dynamo.ErrParameterBounds))
		})
	})

	Describe("Integrate", func() {
		It("returns one sample per year starting from rest", func() {
			s := forcing.Series{Years: make([]int, 40), Values: make([]float64, 40)}
			for i := range s.Years {
				s.Years[i] = 1900 + i
				s.Values[i] = math.Sin(float64(i)) * 3
			}

			a, err := model.Integrate(s, -1.18, -0.69)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.Ts).To(HaveLen(40))
			Expect(a.To).To(HaveLen(40))
			Expect(a.Years).To(Equal(s.Years))
			Expect(a.Ts[0]).To(BeZero())
			Expect(a.To[0]).To(BeZero())
		})

		It("ignores the forcing of the first year", func() {
			s := forcing.Constant(2000, 1, 100)

			a, err := model.Integrate(s, -1.3, -0.69)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.Ts).To(Equal([]float64{0}))
			Expect(a.To).To(Equal([]float64{0}))
		})

		It("fails on an empty series", func() {
			_, err := model.Integrate(forcing.Series{}, -1.3, -0.69)
			Expect(err).To(MatchError(twobox.ErrInvalidInput))
		})

		It("fails on a gapped series", func() {
			s := forcing.Series{Years: []int{1850, 1851, 1853}, Values: []float64{0, 1, 1}}
			_, err := model.Integrate(s, -1.3, -0.69)
			Expect(err).To(MatchError(twobox.ErrInvalidInput))
		})

		It("keeps the deep ocean at rest without heat uptake", func() {
			a, err := model.Integrate(forcing.Constant(1850, 100, 4), -1.3, 0)
			Expect(err).NotTo(HaveOccurred())
			for _, v := range a.To {
				Expect(v).To(BeNumerically("==", 0))
			}
		})

		It("converges monotonically to the equilibrium warming", func() {
			a, err := model.Integrate(forcing.Constant(1850, 300, 4), -1.3, 0)
			Expect(err).NotTo(HaveOccurred())

			eq := 4 / 1.3
			for t := 1; t < a.Len(); t++ {
				Expect(a.Ts[t]).To(BeNumerically(">=", a.Ts[t-1]-1e-12))
				Expect(a.Ts[t]).To(BeNumerically("<=", eq+1e-12))
			}
			Expect(a.Ts[a.Len()-1]).To(BeNumerically("~", 3.077, 1e-3))
			Expect(a.Ts[a.Len()-1]).To(BeNumerically("~", eq, 1e-9))
		})

		It("warms the step after forcing onset", func() {
			a, err := model.Integrate(stepForcing(1850, 40, 11, 4), -1.3, -0.69)
			Expect(err).NotTo(HaveOccurred())

			Expect(a.Ts[10]).To(BeZero())
			Expect(a.Ts[11]).To(BeNumerically(">", a.Ts[10]))
			for t := 12; t < 30; t++ {
				Expect(a.Ts[t]).To(BeNumerically(">", a.Ts[t-1]))
			}
			Expect(a.To[12]).To(BeNumerically(">", 0))
		})

		It("matches one hand-computed step", func() {
			s := forcing.Series{Years: []int{1850, 1851}, Values: []float64{0, 4}}
			a, err := model.Integrate(s, -1.3, -0.69)
			Expect(err).NotTo(HaveOccurred())

			Expect(a.Ts[1]).To(BeNumerically("~", 4/ocean.CMix()*ocean.SecondsPerYear, 1e-15))
			Expect(a.To[1]).To(BeZero())
		})

		It("grows linearly without feedback", func() {
			agg, err := feedback.Combine(feedback.DefaultComponents(), feedback.Mask{})
			Expect(err).NotTo(HaveOccurred())
			Expect(agg.Sum).To(BeZero())

			a, err := model.Integrate(forcing.Constant(1850, 50, 4), agg.Sum, 0)
			Expect(err).NotTo(HaveOccurred())

			slope := 4 / ocean.CMix() * ocean.SecondsPerYear
			for t := 1; t < a.Len(); t++ {
				Expect(a.Ts[t] - a.Ts[t-1]).To(BeNumerically("~", slope, 1e-12))
			}
		})

		It("lets a runaway climate diverge", func() {
			a, err := model.Integrate(forcing.Constant(1850, 500, 4), 0.21, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.Ts[499]).To(BeNumerically(">", 1000))
			Expect(a.Metrics[metrics.NameStability]).To(BeNumerically("<", 1))
		})

		It("reports the standard metrics", func() {
			a, err := model.Integrate(forcing.Constant(1850, 100, 4), -1.3, -0.69)
			Expect(err).NotTo(HaveOccurred())

			Expect(a.Metrics).To(HaveKeyWithValue(metrics.NameFinalWarming, a.Ts[99]))
			Expect(a.Metrics).To(HaveKeyWithValue(metrics.NameDeepWarming, a.To[99]))
			Expect(a.Metrics[metrics.NameImbalance]).To(BeNumerically("~", 4-1.3*a.Ts[99], 1e-12))
			Expect(a.Metrics[metrics.NameStability]).To(Equal(1.0))
		})

		It("runs without metrics when disabled", func() {
			bare, err := twobox.New(ocean, twobox.WithMetrics(nil))
			Expect(err).NotTo(HaveOccurred())

			a, err := bare.Integrate(forcing.Constant(1850, 10, 1), -1.3, -0.69)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.Metrics).To(BeEmpty())
		})

		It("integrates an exploding run as given", func() {
			a, err := model.Integrate(forcing.Constant(1850, 170, 3), -1.3, 1e4)
			Expect(err).NotTo(HaveOccurred())
			Expect(math.IsInf(a.Ts[169], 0)).To(BeTrue())
		})

		It("stops an exploding run in strict mode", func() {
			strict, err := twobox.New(ocean, twobox.WithStrict(true))
			Expect(err).NotTo(HaveOccurred())

			_, err = strict.Integrate(forcing.Constant(1850, 170, 3), -1.3, 1e4)
			Expect(err).To(MatchError(dynamo.ErrInvalidState))

			_, err = strict.Integrate(forcing.Constant(1850, 170, 3), -1.3, -0.69)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("Measure", func() {
		var a *twobox.Anomaly

		BeforeEach(func() {
			var err error
			a, err = model.Integrate(stepForcing(1950, 80, 5, 4), -1.3, -0.69)
			Expect(err).NotTo(HaveOccurred())
		})

		It("agrees with the run on its final state", func() {
			m := model.Measure(a)
			Expect(m[metrics.NameFinalWarming]).To(Equal(a.Metrics[metrics.NameFinalWarming]))
			Expect(m[metrics.NameDeepWarming]).To(Equal(a.Metrics[metrics.NameDeepWarming]))
			Expect(m[metrics.NameImbalance]).To(BeNumerically("~", a.Metrics[metrics.NameImbalance], 1e-12))
		})

		It("follows a rebaselined and windowed series", func() {
			r, err := a.Rebaseline(1986, 2005)
			Expect(err).NotTo(HaveOccurred())
			w := r.Window(1990, 2009)
			last := w.Len() - 1

			m := model.Measure(w)
			Expect(m[metrics.NameFinalWarming]).To(BeNumerically("~", w.Ts[last], 1e-12))
			Expect(m[metrics.NameDeepWarming]).To(BeNumerically("~", w.To[last], 1e-12))
			Expect(m[metrics.NamePeakWarming]).To(BeNumerically("~", w.Ts[last], 1e-12))
			Expect(m[metrics.NameMeanForcing]).To(BeNumerically("~", 4, 1e-12))

			ts, _, ok := a.At(2009)
			Expect(ok).To(BeTrue())
			Expect(m[metrics.NameImbalance]).To(BeNumerically("~", 4-1.3*ts, 1e-9))
			Expect(m[metrics.NameEquilibrium]).To(BeNumerically("~", 4/1.3-r.Offset[0], 1e-9))
		})

		It("is empty without metrics", func() {
			bare, err := twobox.New(ocean, twobox.WithMetrics(nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(bare.Measure(a)).To(BeEmpty())
		})
	})

	Describe("Rebaseline", func() {
		var a *twobox.Anomaly

		BeforeEach(func() {
			var err error
			a, err = model.Integrate(stepForcing(1950, 80, 5, 3), -1.18, -0.69)
			Expect(err).NotTo(HaveOccurred())
		})

		It("zeroes the mean over the reference period", func() {
			r, err := a.Rebaseline(1986, 2005)
			Expect(err).NotTo(HaveOccurred())

			ts, to, err := r.BaselineMeans(1986, 2005)
			Expect(err).NotTo(HaveOccurred())
			Expect(ts).To(BeNumerically("~", 0, 1e-12))
			Expect(to).To(BeNumerically("~", 0, 1e-12))
		})

		It("does not modify the original", func() {
			_, err := a.Rebaseline(1986, 2005)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.Ts[0]).To(BeZero())
		})

		It("is a no-op the second time", func() {
			once, err := a.Rebaseline(1986, 2005)
			Expect(err).NotTo(HaveOccurred())
			twice, err := once.Rebaseline(1986, 2005)
			Expect(err).NotTo(HaveOccurred())

			for i := range once.Ts {
				Expect(twice.Ts[i]).To(BeNumerically("~", once.Ts[i], 1e-12))
				Expect(twice.To[i]).To(BeNumerically("~", once.To[i], 1e-12))
			}
		})

		It("leaves the series unchanged on its first year", func() {
			r, err := a.Rebaseline(1950, 1950)
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Ts).To(Equal(a.Ts))
		})

		It("uses the partial overlap", func() {
			r, err := a.Rebaseline(2020, 2100)
			Expect(err).NotTo(HaveOccurred())

			ts, _, err := r.BaselineMeans(2020, 2029)
			Expect(err).NotTo(HaveOccurred())
			Expect(ts).To(BeNumerically("~", 0, 1e-12))
		})

		DescribeTable("rejects unusable windows",
			func(from, to int) {
				_, err := a.Rebaseline(from, to)
				Expect(err).To(MatchError(twobox.ErrBaselineWindow))
			},
			Entry("inverted", 2005, 1986),
			Entry("before the series", 1750, 1800),
			Entry("after the series", 2100, 2200),
		)
	})

	Describe("Window", func() {
		It("keeps the years in range", func() {
			a, err := model.Integrate(forcing.Constant(1850, 50, 2), -1.3, -0.69)
			Expect(err).NotTo(HaveOccurred())

			w := a.Window(1860, 1869)
			Expect(w.Years).To(HaveLen(10))
			Expect(w.Years[0]).To(Equal(1860))
			ts, _, ok := a.At(1860)
			Expect(ok).To(BeTrue())
			Expect(w.Ts[0]).To(Equal(ts))
		})
	})

	Describe("Envelope", func() {
		var (
			s       forcing.Series
			lambdas twobox.Lambdas
		)

		BeforeEach(func() {
			s = forcing.Constant(1850, 150, 3.7)
			agg, err := feedback.Combine(feedback.DefaultComponents(), nil)
			Expect(err).NotTo(HaveOccurred())
			lambdas = twobox.LambdasFrom(agg, feedback.ModeBounds)
		})

		It("labels each run by its lambda", func() {
			env, err := model.Envelope(context.Background(), s, lambdas, -0.69)
			Expect(err).NotTo(HaveOccurred())

			Expect(env.Central.Lambda).To(BeNumerically("~", -1.18, 1e-12))
			Expect(env.AtLow.Lambda).To(BeNumerically("~", -2.53, 1e-12))
			Expect(env.AtHigh.Lambda).To(BeNumerically("~", 0.21, 1e-12))
		})

		It("matches independent runs", func() {
			env, err := model.Envelope(context.Background(), s, lambdas, -0.69)
			Expect(err).NotTo(HaveOccurred())

			for _, run := range []*twobox.Anomaly{env.Central, env.AtLow, env.AtHigh} {
				solo, err := model.Integrate(s, run.Lambda, -0.69)
				Expect(err).NotTo(HaveOccurred())
				Expect(run.Ts).To(Equal(solo.Ts))
				Expect(run.To).To(Equal(solo.To))
			}
		})

		It("brackets every run", func() {
			env, err := model.Envelope(context.Background(), s, lambdas, -0.69)
			Expect(err).NotTo(HaveOccurred())

			for i := range env.Lower {
				for _, run := range []*twobox.Anomaly{env.Central, env.AtLow, env.AtHigh} {
					Expect(run.Ts[i]).To(BeNumerically(">=", env.Lower[i]))
					Expect(run.Ts[i]).To(BeNumerically("<=", env.Upper[i]))
				}
			}
			Expect(env.Upper[149]).To(Equal(env.AtHigh.Ts[149]))
			Expect(env.Lower[149]).To(Equal(env.AtLow.Ts[149]))
		})

		It("uses the rss range when asked", func() {
			agg, err := feedback.Combine(feedback.DefaultComponents(), nil)
			Expect(err).NotTo(HaveOccurred())
			l := twobox.LambdasFrom(agg, feedback.ModeRSS)

			env, err := model.Envelope(context.Background(), s, l, -0.69)
			Expect(err).NotTo(HaveOccurred())
			Expect(env.AtLow.Lambda).To(BeNumerically("~", agg.Sum-agg.Std, 1e-12))
			Expect(env.AtHigh.Lambda).To(BeNumerically("~", agg.Sum+agg.Std, 1e-12))
		})

		It("rebaselines each run independently", func() {
			env, err := model.Envelope(context.Background(), s, lambdas, -0.69)
			Expect(err).NotTo(HaveOccurred())

			r, err := env.Rebaseline(1986, 1995)
			Expect(err).NotTo(HaveOccurred())
			for _, run := range []*twobox.Anomaly{r.Central, r.AtLow, r.AtHigh} {
				ts, _, err := run.BaselineMeans(1986, 1995)
				Expect(err).NotTo(HaveOccurred())
				Expect(ts).To(BeNumerically("~", 0, 1e-9))
			}

			w := r.Window(1900, 1949)
			Expect(w.Lower).To(HaveLen(50))
		})

		It("reports the run that failed in strict mode", func() {
			strict, err := twobox.New(ocean, twobox.WithStrict(true))
			Expect(err).NotTo(HaveOccurred())

			_, err = strict.Envelope(context.Background(), s, lambdas, 1e4)
			Expect(err).To(MatchError(dynamo.ErrInvalidState))
		})

		It("fails on an empty series", func() {
			_, err := model.Envelope(context.Background(), forcing.Series{}, lambdas, -0.69)
			Expect(err).To(MatchError(twobox.ErrInvalidInput))
		})

		It("stops when the context is canceled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			_, err := model.Envelope(ctx, s, lambdas, -0.69)
			Expect(err).To(MatchError(context.Canceled))
		})
	})
})
