package experiment_test

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/twobox/internal/config"
	"github.com/san-kum/twobox/internal/dynamo"
	"github.com/san-kum/twobox/internal/experiment"
	"github.com/san-kum/twobox/internal/feedback"
	"github.com/san-kum/twobox/internal/forcing"
	"github.com/san-kum/twobox/internal/logging"
	"github.com/san-kum/twobox/internal/metrics"
	"github.com/san-kum/twobox/internal/twobox"
)

func historicalTable() *forcing.Table {
	var b strings.Builder
	b.WriteString("year,ghg,solar,volcanic,aerosols\n")
	for y := 1850; y <= 2020; y++ {
		t := float64(y - 1850)
		volcanic := 0.0
		if y == 1883 || y == 1991 {
			volcanic = -2.5
		}
		fmt.Fprintf(&b, "%d,%.4f,%.4f,%.4f,%.4f\n", y, 0.02*t, 0.05, volcanic, -0.004*t)
	}
	tbl, err := forcing.Load(strings.NewReader(b.String()))
	Expect(err).NotTo(HaveOccurred())
	return tbl
}

var _ = Describe("Experiment", func() {
	var (
		cfg    *config.Config
		table  *forcing.Table
		logs   *bytes.Buffer
		runExp func() (*experiment.Result, error)
	)

	BeforeEach(func() {
		cfg = config.DefaultConfig()
		table = historicalTable()
		logs = &bytes.Buffer{}
		runExp = func() (*experiment.Result, error) {
			exp, err := experiment.New(cfg, table, logging.NewLogger("debug", logs))
			if err != nil {
				return nil, err
			}
			return exp.Run(context.Background())
		}
	})

	It("runs the default configuration", func() {
		res, err := runExp()
		Expect(err).NotTo(HaveOccurred())

		Expect(res.Params.Lambda.Central).To(BeNumerically("~", -1.18, 1e-12))
		Expect(res.Params.Gamma).To(Equal(config.DefaultGamma))
		Expect(res.Params.Feedback).NotTo(BeNil())
		Expect(res.Subsets).To(HaveLen(1))

		sub := res.Subsets[0]
		Expect(sub.Name).To(Equal("all"))
		Expect(sub.Categories).To(Equal([]string{"ghg", "solar", "volcanic", "aerosols"}))
		Expect(sub.Central.Len()).To(Equal(171))
		Expect(sub.Central.Ts[0]).To(BeZero())
		Expect(sub.Envelope).To(BeNil())
		Expect(sub.EmptySelection).To(BeFalse())
		Expect(logs.String()).To(ContainSubstring("run parameters"))
	})

	It("uses a fixed lambda and ignores uncertainty", func() {
		cfg.Lambda = config.LambdaConfig{Source: config.LambdaFixed, Value: -1.3}
		cfg.Uncertainty = true

		res, err := runExp()
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Params.Lambda.Central).To(Equal(-1.3))
		Expect(res.Params.Feedback).To(BeNil())
		Expect(res.Subsets[0].Envelope).To(BeNil())
		Expect(logs.String()).To(ContainSubstring("uncertainty needs lambda"))
	})

	It("builds an envelope per subset", func() {
		cfg.Uncertainty = true
		cfg.Subsets = []config.Subset{
			{Name: "all", Categories: []string{forcing.AllCategories}},
			{Name: "natural", Categories: []string{"solar", "volcanic"}},
		}

		res, err := runExp()
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Subsets).To(HaveLen(2))
		Expect(res.Subsets[1].Name).To(Equal("natural"))

		for _, sub := range res.Subsets {
			Expect(sub.Envelope).NotTo(BeNil())
			Expect(sub.Central).To(BeIdenticalTo(sub.Envelope.Central))
			Expect(sub.Envelope.AtLow.Lambda).To(BeNumerically("~", -2.53, 1e-12))
		}
		Expect(res.Params.Runaway()).To(BeTrue())
		Expect(logs.String()).To(ContainSubstring("non-negative lambda"))
	})

	It("switches the envelope to the rss range", func() {
		cfg.Uncertainty = true
		cfg.Feedback.Envelope = string(feedback.ModeRSS)

		res, err := runExp()
		Expect(err).NotTo(HaveOccurred())
		agg := res.Params.Feedback
		Expect(res.Subsets[0].Envelope.AtHigh.Lambda).To(BeNumerically("~", agg.Sum+agg.Std, 1e-12))
		Expect(res.Params.Runaway()).To(BeFalse())
	})

	It("flags an empty selection with zero forcing", func() {
		cfg.Subsets = []config.Subset{{Name: "none", Categories: []string{}}}

		res, err := runExp()
		Expect(err).NotTo(HaveOccurred())

		sub := res.Subsets[0]
		Expect(sub.EmptySelection).To(BeTrue())
		for i := range sub.Central.Ts {
			Expect(sub.Central.Ts[i]).To(BeZero())
			Expect(sub.Central.To[i]).To(BeZero())
		}
		Expect(logs.String()).To(ContainSubstring("level=WARN"))
		Expect(logs.String()).To(ContainSubstring("empty forcing selection"))
	})

	It("rejects unknown categories", func() {
		cfg.Subsets = []config.Subset{{Name: "bad", Categories: []string{"ozone"}}}

		_, err := runExp()
		Expect(err).To(MatchError(forcing.ErrUnknownCategory))
		Expect(err.Error()).To(ContainSubstring("subset bad"))
	})

	It("rejects unknown feedback components", func() {
		cfg.Feedback.Enabled = []string{"aerosol"}

		_, err := runExp()
		Expect(err).To(MatchError(feedback.ErrUnknownComponent))
	})

	It("rejects an invalid configuration", func() {
		cfg.Lambda.Source = "guess"

		_, err := experiment.New(cfg, table, nil)
		Expect(err).To(MatchError(config.ErrInvalidConfig))
	})

	It("disables the deep ocean", func() {
		cfg.OceanHeatUptake = false

		res, err := runExp()
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Params.Gamma).To(BeZero())
		for _, v := range res.Subsets[0].Central.To {
			Expect(v).To(BeNumerically("==", 0))
		}
	})

	It("lets disabled feedbacks drop out of lambda", func() {
		cfg.Feedback.Enabled = []string{feedback.Planck}

		res, err := runExp()
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Params.Lambda.Central).To(Equal(-3.22))
	})

	Describe("baseline and window", func() {
		BeforeEach(func() {
			cfg.Baseline = config.BaselineConfig{Enabled: true, From: 1986, To: 2005}
		})

		It("rebaselines the central run", func() {
			res, err := runExp()
			Expect(err).NotTo(HaveOccurred())

			ts, _, err := res.Subsets[0].Central.BaselineMeans(1986, 2005)
			Expect(err).NotTo(HaveOccurred())
			Expect(ts).To(BeNumerically("~", 0, 1e-9))
		})

		It("rebaselines every envelope run", func() {
			cfg.Uncertainty = true

			res, err := runExp()
			Expect(err).NotTo(HaveOccurred())

			env := res.Subsets[0].Envelope
			for _, run := range []*twobox.Anomaly{env.Central, env.AtLow, env.AtHigh} {
				ts, _, err := run.BaselineMeans(1986, 2005)
				Expect(err).NotTo(HaveOccurred())
				Expect(ts).To(BeNumerically("~", 0, 1e-9))
			}
		})

		It("fails when the baseline is outside the table", func() {
			cfg.Baseline = config.BaselineConfig{Enabled: true, From: 2050, To: 2060}

			_, err := runExp()
			Expect(err).To(MatchError(twobox.ErrBaselineWindow))
		})

		It("applies the window after the baseline", func() {
			cfg.Window = config.WindowConfig{From: 1990, To: 2010}

			res, err := runExp()
			Expect(err).NotTo(HaveOccurred())

			sub := res.Subsets[0]
			Expect(sub.Central.Years).To(HaveLen(21))
			Expect(sub.Central.Years[0]).To(Equal(1990))
			Expect(sub.Forcing.Years).To(Equal(sub.Central.Years))
			Expect(sub.Central.Ts[0]).NotTo(BeZero())
		})

		It("measures the displayed series", func() {
			cfg.Window = config.WindowConfig{From: 1990, To: 2010}
			cfg.Uncertainty = true

			res, err := runExp()
			Expect(err).NotTo(HaveOccurred())

			env := res.Subsets[0].Envelope
			for _, run := range []*twobox.Anomaly{env.Central, env.AtLow, env.AtHigh} {
				last := run.Len() - 1
				Expect(run.Metrics[metrics.NameFinalWarming]).To(BeNumerically("~", run.Ts[last], 1e-9))
				Expect(run.Metrics[metrics.NameDeepWarming]).To(BeNumerically("~", run.To[last], 1e-9))
				Expect(run.Metrics[metrics.NamePeakWarming]).To(BeNumerically(">=", run.Ts[0]))
			}
		})
	})

	It("fails an exploding run in strict mode", func() {
		cfg.Lambda = config.LambdaConfig{Source: config.LambdaFixed, Value: -1.3}
		cfg.Gamma = 1e4

		_, err := runExp()
		Expect(err).NotTo(HaveOccurred())

		cfg.Strict = true
		_, err = runExp()
		Expect(err).To(MatchError(dynamo.ErrInvalidState))
	})

	It("runs one subset per column in scenario mode", func() {
		cfg.Scenario = true

		exp, err := experiment.New(cfg, table, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(exp.Subsets()).To(HaveLen(4))

		res, err := exp.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		names := make([]string, len(res.Subsets))
		for i, s := range res.Subsets {
			names[i] = s.Name
			Expect(s.Categories).To(Equal([]string{s.Name}))
		}
		Expect(names).To(Equal(table.Columns))
	})
})
