package experiment_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/twobox/internal/config"
	"github.com/san-kum/twobox/internal/experiment"
	"github.com/san-kum/twobox/internal/forcing"
	"github.com/san-kum/twobox/internal/physics"
	"github.com/san-kum/twobox/internal/twobox"
)

var _ = Describe("Calibrate", func() {
	var (
		cfg   *config.Config
		table *forcing.Table
		obs   *forcing.Observations
		grid  experiment.Grid
	)

	BeforeEach(func() {
		cfg = config.DefaultConfig()
		table = historicalTable()

		series, _, err := table.Sum(table.Columns)
		Expect(err).NotTo(HaveOccurred())
		model, err := twobox.New(physics.DefaultOcean())
		Expect(err).NotTo(HaveOccurred())
		truth, err := model.Integrate(series, -1.5, -0.6)
		Expect(err).NotTo(HaveOccurred())

		obs = &forcing.Observations{Years: truth.Years[30:], Values: make([]float64, truth.Len()-30)}
		for i := range obs.Values {
			obs.Values[i] = truth.Ts[30+i] + 0.3
		}

		grid = experiment.Grid{
			Lambdas: []float64{-2, -1.75, -1.5, -1.25, -1},
			Gammas:  []float64{-0.9, -0.6, -0.3, 0},
		}
	})

	It("recovers the parameters that produced the record", func() {
		exp, err := experiment.New(cfg, table, nil)
		Expect(err).NotTo(HaveOccurred())

		cal, err := exp.Calibrate(context.Background(), obs, grid)
		Expect(err).NotTo(HaveOccurred())
		Expect(cal.Subset).To(Equal("all"))
		Expect(cal.Lambda).To(Equal(-1.5))
		Expect(cal.Gamma).To(Equal(-0.6))
		Expect(cal.RMSE).To(BeNumerically("~", 0, 1e-9))
		Expect(cal.Overlap).To(Equal(len(obs.Years)))
		Expect(cal.Points).To(HaveLen(20))
	})

	It("only tries zero gamma without ocean heat uptake", func() {
		cfg.OceanHeatUptake = false
		exp, err := experiment.New(cfg, table, nil)
		Expect(err).NotTo(HaveOccurred())

		cal, err := exp.Calibrate(context.Background(), obs, grid)
		Expect(err).NotTo(HaveOccurred())
		Expect(cal.Gamma).To(BeZero())
		Expect(cal.Points).To(HaveLen(5))
	})

	It("fails when the record does not overlap the table", func() {
		exp, err := experiment.New(cfg, table, nil)
		Expect(err).NotTo(HaveOccurred())

		_, err = exp.Calibrate(context.Background(), &forcing.Observations{Years: []int{1700}, Values: []float64{0}}, grid)
		Expect(err).To(MatchError(twobox.ErrNoOverlap))
	})

	It("needs a subset", func() {
		cfg.Scenario = true
		exp, err := experiment.New(cfg, &forcing.Table{Years: []int{1850}}, nil)
		Expect(err).NotTo(HaveOccurred())

		_, err = exp.Calibrate(context.Background(), obs, grid)
		Expect(err).To(MatchError(experiment.ErrNoSubset))
	})

	It("provides a default grid", func() {
		g := experiment.DefaultGrid()
		Expect(g.Lambdas[0]).To(Equal(-3.0))
		Expect(g.Lambdas[len(g.Lambdas)-1]).To(Equal(-0.5))
		Expect(g.Gammas[len(g.Gammas)-1]).To(BeZero())
	})
})
