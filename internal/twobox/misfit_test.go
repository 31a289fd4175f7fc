package twobox_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/twobox/internal/forcing"
	"github.com/san-kum/twobox/internal/twobox"
)

var _ = Describe("Misfit", func() {
	anomaly := &twobox.Anomaly{
		Years: []int{2000, 2001, 2002, 2003},
		Ts:    []float64{0.1, 0.2, 0.3, 0.4},
	}

	It("ignores a constant offset between model and observations", func() {
		obs := &forcing.Observations{
			Years:  []int{2001, 2002, 2003, 2004},
			Values: []float64{1.2, 1.3, 1.4, 9},
		}
		rmse, n, err := anomaly.Misfit(obs)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(3))
		Expect(rmse).To(BeNumerically("~", 0, 1e-12))
	})

	It("measures the shape difference", func() {
		obs := &forcing.Observations{
			Years:  []int{2000, 2001},
			Values: []float64{0.2, 0.1},
		}
		rmse, n, err := anomaly.Misfit(obs)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(2))
		Expect(rmse).To(BeNumerically("~", 0.1, 1e-12))
	})

	It("fails without common years", func() {
		obs := &forcing.Observations{Years: []int{1900}, Values: []float64{0}}
		_, _, err := anomaly.Misfit(obs)
		Expect(err).To(MatchError(twobox.ErrNoOverlap))
	})
})
