package metrics

import (
	"math"

	"github.com/san-kum/twobox/internal/dynamo"
)

// DefaultStabilityBound is the largest anomaly in K still treated as a
// physically plausible state.
const DefaultStabilityBound = 50.0

// Stability is the fraction of steps whose state stays within threshold.
// A runaway lambda drives it toward zero; nothing is clamped.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      NameStability,
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(x dynamo.State, u dynamo.Control, step int) {
	s.samples++
	for _, val := range x {
		if math.IsNaN(val) || math.Abs(val) > s.threshold {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
