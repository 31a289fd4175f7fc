package physics

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/twobox/internal/dynamo"
)

func TestBareBalance(t *testing.T) {
	te, err := RadiativeEquilibrium(DefaultAlbedo)
	if err != nil {
		t.Fatalf("RadiativeEquilibrium failed: %v", err)
	}
	if te < 250 || te > 258 {
		t.Errorf("expected an equilibrium near 254 K, got %.2f", te)
	}

	tests := []struct {
		name   string
		kelvin float64
		sign   float64
	}{
		{"balanced", te, 0},
		{"too cold", te - 20, 1},
		{"too warm", te + 20, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBare(tt.kelvin, DefaultAlbedo)
			if err != nil {
				t.Fatalf("NewBare failed: %v", err)
			}
			if math.Abs(b.Insolation-340.25) > 1e-12 {
				t.Errorf("insolation = %g, want 340.25", b.Insolation)
			}
			if math.Abs(b.Reflected+b.Absorbed-b.Insolation) > 1e-9 {
				t.Errorf("reflected + absorbed = %g, want %g", b.Reflected+b.Absorbed, b.Insolation)
			}
			switch {
			case tt.sign == 0 && math.Abs(b.Net()) > 1e-9:
				t.Errorf("expected zero net flux, got %g", b.Net())
			case tt.sign != 0 && math.Signbit(b.Net()) != math.Signbit(tt.sign):
				t.Errorf("net flux %g has the wrong sign", b.Net())
			}
		})
	}
}

func TestOneLayerBalance(t *testing.T) {
	ts, ta, err := OneLayerEquilibrium(DefaultAlbedo, DefaultEmissivity)
	if err != nil {
		t.Fatalf("OneLayerEquilibrium failed: %v", err)
	}
	if c := Celsius(ts); c < 12 || c > 16 {
		t.Errorf("expected a surface near 14 °C, got %.2f", c)
	}
	if ta >= ts {
		t.Errorf("atmosphere %.2f K should be colder than the surface %.2f K", ta, ts)
	}

	b, err := NewOneLayer(ts, ta, DefaultAlbedo, DefaultEmissivity)
	if err != nil {
		t.Fatalf("NewOneLayer failed: %v", err)
	}
	for name, net := range map[string]float64{
		"surface":    b.SurfaceNet(),
		"atmosphere": b.AtmosphereNet(),
		"top":        b.TopNet(),
	} {
		if math.Abs(net) > 1e-9 {
			t.Errorf("%s net = %g, want 0", name, net)
		}
	}
}

func TestOneLayerTransparent(t *testing.T) {
	te, _ := RadiativeEquilibrium(0.3)
	ts, _, err := OneLayerEquilibrium(0.3, 0)
	if err != nil {
		t.Fatalf("OneLayerEquilibrium failed: %v", err)
	}
	if math.Abs(ts-te) > 1e-9 {
		t.Errorf("transparent atmosphere: surface %g, want bare %g", ts, te)
	}

	b, _ := NewOneLayer(280, 250, 0.3, 0)
	if b.BackRadiation != 0 || b.Outgoing != b.SurfaceEmission {
		t.Errorf("transparent layer should neither absorb nor emit: %+v", b)
	}
}

func TestRadiationBounds(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"albedo above one", func() error { _, err := RadiativeEquilibrium(1.2); return err }()},
		{"negative albedo", func() error { _, err := NewBare(280, -0.1); return err }()},
		{"negative temperature", func() error { _, err := NewBare(-1, 0.3); return err }()},
		{"emissivity above one", func() error { _, _, err := OneLayerEquilibrium(0.3, 1.5); return err }()},
		{"negative air temperature", func() error { _, err := NewOneLayer(280, -5, 0.3, 0.8); return err }()},
	}
	for _, tt := range tests {
		if !errors.Is(tt.err, dynamo.ErrParameterBounds) {
			t.Errorf("%s: expected ErrParameterBounds, got %v", tt.name, tt.err)
		}
	}
}

func TestPlanckCurvePeak(t *testing.T) {
	for _, kelvin := range []float64{Kelvin(14), 1000, 5778} {
		w, u := PlanckCurve(kelvin, 2000)

		best := 0
		for i := range u {
			if u[i] > u[best] {
				best = i
			}
		}
		if r := w[best] / WienPeak(kelvin); r < 0.99 || r > 1.01 {
			t.Errorf("T=%g K: peak at %g m, Wien predicts %g m", kelvin, w[best], WienPeak(kelvin))
		}
		if math.Abs(w[0]/MinWavelength-1) > 1e-12 || math.Abs(w[len(w)-1]/MaxWavelength-1) > 1e-12 {
			t.Errorf("wavelength grid spans %g..%g", w[0], w[len(w)-1])
		}
	}
}

func TestSpectralDensity(t *testing.T) {
	if got := SpectralDensity(1e-5, 0); got != 0 {
		t.Errorf("expected zero density at 0 K, got %g", got)
	}
	if got := SpectralDensity(MinWavelength, 1); got != 0 {
		t.Errorf("expected the exponential tail to underflow to 0, got %g", got)
	}
	if SpectralDensity(1e-5, 600) <= SpectralDensity(1e-5, 300) {
		t.Error("density should grow with temperature")
	}
}
