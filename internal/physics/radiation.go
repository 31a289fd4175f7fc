package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/twobox/internal/dynamo"
)

const (
	StefanBoltzmann = 5.67e-8 // W/(m²·K⁴)
	SolarConstant   = 1361.0  // W/m²
	ZeroCelsius     = 273.15  // K

	Planck     = 6.62607015e-34 // J·s
	LightSpeed = 299792458.0    // m/s
	Boltzmann  = 1.380649e-23   // J/K
	WienConst  = 2.897771955e-3 // m·K

	// DefaultAlbedo is the planetary albedo of the present-day Earth.
	DefaultAlbedo = 0.306
	// DefaultEmissivity is the longwave emissivity of the one-layer
	// atmosphere that reproduces a surface near 15 °C.
	DefaultEmissivity = 0.77

	// The Planck curve is drawn from the ultraviolet to the far infrared.
	MinWavelength = 1.1e-7 // m
	MaxWavelength = 5e-5   // m
)

func Kelvin(celsius float64) float64  { return celsius + ZeroCelsius }
func Celsius(kelvin float64) float64  { return kelvin - ZeroCelsius }
func Emission(kelvin float64) float64 { return StefanBoltzmann * math.Pow(kelvin, 4) }

// Insolation is the solar flux averaged over the whole sphere, S/4.
func Insolation() float64 { return SolarConstant / 4 }

func validAlbedo(albedo float64) error {
	if albedo < 0 || albedo > 1 {
		return fmt.Errorf("%w: albedo must be in [0, 1], got %g", dynamo.ErrParameterBounds, albedo)
	}
	return nil
}

func validEmissivity(eps float64) error {
	if eps < 0 || eps > 1 {
		return fmt.Errorf("%w: emissivity must be in [0, 1], got %g", dynamo.ErrParameterBounds, eps)
	}
	return nil
}

func validTemperature(kelvin float64) error {
	if kelvin < 0 || math.IsNaN(kelvin) {
		return fmt.Errorf("%w: temperature must be at least 0 K, got %g", dynamo.ErrParameterBounds, kelvin)
	}
	return nil
}

// Bare is the energy budget of a planet without an atmosphere. All fluxes
// are in W/m².
type Bare struct {
	Insolation float64
	Reflected  float64
	Absorbed   float64
	Emitted    float64
}

// Net is positive while the surface gains energy.
func (b Bare) Net() float64 { return b.Absorbed - b.Emitted }

// NewBare evaluates the budget for a surface at kelvin reflecting the
// fraction albedo of the incoming sunlight.
func NewBare(kelvin, albedo float64) (Bare, error) {
	if err := validTemperature(kelvin); err != nil {
		return Bare{}, err
	}
	if err := validAlbedo(albedo); err != nil {
		return Bare{}, err
	}
	in := Insolation()
	return Bare{
		Insolation: in,
		Reflected:  albedo * in,
		Absorbed:   (1 - albedo) * in,
		Emitted:    Emission(kelvin),
	}, nil
}

// RadiativeEquilibrium is the surface temperature in K at which a bare
// planet with the given albedo emits what it absorbs.
func RadiativeEquilibrium(albedo float64) (float64, error) {
	if err := validAlbedo(albedo); err != nil {
		return 0, err
	}
	return math.Pow((1-albedo)*Insolation()/StefanBoltzmann, 0.25), nil
}

// OneLayer is the energy budget of a surface under a single atmospheric
// layer that is transparent to sunlight, absorbs the fraction Emissivity
// of the surface emission and radiates equally up and down.
type OneLayer struct {
	Emissivity float64

	Absorbed           float64 // sunlight reaching the ground
	BackRadiation      float64 // atmosphere toward the ground
	SurfaceEmission    float64
	AtmosphereAbsorbed float64
	AtmosphereEmission float64 // both directions
	Outgoing           float64 // leaving the top of the atmosphere
}

func (b OneLayer) SurfaceNet() float64 {
	return b.Absorbed + b.BackRadiation - b.SurfaceEmission
}

func (b OneLayer) AtmosphereNet() float64 {
	return b.AtmosphereAbsorbed - b.AtmosphereEmission
}

// TopNet is the imbalance of the planet as a whole.
func (b OneLayer) TopNet() float64 {
	return b.Absorbed - b.Outgoing
}

func NewOneLayer(surfaceK, atmosphereK, albedo, emissivity float64) (OneLayer, error) {
	for _, k := range []float64{surfaceK, atmosphereK} {
		if err := validTemperature(k); err != nil {
			return OneLayer{}, err
		}
	}
	if err := validAlbedo(albedo); err != nil {
		return OneLayer{}, err
	}
	if err := validEmissivity(emissivity); err != nil {
		return OneLayer{}, err
	}

	ground := Emission(surfaceK)
	air := emissivity * Emission(atmosphereK)
	return OneLayer{
		Emissivity:         emissivity,
		Absorbed:           (1 - albedo) * Insolation(),
		BackRadiation:      air,
		SurfaceEmission:    ground,
		AtmosphereAbsorbed: emissivity * ground,
		AtmosphereEmission: 2 * air,
		Outgoing:           (1-emissivity)*ground + air,
	}, nil
}

// OneLayerEquilibrium returns the surface and atmosphere temperatures in K
// that balance both layers of the one-layer model.
func OneLayerEquilibrium(albedo, emissivity float64) (surface, atmosphere float64, err error) {
	te, err := RadiativeEquilibrium(albedo)
	if err != nil {
		return 0, 0, err
	}
	if err := validEmissivity(emissivity); err != nil {
		return 0, 0, err
	}
	surface = te * math.Pow(2/(2-emissivity), 0.25)
	return surface, surface / math.Pow(2, 0.25), nil
}

// SpectralDensity is Planck's law for the energy density of black-body
// radiation at wavelength (m) and temperature (K), in J/m⁴.
func SpectralDensity(wavelength, kelvin float64) float64 {
	if kelvin <= 0 || wavelength <= 0 {
		return 0
	}
	x := Planck * LightSpeed / (wavelength * Boltzmann * kelvin)
	return 8 * math.Pi * Planck * LightSpeed / math.Pow(wavelength, 5) / math.Expm1(x)
}

// WienPeak is the wavelength in m at which SpectralDensity peaks.
func WienPeak(kelvin float64) float64 {
	return WienConst / kelvin
}

// PlanckCurve samples SpectralDensity at n wavelengths spaced evenly in
// log between MinWavelength and MaxWavelength.
func PlanckCurve(kelvin float64, n int) (wavelengths, density []float64) {
	if n < 2 {
		n = 2
	}
	wavelengths = make([]float64, n)
	density = make([]float64, n)
	lo, hi := math.Log10(MinWavelength), math.Log10(MaxWavelength)
	for i := range wavelengths {
		w := math.Pow(10, lo+(hi-lo)*float64(i)/float64(n-1))
		wavelengths[i] = w
		density[i] = SpectralDensity(w, kelvin)
	}
	return wavelengths, density
}
