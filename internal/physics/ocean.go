package physics

import (
	"fmt"

	"github.com/san-kum/twobox/internal/dynamo"
)

const (
	DefaultMixedLayerDepth = 100.0  // m
	DefaultTotalDepth      = 3700.0 // m
	DefaultDensity         = 1000.0 // kg/m³
	DefaultSpecificHeat    = 4200.0 // J/(kg·K)
	DefaultOceanFraction   = 0.7
	DefaultSecondsPerYear  = dynamo.SecondsPerJulianYear
)

// Ocean describes the two layers of the model ocean. The deep layer spans
// everything below the mixed layer.
type Ocean struct {
	MixedLayerDepth float64 `yaml:"mixed_layer_depth" json:"mixed_layer_depth"`
	TotalDepth      float64 `yaml:"total_depth" json:"total_depth"`
	Density         float64 `yaml:"density" json:"density"`
	SpecificHeat    float64 `yaml:"specific_heat" json:"specific_heat"`
	OceanFraction   float64 `yaml:"ocean_fraction" json:"ocean_fraction"`
	SecondsPerYear  float64 `yaml:"seconds_per_year" json:"seconds_per_year"`
}

func DefaultOcean() Ocean {
	return Ocean{
		MixedLayerDepth: DefaultMixedLayerDepth,
		TotalDepth:      DefaultTotalDepth,
		Density:         DefaultDensity,
		SpecificHeat:    DefaultSpecificHeat,
		OceanFraction:   DefaultOceanFraction,
		SecondsPerYear:  DefaultSecondsPerYear,
	}
}

// CMix is the areal heat capacity of the mixed layer in J/(m²·K).
func (o Ocean) CMix() float64 {
	return o.OceanFraction * o.MixedLayerDepth * o.Density * o.SpecificHeat
}

// CDeep is the areal heat capacity of the deep ocean in J/(m²·K).
func (o Ocean) CDeep() float64 {
	return o.OceanFraction * (o.TotalDepth - o.MixedLayerDepth) * o.Density * o.SpecificHeat
}

func (o Ocean) Validate() error {
	switch {
	case o.MixedLayerDepth <= 0:
		return fmt.Errorf("%w: mixed layer depth must be positive, got %g", dynamo.ErrParameterBounds, o.MixedLayerDepth)
	case o.TotalDepth <= o.MixedLayerDepth:
		return fmt.Errorf("%w: total depth %g must exceed mixed layer depth %g", dynamo.ErrParameterBounds, o.TotalDepth, o.MixedLayerDepth)
	case o.Density <= 0:
		return fmt.Errorf("%w: density must be positive, got %g", dynamo.ErrParameterBounds, o.Density)
	case o.SpecificHeat <= 0:
		return fmt.Errorf("%w: specific heat must be positive, got %g", dynamo.ErrParameterBounds, o.SpecificHeat)
	case o.OceanFraction <= 0 || o.OceanFraction > 1:
		return fmt.Errorf("%w: ocean fraction must be in (0, 1], got %g", dynamo.ErrParameterBounds, o.OceanFraction)
	case o.SecondsPerYear <= 0:
		return fmt.Errorf("%w: seconds per year must be positive, got %g", dynamo.ErrParameterBounds, o.SecondsPerYear)
	}
	return nil
}
