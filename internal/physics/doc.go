// Package physics provides the energy-balance systems stepped by the
// simulator and the static radiation budgets they are built on.
//
// [TwoBox] implements [dynamo.System]: a surface mixed layer coupled to a
// deep ocean reservoir. [Ocean] holds the geometry and material constants
// the heat capacities of the two layers are derived from.
//
//	dyn := physics.NewTwoBox(physics.DefaultOcean(), -1.18, -0.69)
//
// The radiation helpers evaluate equilibrium budgets without time
// stepping: [NewBare] for a planet without an atmosphere, [NewOneLayer]
// for a single absorbing layer, and [SpectralDensity] for Planck's law.
package physics
