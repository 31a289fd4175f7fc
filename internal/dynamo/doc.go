// Package dynamo provides core simulation primitives for forced dynamical
// systems stepped at a fixed interval.
//
// The package defines the fundamental interfaces and types:
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: fixed-step numerical integrator
//   - [Driver]: source of the external input for each step
//   - [Simulator]: fills a pre-sized [Trajectory]
//
// # Example
//
//	dyn := physics.NewTwoBox(ocean, lambda, gamma)
//	sim := dynamo.New(dyn, integrators.NewEuler(), driver)
//	result, _ := sim.Run(ctx, dynamo.State{0, 0}, cfg)
//
// # Thread Safety
//
// Simulator instances are NOT thread-safe. For parallel simulations,
// use the [Ensemble] type which builds a simulator per member.
package dynamo
