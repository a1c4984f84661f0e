// Package dynamo provides the core primitives shared by the integration engine.
//
// The package defines the fundamental interfaces and types for numerical
// solution of autonomous ordinary differential equations (ODEs):
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, t))
//   - [Invariant]: conserved quantity used to measure numerical drift
//   - [Stepper]: single fixed-step numerical scheme
//   - [Trajectory]: states sampled on a caller-supplied time grid
//   - [IntegrationError]: failure taxonomy with sample index and time
//
// # Example
//
//	lv := physics.NewLotkaVolterra(physics.Params{Alpha: 1, Beta: 0.2, Gamma: 1, Delta: 0.1})
//	grid := integrators.Linspace(0, 50, 1000)
//	traj, stats, err := integrators.NewDormandPrince(integrators.DefaultOptions()).
//		Integrate(ctx, lv, dynamo.State{5, 10}, grid)
//
// # Thread Safety
//
// Every type in this package is a value or is produced once per call. Nothing
// holds shared mutable state, so independent integrations may run from any
// number of goroutines without locking.
package dynamo
