// Package dynamo provides the core primitives shared by the trajectory solver.
//
// The package defines the fundamental types for integrating a projectile's
// equations of motion and for reporting failures out of the numerical core:
//
//   - [State]: vector (x, z, vx, vz) describing the ball at one instant
//   - [System]: interface for autonomous ODE right-hand sides (dX/dt = f(X))
//   - [IntegrationError]: structured failure raised by the adaptive integrator
//   - [ParallelFor]: chunked fan-out used by grid sweeps and simplex evaluation
//
// # Example
//
//	sys, _ := physics.New(physics.Drag, physics.DefaultParams())
//	simulator := sim.New(sys, integrators.NewRK45(), integrators.DefaultOptions(), event.DefaultRefiner())
//	result, _ := simulator.Run(ctx, sim.Candidate{Speed: 25, Angle: 0.2}, 1.0)
//
// # Thread Safety
//
// Systems are read-only after construction and may be shared. Integrator
// state is never shared: every simulation run allocates its own.
package dynamo
