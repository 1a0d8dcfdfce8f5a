// Package physics provides the force models for a struck ball.
//
// Each model implements the [dynamo.System] interface over the state
// (x, z, vx, vz), with gravity acting along -z:
//
//   - [VacuumModel]: gravity only, closed-form parabola
//   - [DragModel]: quadratic air resistance
//   - [SpinModel]: drag plus Magnus lift from a spinning ball
//
// Models are selected once per run with [New] and are pure functions of the
// state and an immutable [Params] value, so a single model may be shared by
// concurrent simulations.
//
//	params := physics.NewParams(physics.TennisBall(), physics.SeaLevelDensity)
//	sys, err := physics.New(physics.Drag, params)
package physics
