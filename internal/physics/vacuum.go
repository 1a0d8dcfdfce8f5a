package physics

import "github.com/san-kum/trajfit/internal/dynamo"

type VacuumModel struct {
	Params Params
}

func (m *VacuumModel) StateDim() int {
	return dynamo.StateDim
}

func (m *VacuumModel) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{x[dynamo.VX], x[dynamo.VZ], 0, m.Params.Gravity}
}

// Energy is the mechanical energy per unit mass.
func (m *VacuumModel) Energy(x dynamo.State) float64 {
	v2 := x[dynamo.VX]*x[dynamo.VX] + x[dynamo.VZ]*x[dynamo.VZ]
	return 0.5*v2 - m.Params.Gravity*x[dynamo.Z]
}

// Position evaluates the closed-form parabola from x0 after t seconds.
func (m *VacuumModel) Position(x0 dynamo.State, t float64) dynamo.State {
	g := m.Params.Gravity
	return dynamo.State{
		x0[dynamo.X] + x0[dynamo.VX]*t,
		x0[dynamo.Z] + x0[dynamo.VZ]*t + 0.5*g*t*t,
		x0[dynamo.VX],
		x0[dynamo.VZ] + g*t,
	}
}
