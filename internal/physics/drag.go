package physics

import (
	"math"

	"github.com/san-kum/trajfit/internal/dynamo"
)

type DragModel struct {
	Params Params
}

func (m *DragModel) StateDim() int {
	return dynamo.StateDim
}

func (m *DragModel) Derive(x dynamo.State, t float64) dynamo.State {
	vx, vz := x[dynamo.VX], x[dynamo.VZ]
	v := math.Hypot(vx, vz)
	cd := dragFactor * m.Params.Alpha * v

	return dynamo.State{vx, vz, -cd * vx, m.Params.Gravity - cd*vz}
}
