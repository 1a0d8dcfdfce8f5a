package physics

import (
	"math"

	"github.com/san-kum/trajfit/internal/dynamo"
)

// SpinModel adds Magnus lift to quadratic drag. The drag and lift
// coefficients depend on the ratio of ball speed to spin rate.
type SpinModel struct {
	Params Params
}

func (m *SpinModel) StateDim() int {
	return dynamo.StateDim
}

func (m *SpinModel) Derive(x dynamo.State, t float64) dynamo.State {
	vx, vz := x[dynamo.VX], x[dynamo.VZ]
	cd, cm := m.Coefficients(math.Hypot(vx, vz))

	return dynamo.State{
		vx,
		vz,
		-cd*vx + cm*vz,
		m.Params.Gravity - cd*vz - cm*vx,
	}
}

// Coefficients returns the drag and Magnus factors at speed v.
func (m *SpinModel) Coefficients(v float64) (cd, cm float64) {
	w := m.Params.SpinRate
	alpha := m.Params.Alpha

	cd = (dragFactor + 1/(22.503+4.196*math.Pow(v/w, 0.4))) * alpha * v
	cm = m.Params.SpinDirection * w / (2.022*w + 0.981*v) * alpha * v
	return cd, cm
}
