package dynamo

import (
	"math"
)

// Indices into a trajectory State.
const (
	X = iota
	Z
	VX
	VZ

	StateDim
)

type State []float64

// NewState builds a trajectory state from position and velocity components.
func NewState(x, z, vx, vz float64) State {
	return State{x, z, vx, vz}
}

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// MaxAbs returns the infinity norm of s.
func (s State) MaxAbs() float64 {
	m := 0.0
	for _, v := range s {
		m = math.Max(m, math.Abs(v))
	}
	return m
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// Speed returns the magnitude of the velocity components.
func (s State) Speed() float64 {
	return math.Hypot(s[VX], s[VZ])
}

// System is an autonomous right-hand side. t is passed through for
// integrators that evaluate stages at intermediate times.
type System interface {
	Derive(x State, t float64) State
	StateDim() int
}

// Hamiltonian is implemented by systems with a conserved energy.
type Hamiltonian interface {
	Energy(x State) float64
}
