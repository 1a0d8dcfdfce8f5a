package sim

import (
	"math"

	"github.com/san-kum/trajfit/internal/dynamo"
)

// Candidate is a pair of launch conditions.
type Candidate struct {
	Speed float64 `json:"speed" yaml:"speed"` // m/s
	Angle float64 `json:"angle" yaml:"angle"` // radians above horizontal
}

// CandidateFrom reads a Candidate from an optimizer vector (speed, angle).
func CandidateFrom(v []float64) Candidate {
	return Candidate{Speed: v[0], Angle: v[1]}
}

func (c Candidate) Vector() []float64 {
	return []float64{c.Speed, c.Angle}
}

func (c Candidate) AngleDegrees() float64 {
	return c.Angle * 180 / math.Pi
}

// InitialState places the ball at the origin at the given height, moving
// along the launch direction.
func (c Candidate) InitialState(height float64) dynamo.State {
	return dynamo.NewState(0, height, c.Speed*math.Cos(c.Angle), c.Speed*math.Sin(c.Angle))
}

type Result struct {
	Distance float64      `json:"distance"`
	Seconds  float64      `json:"seconds"`
	Crossing dynamo.State `json:"crossing"`

	Frames      int `json:"frames"`
	Steps       int `json:"steps"`
	Rejected    int `json:"rejected"`
	Evaluations int `json:"evaluations"`
}

// Sink receives trajectory samples as they are produced. A non-nil error
// aborts the run.
type Sink interface {
	Record(t float64, x dynamo.State) error
}

// Launcher is implemented by sinks that also want the launch state. Plain
// sinks only see frame samples and the crossing.
type Launcher interface {
	Launch(x dynamo.State) error
}

type SinkFunc func(t float64, x dynamo.State) error

func (f SinkFunc) Record(t float64, x dynamo.State) error { return f(t, x) }
