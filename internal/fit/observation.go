// Package fit recovers launch speed and angle from an observed shot by
// minimizing the mismatch between simulated and observed flight.
package fit

import (
	"fmt"
	"math"

	"github.com/san-kum/trajfit/internal/dynamo"
)

// Observation is what the court cameras saw: where the ball was struck,
// where it bounced and how long it took.
type Observation struct {
	Hit     [3]float64 `yaml:"hit" json:"hit"`
	Bounce  [3]float64 `yaml:"bounce" json:"bounce"`
	Seconds float64    `yaml:"seconds" json:"seconds"`
}

// ReferenceObservation is a 25 m baseline shot struck 1 m above the court.
func ReferenceObservation() Observation {
	return Observation{
		Hit:     [3]float64{0, 0, 1},
		Bounce:  [3]float64{25, 0, 0},
		Seconds: 1.359,
	}
}

// Distance is the ground distance between hit and bounce.
func (o Observation) Distance() float64 {
	return math.Hypot(o.Bounce[0]-o.Hit[0], o.Bounce[1]-o.Hit[1])
}

// Height is the launch height above the court.
func (o Observation) Height() float64 {
	return o.Hit[2]
}

func (o Observation) Validate() error {
	for i := 0; i < 3; i++ {
		if !finite(o.Hit[i]) || !finite(o.Bounce[i]) {
			return fmt.Errorf("%w: observation coordinates must be finite", dynamo.ErrParameterBounds)
		}
	}
	if !finite(o.Seconds) || o.Seconds <= 0 {
		return fmt.Errorf("%w: observed seconds must be positive, got %g", dynamo.ErrParameterBounds, o.Seconds)
	}
	if o.Height() < 0 {
		return fmt.Errorf("%w: hit height must be non-negative, got %g", dynamo.ErrParameterBounds, o.Height())
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
