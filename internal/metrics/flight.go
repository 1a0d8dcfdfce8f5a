package metrics

import (
	"math"

	"github.com/san-kum/trajfit/internal/dynamo"
)

// Apex is the greatest height reached.
type Apex struct {
	height  float64
	samples int
}

func NewApex() *Apex { return &Apex{} }

func (a *Apex) Name() string { return "apex_m" }

func (a *Apex) Observe(t float64, x dynamo.State) {
	if a.samples == 0 || x[dynamo.Z] > a.height {
		a.height = x[dynamo.Z]
	}
	a.samples++
}

func (a *Apex) Value() float64 { return a.height }
func (a *Apex) Reset()         { *a = Apex{} }

// LandingSpeed is the speed at the last sample seen.
type LandingSpeed struct {
	speed float64
}

func NewLandingSpeed() *LandingSpeed { return &LandingSpeed{} }

func (l *LandingSpeed) Name() string                      { return "landing_speed_mps" }
func (l *LandingSpeed) Observe(t float64, x dynamo.State) { l.speed = x.Speed() }
func (l *LandingSpeed) Value() float64                    { return l.speed }
func (l *LandingSpeed) Reset()                            { l.speed = 0 }

// LandingAngle is the descent angle below horizontal, in degrees, at the
// last sample seen.
type LandingAngle struct {
	angle float64
}

func NewLandingAngle() *LandingAngle { return &LandingAngle{} }

func (l *LandingAngle) Name() string { return "landing_angle_deg" }

func (l *LandingAngle) Observe(t float64, x dynamo.State) {
	l.angle = math.Atan2(-x[dynamo.VZ], math.Abs(x[dynamo.VX])) * 180 / math.Pi
}

func (l *LandingAngle) Value() float64 { return l.angle }
func (l *LandingAngle) Reset()         { l.angle = 0 }
