package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/trajfit/internal/dynamo"
)

const (
	// StandardGravity is signed: gravity pulls along -z.
	StandardGravity = -9.81

	// SeaLevelDensity is the air density in kg/m^3.
	SeaLevelDensity = 1.29

	DefaultSpinRate      = 20.0
	DefaultSpinDirection = 1.0

	// dragFactor is the drag coefficient of a non-spinning ball.
	dragFactor = 0.508
)

// Ball describes the projectile.
type Ball struct {
	Diameter float64 `yaml:"diameter" json:"diameter"`
	Mass     float64 `yaml:"mass" json:"mass"`
}

// TennisBall returns a regulation ball: 63 mm, 50 g.
func TennisBall() Ball {
	return Ball{Diameter: 0.063, Mass: 0.05}
}

// Params are the physical constants of one simulation run. Construct once
// with NewParams and pass by value; nothing mutates them afterwards.
type Params struct {
	Gravity float64
	// Alpha is pi*d^2/(8m)*rho, the per-unit-mass aerodynamic factor.
	Alpha float64
	// SpinRate is the ball's angular velocity in rad/s.
	SpinRate float64
	// SpinDirection scales the Magnus term: +1 topspin, -1 backspin.
	SpinDirection float64
}

// NewParams derives the aerodynamic factor from ball geometry and air density.
func NewParams(ball Ball, density float64) Params {
	return Params{
		Gravity:       StandardGravity,
		Alpha:         Alpha(ball, density),
		SpinRate:      DefaultSpinRate,
		SpinDirection: DefaultSpinDirection,
	}
}

// DefaultParams is NewParams for a tennis ball at sea level.
func DefaultParams() Params {
	return NewParams(TennisBall(), SeaLevelDensity)
}

// WithSpin returns a copy of p with the given spin settings.
func (p Params) WithSpin(rate, direction float64) Params {
	p.SpinRate = rate
	p.SpinDirection = direction
	return p
}

// WithGravity returns a copy of p with gravity g (signed).
func (p Params) WithGravity(g float64) Params {
	p.Gravity = g
	return p
}

func Alpha(ball Ball, density float64) float64 {
	return math.Pi * ball.Diameter * ball.Diameter / (8 * ball.Mass) * density
}

func (p Params) Validate(kind Kind) error {
	for _, name := range []string{"gravity", "alpha", "spin_rate", "spin_direction"} {
		v := p.GetParams()[name]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not finite", dynamo.ErrParameterBounds, name)
		}
	}
	if p.Alpha < 0 {
		return fmt.Errorf("%w: alpha must be non-negative, got %g", dynamo.ErrParameterBounds, p.Alpha)
	}
	if kind == Spin && p.SpinRate <= 0 {
		return fmt.Errorf("%w: spin rate must be positive, got %g", dynamo.ErrParameterBounds, p.SpinRate)
	}
	return nil
}

func (p Params) GetParams() map[string]float64 {
	return map[string]float64{
		"gravity":        p.Gravity,
		"alpha":          p.Alpha,
		"spin_rate":      p.SpinRate,
		"spin_direction": p.SpinDirection,
	}
}
