// Package integrators provides explicit Runge-Kutta steppers with local
// error estimates and an adaptive Evolver that drives them.
package integrators

import "github.com/san-kum/trajfit/internal/dynamo"

// Stepper advances a state by exactly dt and reports a per-component
// estimate of the local truncation error. Steppers hold no state and may be
// shared between goroutines.
type Stepper interface {
	Step(dyn dynamo.System, x dynamo.State, t, dt float64) (xNew, errEst dynamo.State)
	// Order is the order q of the error estimate; the controller shrinks
	// with exponent -1/q and grows with -1/(q+1).
	Order() int
	Name() string
}

var (
	_ Stepper = (*RK45)(nil)
	_ Stepper = (*BS32)(nil)
	_ Stepper = (*RK4)(nil)
)

type countingSystem struct {
	dynamo.System
	n *int
}

func (c countingSystem) Derive(x dynamo.State, t float64) dynamo.State {
	*c.n++
	return c.System.Derive(x, t)
}
