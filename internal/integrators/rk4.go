package integrators

import "github.com/san-kum/trajfit/internal/dynamo"

// RK4 is the classic fourth-order method. It has no embedded estimate, so
// Step takes one full step and two half steps and uses the Richardson
// difference as the local error.
type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Name() string { return "rk4" }
func (r *RK4) Order() int   { return 4 }

func (r *RK4) Step(dyn dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, dynamo.State) {
	full := r.single(dyn, x, t, dt)
	half := r.single(dyn, x, t, dt/2)
	fine := r.single(dyn, half, t+dt/2, dt/2)

	errEst := make(dynamo.State, len(x))
	for i := range errEst {
		errEst[i] = (fine[i] - full[i]) / 15.0
	}
	return fine, errEst
}

func (r *RK4) single(dyn dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	n := len(x)
	scratch := make(dynamo.State, n)

	k1 := dyn.Derive(x, t)

	for i := 0; i < n; i++ {
		scratch[i] = x[i] + dt*0.5*k1[i]
	}
	k2 := dyn.Derive(scratch, t+dt*0.5)

	for i := 0; i < n; i++ {
		scratch[i] = x[i] + dt*0.5*k2[i]
	}
	k3 := dyn.Derive(scratch, t+dt*0.5)

	for i := 0; i < n; i++ {
		scratch[i] = x[i] + dt*k3[i]
	}
	k4 := dyn.Derive(scratch, t+dt)

	result := make(dynamo.State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		result[i] = x[i] + dt6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}

	return result
}
