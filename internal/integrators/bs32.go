package integrators

import "github.com/san-kum/trajfit/internal/dynamo"

// Bogacki-Shampine coefficients (BS32)
var (
	bsB1 = 2.0 / 9.0
	bsB2 = 1.0 / 3.0
	bsB3 = 4.0 / 9.0

	bsE1 = bsB1 - 7.0/24.0
	bsE2 = bsB2 - 1.0/4.0
	bsE3 = bsB3 - 1.0/3.0
	bsE4 = -1.0 / 8.0
)

// BS32 is the Bogacki-Shampine 3(2) pair, cheaper per step than RK45 but
// forced into smaller steps at tight tolerances.
type BS32 struct{}

func NewBS32() *BS32 {
	return &BS32{}
}

func (b *BS32) Name() string { return "bs32" }
func (b *BS32) Order() int   { return 2 }

func (b *BS32) Step(dyn dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, dynamo.State) {
	n := len(x)

	k1 := dyn.Derive(x, t)

	scratch := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		scratch[i] = x[i] + dt*0.5*k1[i]
	}
	k2 := dyn.Derive(scratch, t+dt*0.5)

	for i := 0; i < n; i++ {
		scratch[i] = x[i] + dt*0.75*k2[i]
	}
	k3 := dyn.Derive(scratch, t+dt*0.75)

	xNew := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		xNew[i] = x[i] + dt*(bsB1*k1[i]+bsB2*k2[i]+bsB3*k3[i])
	}
	k4 := dyn.Derive(xNew, t+dt)

	errEst := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		errEst[i] = dt * (bsE1*k1[i] + bsE2*k2[i] + bsE3*k3[i] + bsE4*k4[i])
	}

	return xNew, errEst
}
