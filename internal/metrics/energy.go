package metrics

import (
	"math"

	"github.com/san-kum/trajfit/internal/dynamo"
)

// EnergyDrift is the largest relative change in mechanical energy seen
// since the first sample. In vacuum it measures integration error; with air
// it measures what drag and lift have taken out.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	currentEnergy float64
	maxDrift      float64
	samples       int
	ref           dynamo.Hamiltonian
}

func NewEnergyDrift(ref dynamo.Hamiltonian) *EnergyDrift {
	return &EnergyDrift{
		name: "energy_drift",
		ref:  ref,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(t float64, x dynamo.State) {
	if e.ref == nil {
		return
	}

	energy := e.ref.Energy(x)

	if e.samples == 0 {
		e.initialEnergy = energy
	}

	e.currentEnergy = energy
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

// Final is the energy at the last sample.
func (e *EnergyDrift) Final() float64 {
	return e.currentEnergy
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
