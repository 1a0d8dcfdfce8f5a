// Package metrics summarizes a trajectory from the samples a simulation
// emits.
package metrics

import (
	"sort"

	"github.com/san-kum/trajfit/internal/dynamo"
)

type Metric interface {
	Name() string
	Observe(t float64, x dynamo.State)
	Value() float64
	Reset()
}

// Recorder feeds every sample to a set of metrics. It satisfies sim.Sink.
type Recorder struct {
	metrics []Metric
}

func NewRecorder(ms ...Metric) *Recorder {
	return &Recorder{metrics: ms}
}

// Standard returns the flight summary used by the CLI. ref supplies the
// mechanical energy used for drift.
func Standard(ref dynamo.Hamiltonian) *Recorder {
	return NewRecorder(
		NewApex(),
		NewLandingSpeed(),
		NewLandingAngle(),
		NewNetClearance(NetDistance, NetHeight),
		NewEnergyDrift(ref),
	)
}

func (r *Recorder) Record(t float64, x dynamo.State) error {
	for _, m := range r.metrics {
		m.Observe(t, x)
	}
	return nil
}

// Launch observes the launch state at t=0.
func (r *Recorder) Launch(x dynamo.State) error {
	return r.Record(0, x)
}

func (r *Recorder) Reset() {
	for _, m := range r.metrics {
		m.Reset()
	}
}

func (r *Recorder) Values() map[string]float64 {
	out := make(map[string]float64, len(r.metrics))
	for _, m := range r.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

// Names lists the metric names in sorted order.
func (r *Recorder) Names() []string {
	names := make([]string, 0, len(r.metrics))
	for _, m := range r.metrics {
		names = append(names, m.Name())
	}
	sort.Strings(names)
	return names
}
