package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/trajfit/internal/dynamo"
	"github.com/san-kum/trajfit/internal/integrators"
	"github.com/san-kum/trajfit/internal/metrics"
	"github.com/san-kum/trajfit/internal/physics"
)

type Registry struct {
	models   map[string]func(physics.Params) (dynamo.System, error)
	steppers map[string]func() integrators.Stepper
}

func NewRegistry() *Registry {
	r := &Registry{
		models:   make(map[string]func(physics.Params) (dynamo.System, error)),
		steppers: make(map[string]func() integrators.Stepper),
	}

	for _, k := range physics.Kinds() {
		kind := k
		r.models[kind.String()] = func(p physics.Params) (dynamo.System, error) { return physics.New(kind, p) }
	}

	r.steppers["rk45"] = func() integrators.Stepper { return integrators.NewRK45() }
	r.steppers["bs32"] = func() integrators.Stepper { return integrators.NewBS32() }
	r.steppers["rk4"] = func() integrators.Stepper { return integrators.NewRK4() }

	return r
}

func (r *Registry) GetModel(name string, params physics.Params) (dynamo.System, error) {
	kind, err := physics.ParseKind(name)
	if err != nil {
		return nil, err
	}
	fn, ok := r.models[kind.String()]
	if !ok {
		return nil, fmt.Errorf("%w: unknown model %q", dynamo.ErrParameterBounds, name)
	}
	return fn(params)
}

func (r *Registry) GetStepper(name string) (integrators.Stepper, error) {
	fn, ok := r.steppers[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown integrator %q", dynamo.ErrParameterBounds, name)
	}
	return fn(), nil
}

func (r *Registry) ListModels() []string {
	return sortedKeys(r.models)
}

func (r *Registry) ListSteppers() []string {
	return sortedKeys(r.steppers)
}

// DefaultMetrics measures energy against a vacuum model with the same
// gravity, so drift under drag shows the energy the air removed.
func (r *Registry) DefaultMetrics(params physics.Params) *metrics.Recorder {
	return metrics.Standard(&physics.VacuumModel{Params: params})
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
