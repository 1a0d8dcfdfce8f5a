// Package experiment assembles force model, stepper, refiner, simulator and
// objective from a configuration.
package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/trajfit/internal/config"
	"github.com/san-kum/trajfit/internal/fit"
	"github.com/san-kum/trajfit/internal/metrics"
	"github.com/san-kum/trajfit/internal/optim"
	"github.com/san-kum/trajfit/internal/physics"
	"github.com/san-kum/trajfit/internal/sim"
)

type Experiment struct {
	cfg       *config.Config
	params    physics.Params
	simulator *sim.Simulator
	objective *fit.Objective
	registry  *Registry
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{cfg: cfg}
}

func (e *Experiment) Setup(reg *Registry) error {
	if err := e.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	e.params = e.cfg.Params()
	dyn, err := reg.GetModel(e.cfg.Model, e.params)
	if err != nil {
		return err
	}
	stepper, err := reg.GetStepper(e.cfg.Integrator)
	if err != nil {
		return err
	}
	refiner, err := e.cfg.Refiner()
	if err != nil {
		return err
	}

	e.registry = reg
	e.simulator = sim.New(dyn, stepper, e.cfg.Tolerance, refiner)
	e.objective = fit.NewObjective(e.simulator, e.cfg.Observation)
	e.objective.Weight = e.cfg.Fit.Weight
	return nil
}

func (e *Experiment) Config() *config.Config    { return e.cfg }
func (e *Experiment) Params() physics.Params    { return e.params }
func (e *Experiment) Simulator() *sim.Simulator { return e.simulator }
func (e *Experiment) Objective() *fit.Objective { return e.objective }

func (e *Experiment) Solver() *fit.Solver {
	s := fit.NewSolver(e.objective)
	s.Optimizer = optim.NewNelderMead(e.cfg.OptimizerOptions())
	s.Start = e.cfg.Start()
	s.Steps = e.cfg.Steps()
	return s
}

func (e *Experiment) Fit(ctx context.Context) (*fit.Solution, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.Solver().Solve(ctx)
}

// Fly simulates one candidate from the observed launch height, recording
// the standard metrics and any extra sinks.
func (e *Experiment) Fly(ctx context.Context, c sim.Candidate, sinks ...sim.Sink) (*sim.Result, *metrics.Recorder, error) {
	if e.simulator == nil {
		return nil, nil, fmt.Errorf("experiment not setup")
	}
	rec := e.registry.DefaultMetrics(e.params)
	res, err := e.simulator.WithSinks(append([]sim.Sink{rec}, sinks...)...).Run(ctx, c, e.cfg.Observation.Height())
	if err != nil {
		return nil, nil, err
	}
	return res, rec, nil
}
