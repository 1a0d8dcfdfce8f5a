package automation

import (
	"context"
	"fmt"

	"github.com/san-kum/trajfit/internal/config"
	"github.com/san-kum/trajfit/internal/dynamo"
	"github.com/san-kum/trajfit/internal/experiment"
	"github.com/san-kum/trajfit/internal/logging"
	"github.com/san-kum/trajfit/internal/sim"
)

// ParameterSweep refits the same observation while one physical parameter
// varies, showing how sensitive the recovered launch is to it.
type ParameterSweep struct {
	Base      *config.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
}

type SweepResult struct {
	ParamValue float64
	Candidate  sim.Candidate
	Value      float64
	Converged  bool
}

var sweepParams = map[string]func(*config.Config, float64){
	"spin_rate":      func(c *config.Config, v float64) { c.Spin.Rate = v },
	"spin_direction": func(c *config.Config, v float64) { c.Spin.Direction = v },
	"air_density":    func(c *config.Config, v float64) { c.AirDensity = v },
	"gravity":        func(c *config.Config, v float64) { c.Gravity = v },
	"ball_mass":      func(c *config.Config, v float64) { c.Ball.Mass = v },
	"height":         func(c *config.Config, v float64) { c.Observation.Hit[2] = v },
}

func SweepParams() []string {
	names := make([]string, 0, len(sweepParams))
	for name := range sweepParams {
		names = append(names, name)
	}
	return names
}

func RunSweep(ctx context.Context, sweep *ParameterSweep, registry *experiment.Registry, log *logging.Logger) ([]SweepResult, error) {
	set, ok := sweepParams[sweep.ParamName]
	if !ok {
		return nil, fmt.Errorf("%w: parameter %q cannot be swept", dynamo.ErrParameterBounds, sweep.ParamName)
	}
	if sweep.NumSteps < 2 {
		return nil, fmt.Errorf("%w: a sweep needs at least 2 steps", dynamo.ErrParameterBounds)
	}

	results := make([]SweepResult, 0, sweep.NumSteps)
	paramStep := (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)

	for i := 0; i < sweep.NumSteps; i++ {
		paramVal := sweep.ParamMin + float64(i)*paramStep
		cfg := sweep.Base.Clone()
		set(cfg, paramVal)

		exp := experiment.New(cfg)
		if err := exp.Setup(registry); err != nil {
			return nil, fmt.Errorf("%s=%g: %w", sweep.ParamName, paramVal, err)
		}

		sol, err := exp.Fit(ctx)
		if sol == nil {
			return nil, fmt.Errorf("%s=%g: %w", sweep.ParamName, paramVal, err)
		}

		results = append(results, SweepResult{
			ParamValue: paramVal,
			Candidate:  sol.Candidate,
			Value:      sol.Value,
			Converged:  sol.Converged,
		})

		log.Info(ctx, "sweep step", "index", i+1, "total", sweep.NumSteps, sweep.ParamName, paramVal)
	}

	return results, nil
}
