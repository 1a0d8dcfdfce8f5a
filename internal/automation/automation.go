package automation

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/trajfit/internal/config"
	"github.com/san-kum/trajfit/internal/dynamo"
	"github.com/san-kum/trajfit/internal/experiment"
	"github.com/san-kum/trajfit/internal/fit"
	"github.com/san-kum/trajfit/internal/logging"
)

// Scenario is a list of observed shots to fit in one go.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Preset      string `yaml:"preset"`
	Shots       []Shot `yaml:"shots"`
}

// Shot overrides the scenario preset for one observation. Zero values keep
// the preset's setting.
type Shot struct {
	Name          string      `yaml:"name"`
	Preset        string      `yaml:"preset"`
	Model         string      `yaml:"model"`
	Hit           *[3]float64 `yaml:"hit"`
	Bounce        *[3]float64 `yaml:"bounce"`
	Seconds       float64     `yaml:"seconds"`
	SpinRate      float64     `yaml:"spin_rate"`
	SpinDirection float64     `yaml:"spin_direction"`
}

type ShotResult struct {
	Shot     Shot
	Config   *config.Config
	Solution *fit.Solution
	Err      error
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(scenario.Shots) == 0 {
		return nil, fmt.Errorf("%w: scenario %q has no shots", dynamo.ErrParameterBounds, scenario.Name)
	}

	return &scenario, nil
}

// Config resolves the configuration for one shot.
func (s *Scenario) Config(shot Shot) (*config.Config, error) {
	name := shot.Preset
	if name == "" {
		name = s.Preset
	}
	cfg := config.DefaultConfig()
	if name != "" {
		if cfg = config.GetPreset(name); cfg == nil {
			return nil, fmt.Errorf("%w: unknown preset %q", dynamo.ErrParameterBounds, name)
		}
	}

	if shot.Model != "" {
		cfg.Model = shot.Model
	}
	if shot.Hit != nil {
		cfg.Observation.Hit = *shot.Hit
	}
	if shot.Bounce != nil {
		cfg.Observation.Bounce = *shot.Bounce
	}
	if shot.Seconds != 0 {
		cfg.Observation.Seconds = shot.Seconds
	}
	if shot.SpinRate != 0 {
		cfg.Spin.Rate = shot.SpinRate
	}
	if shot.SpinDirection != 0 {
		cfg.Spin.Direction = shot.SpinDirection
	}
	return cfg, nil
}

// RunScenario fits every shot. Configuration errors stop the run; shots
// that fail to converge are reported in their ShotResult and joined into
// the returned error.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, log *logging.Logger) ([]ShotResult, error) {
	results := make([]ShotResult, 0, len(scenario.Shots))
	var failed []error

	for i, shot := range scenario.Shots {
		if shot.Name == "" {
			shot.Name = fmt.Sprintf("shot-%d", i+1)
		}
		log.Info(ctx, "fitting shot", "scenario", scenario.Name, "shot", shot.Name, "index", i+1, "total", len(scenario.Shots))

		cfg, err := scenario.Config(shot)
		if err != nil {
			return results, fmt.Errorf("shot %s: %w", shot.Name, err)
		}

		exp := experiment.New(cfg)
		if err := exp.Setup(registry); err != nil {
			return results, fmt.Errorf("shot %s setup: %w", shot.Name, err)
		}

		sol, err := exp.Fit(ctx)
		if err != nil && !errors.Is(err, dynamo.ErrOptimizationDivergence) {
			return results, fmt.Errorf("shot %s: %w", shot.Name, err)
		}
		if err != nil {
			log.Warn(ctx, "shot did not converge", "shot", shot.Name, "value", sol.Value)
			err = fmt.Errorf("shot %s: %w", shot.Name, err)
			failed = append(failed, err)
		}

		results = append(results, ShotResult{Shot: shot, Config: cfg, Solution: sol, Err: err})
	}

	return results, errors.Join(failed...)
}
