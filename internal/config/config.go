package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/trajfit/internal/dynamo"
	"github.com/san-kum/trajfit/internal/event"
	"github.com/san-kum/trajfit/internal/fit"
	"github.com/san-kum/trajfit/internal/integrators"
	"github.com/san-kum/trajfit/internal/optim"
	"github.com/san-kum/trajfit/internal/physics"
	"github.com/san-kum/trajfit/internal/sim"
	"github.com/san-kum/trajfit/internal/units"
)

const (
	DefaultModel      = "drag"
	DefaultIntegrator = "rk45"
	DefaultUnits      = units.MPH
)

type Config struct {
	Model       string              `yaml:"model"`
	Integrator  string              `yaml:"integrator"`
	Units       string              `yaml:"units"`
	Observation fit.Observation     `yaml:"observation"`
	Ball        physics.Ball        `yaml:"ball"`
	AirDensity  float64             `yaml:"air_density"`
	Gravity     float64             `yaml:"gravity"`
	Spin        SpinConfig          `yaml:"spin"`
	Tolerance   integrators.Options `yaml:"tolerance"`
	Refine      RefineConfig        `yaml:"refine"`
	Fit         FitConfig           `yaml:"fit"`
}

type SpinConfig struct {
	Rate      float64 `yaml:"rate"`
	Direction float64 `yaml:"direction"`
}

type RefineConfig struct {
	Frame     float64 `yaml:"frame"`
	Passes    int     `yaml:"passes"`
	Shrink    float64 `yaml:"shrink"`
	MaxFrames int     `yaml:"max_frames"`
	Method    string  `yaml:"method"`
}

type FitConfig struct {
	MaxIter    int     `yaml:"max_iter"`
	SpreadTol  float64 `yaml:"spread_tol"`
	Target     float64 `yaml:"target"`
	Weight     float64 `yaml:"weight"`
	Parallel   bool    `yaml:"parallel"`
	StartSpeed float64 `yaml:"start_speed"`
	StartAngle float64 `yaml:"start_angle"`
	StepSpeed  float64 `yaml:"step_speed"`
	StepAngle  float64 `yaml:"step_angle"`
}

func DefaultConfig() *Config {
	ref := event.DefaultRefiner()
	opt := fit.DefaultOptimizerOptions()
	return &Config{
		Model:       DefaultModel,
		Integrator:  DefaultIntegrator,
		Units:       DefaultUnits,
		Observation: fit.ReferenceObservation(),
		Ball:        physics.TennisBall(),
		AirDensity:  physics.SeaLevelDensity,
		Gravity:     physics.StandardGravity,
		Spin: SpinConfig{
			Rate:      physics.DefaultSpinRate,
			Direction: physics.DefaultSpinDirection,
		},
		Tolerance: integrators.DefaultOptions(),
		Refine: RefineConfig{
			Frame:     ref.Frame,
			Passes:    ref.Passes,
			Shrink:    ref.Shrink,
			MaxFrames: ref.MaxFrames,
			Method:    ref.Method.String(),
		},
		Fit: FitConfig{
			MaxIter:   opt.MaxIter,
			SpreadTol: opt.SpreadTol,
			Target:    opt.Target,
			Weight:    fit.DefaultWeight,
			StepSpeed: 1,
			StepAngle: 1,
		},
	}
}

func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads path on top of base. Keys absent from the file keep base's
// values; base itself is not modified.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := base.Clone()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

func (c *Config) Validate() error {
	if _, err := c.Kind(); err != nil {
		return err
	}
	if _, err := units.Parse(c.Units); err != nil {
		return fmt.Errorf("%w: %v", dynamo.ErrParameterBounds, err)
	}
	if err := c.Observation.Validate(); err != nil {
		return err
	}
	if !(c.Ball.Diameter > 0) || !(c.Ball.Mass > 0) {
		return fmt.Errorf("%w: ball diameter and mass must be positive", dynamo.ErrParameterBounds)
	}
	if !(c.AirDensity >= 0) {
		return fmt.Errorf("%w: air density must be non-negative", dynamo.ErrParameterBounds)
	}
	kind, _ := c.Kind()
	if err := c.Params().Validate(kind); err != nil {
		return err
	}
	if err := c.Tolerance.Validate(); err != nil {
		return err
	}
	ref, err := c.Refiner()
	if err != nil {
		return err
	}
	if err := ref.Validate(); err != nil {
		return err
	}
	if c.Fit.MaxIter <= 0 || !(c.Fit.SpreadTol > 0) || c.Fit.Target < 0 || c.Fit.Weight < 0 {
		return fmt.Errorf("%w: fit settings out of range", dynamo.ErrParameterBounds)
	}
	if c.Fit.StepSpeed == 0 && c.Fit.StepAngle == 0 {
		return fmt.Errorf("%w: simplex steps are both zero", dynamo.ErrParameterBounds)
	}
	for _, v := range []float64{c.Fit.StartSpeed, c.Fit.StartAngle, c.Fit.StepSpeed, c.Fit.StepAngle} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: simplex start and steps must be finite", dynamo.ErrParameterBounds)
		}
	}
	return nil
}

func (c *Config) Kind() (physics.Kind, error) {
	return physics.ParseKind(c.Model)
}

func (c *Config) Params() physics.Params {
	return physics.NewParams(c.Ball, c.AirDensity).
		WithGravity(c.Gravity).
		WithSpin(c.Spin.Rate, c.Spin.Direction)
}

func (c *Config) Refiner() (event.Refiner, error) {
	method, err := event.ParseMethod(c.Refine.Method)
	if err != nil {
		return event.Refiner{}, err
	}
	return event.Refiner{
		Frame:     c.Refine.Frame,
		Passes:    c.Refine.Passes,
		Shrink:    c.Refine.Shrink,
		MaxFrames: c.Refine.MaxFrames,
		Method:    method,
	}, nil
}

func (c *Config) OptimizerOptions() optim.Options {
	return optim.Options{
		MaxIter:   c.Fit.MaxIter,
		SpreadTol: c.Fit.SpreadTol,
		Target:    c.Fit.Target,
		Parallel:  c.Fit.Parallel,
	}
}

// Start and Steps are the simplex origin and edge lengths; angles are in
// radians.
func (c *Config) Start() sim.Candidate {
	return sim.Candidate{Speed: c.Fit.StartSpeed, Angle: c.Fit.StartAngle}
}

func (c *Config) Steps() sim.Candidate {
	return sim.Candidate{Speed: c.Fit.StepSpeed, Angle: c.Fit.StepAngle}
}
