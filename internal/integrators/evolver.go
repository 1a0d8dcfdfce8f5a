package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/trajfit/internal/dynamo"
)

const (
	safety   = 0.9
	minScale = 0.2
	maxScale = 10.0
)

type Options struct {
	AbsTol      float64 `yaml:"abs_tol" json:"abs_tol"`
	RelTol      float64 `yaml:"rel_tol" json:"rel_tol"`
	InitialStep float64 `yaml:"initial_step" json:"initial_step"`
	MinStep     float64 `yaml:"min_step" json:"min_step"`
	MaxStep     float64 `yaml:"max_step" json:"max_step"`
	MaxAttempts int     `yaml:"max_attempts" json:"max_attempts"`
}

func DefaultOptions() Options {
	return Options{
		AbsTol:      1e-6,
		RelTol:      0,
		InitialStep: 1e-6,
		MinStep:     1e-12,
		MaxStep:     0,
		MaxAttempts: 64,
	}
}

func (o Options) Validate() error {
	switch {
	case o.AbsTol < 0 || o.RelTol < 0:
		return fmt.Errorf("%w: tolerances must be non-negative", dynamo.ErrParameterBounds)
	case o.AbsTol == 0 && o.RelTol == 0:
		return fmt.Errorf("%w: abs_tol and rel_tol are both zero", dynamo.ErrParameterBounds)
	case o.InitialStep <= 0:
		return fmt.Errorf("%w: initial_step must be positive", dynamo.ErrParameterBounds)
	case o.MinStep < 0 || o.MinStep > o.InitialStep:
		return fmt.Errorf("%w: min_step %g outside [0, initial_step]", dynamo.ErrParameterBounds, o.MinStep)
	case o.MaxStep < 0:
		return fmt.Errorf("%w: max_step must be non-negative", dynamo.ErrParameterBounds)
	case o.MaxAttempts <= 0:
		return fmt.Errorf("%w: max_attempts must be positive", dynamo.ErrParameterBounds)
	}
	return nil
}

type Stats struct {
	Accepted    int
	Rejected    int
	Evaluations int
	LastStep    float64
}

// Evolver owns the integration time and the carried step size. It is not
// safe for concurrent use; give each simulation its own.
type Evolver struct {
	stepper Stepper
	opts    Options

	t     float64
	h     float64
	stats Stats
}

func NewEvolver(stepper Stepper, opts Options) *Evolver {
	e := &Evolver{stepper: stepper, opts: opts}
	e.Reset(0)
	return e
}

func (e *Evolver) Reset(t0 float64) {
	e.t = t0
	e.h = e.opts.InitialStep
	if e.opts.MaxStep > 0 && e.h > e.opts.MaxStep {
		e.h = e.opts.MaxStep
	}
	e.stats = Stats{}
}

// Rewind moves the clock back to t, keeping the carried step size and the
// counters. Callers restore the matching state themselves.
func (e *Evolver) Rewind(t float64) {
	e.t = t
}

func (e *Evolver) Time() float64     { return e.t }
func (e *Evolver) StepSize() float64 { return e.h }
func (e *Evolver) Stats() Stats      { return e.stats }
func (e *Evolver) Stepper() Stepper  { return e.stepper }

// Apply takes one accepted step from the current time toward t1, never past
// it. Rejected trials shrink the step and retry without moving time.
func (e *Evolver) Apply(dyn dynamo.System, x dynamo.State, t1 float64) (dynamo.State, error) {
	if t1 < e.t {
		return nil, fmt.Errorf("%w: target time %g precedes current time %g", dynamo.ErrParameterBounds, t1, e.t)
	}
	if t1 == e.t {
		return x.Clone(), nil
	}

	counted := countingSystem{System: dyn, n: &e.stats.Evaluations}
	q := float64(e.stepper.Order())

	for attempt := 0; attempt < e.opts.MaxAttempts; attempt++ {
		remaining := t1 - e.t
		h := e.h
		clipped := false
		if h >= remaining {
			h = remaining
			clipped = true
		}

		xNew, errEst := e.stepper.Step(counted, x, e.t, h)
		if !xNew.IsValid() || !errEst.IsValid() {
			return nil, &dynamo.IntegrationError{Time: e.t, Step: h, State: x.Clone(), Err: dynamo.ErrInvalidState}
		}

		ratio := e.errorRatio(x, xNew, errEst)
		if ratio > 1 {
			e.stats.Rejected++
			e.h = h * math.Max(minScale, safety*math.Pow(ratio, -1/q))
			if e.h < e.opts.MinStep {
				return nil, &dynamo.IntegrationError{Time: e.t, Step: e.h, State: x.Clone(), Err: dynamo.ErrStepTooSmall}
			}
			continue
		}

		e.stats.Accepted++
		e.stats.LastStep = h

		scale := maxScale
		if ratio > 0 {
			scale = math.Min(maxScale, safety*math.Pow(ratio, -1/(q+1)))
		}
		next := h * scale

		if clipped {
			e.t = t1
			next = math.Max(next, e.h)
		} else {
			e.t = math.Min(e.t+h, t1)
		}
		if e.opts.MaxStep > 0 && next > e.opts.MaxStep {
			next = e.opts.MaxStep
		}
		e.h = next

		return xNew, nil
	}

	return nil, &dynamo.IntegrationError{Time: e.t, Step: e.h, State: x.Clone(), Err: dynamo.ErrStepTooSmall}
}

// Advance applies steps until the evolver reaches t1 exactly.
func (e *Evolver) Advance(dyn dynamo.System, x dynamo.State, t1 float64) (dynamo.State, error) {
	if t1 == e.t {
		return x.Clone(), nil
	}
	for e.t < t1 {
		next, err := e.Apply(dyn, x, t1)
		if err != nil {
			return nil, err
		}
		x = next
	}
	return x, nil
}

func (e *Evolver) errorRatio(x, xNew, errEst dynamo.State) float64 {
	worst := 0.0
	for i := range errEst {
		scale := e.opts.AbsTol + e.opts.RelTol*math.Max(math.Abs(x[i]), math.Abs(xNew[i]))
		if r := math.Abs(errEst[i]) / scale; r > worst {
			worst = r
		}
	}
	return worst
}
