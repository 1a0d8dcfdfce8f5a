package fit

import (
	"context"
	"errors"
	"fmt"

	"github.com/san-kum/trajfit/internal/optim"
	"github.com/san-kum/trajfit/internal/sim"
)

// DefaultWeight scales the squared time error against the squared
// distance error.
const DefaultWeight = 100.0

// SinkCloser is a trajectory sink backed by a resource.
type SinkCloser interface {
	sim.Sink
	Close() error
}

// SinkFactory opens a diagnostic sink for one candidate.
type SinkFactory func(c sim.Candidate) (SinkCloser, error)

// Evaluation is one objective evaluation with its components.
type Evaluation struct {
	Candidate sim.Candidate
	Result    *sim.Result
	DistErr   float64
	SecsErr   float64
	Error     float64
}

// String renders the evaluation as a fixed-width diagnostic line: simulated
// seconds, speed, angle in degrees, distance error, time error and the
// objective value.
func (e Evaluation) String() string {
	return fmt.Sprintf("%10.6f %10.6f %10.6f %10.6f %10.6f %10.6f",
		e.Result.Seconds, e.Candidate.Speed, e.Candidate.AngleDegrees(),
		e.DistErr, e.SecsErr, e.Error)
}

type Objective struct {
	Sim    *sim.Simulator
	Obs    Observation
	Weight float64

	SinkFactory SinkFactory
	// OnEval is called after every evaluation. It must be safe for
	// concurrent use when the optimizer runs in parallel.
	OnEval func(Evaluation)
}

func NewObjective(s *sim.Simulator, obs Observation) *Objective {
	return &Objective{Sim: s, Obs: obs, Weight: DefaultWeight}
}

// Evaluate returns (d_sim - d_obs)^2 + Weight*(t_sim - t_obs)^2.
func (o *Objective) Evaluate(ctx context.Context, c sim.Candidate) (float64, error) {
	ev, err := o.Evaluation(ctx, c)
	if err != nil {
		return 0, err
	}
	return ev.Error, nil
}

func (o *Objective) Evaluation(ctx context.Context, c sim.Candidate) (ev *Evaluation, err error) {
	s := o.Sim
	if o.SinkFactory != nil {
		sink, serr := o.SinkFactory(c)
		if serr != nil {
			return nil, fmt.Errorf("open trajectory sink: %w", serr)
		}
		defer func() {
			if cerr := sink.Close(); cerr != nil {
				err = errors.Join(err, fmt.Errorf("close trajectory sink: %w", cerr))
				ev = nil
			}
		}()
		s = s.WithSinks(sink)
	}

	res, err := s.Run(ctx, c, o.Obs.Height())
	if err != nil {
		return nil, fmt.Errorf("simulate speed=%g angle=%g: %w", c.Speed, c.Angle, err)
	}

	e := Evaluation{
		Candidate: c,
		Result:    res,
		DistErr:   res.Distance - o.Obs.Distance(),
		SecsErr:   res.Seconds - o.Obs.Seconds,
	}
	e.Error = e.DistErr*e.DistErr + o.Weight*e.SecsErr*e.SecsErr

	if o.OnEval != nil {
		o.OnEval(e)
	}
	return &e, nil
}

// Func adapts the objective to the optimizer's (speed, angle) vector form.
func (o *Objective) Func() optim.Func {
	return func(ctx context.Context, x []float64) (float64, error) {
		return o.Evaluate(ctx, sim.CandidateFrom(x))
	}
}
