package sim

import (
	"context"
	"fmt"

	"github.com/san-kum/trajfit/internal/dynamo"
	"github.com/san-kum/trajfit/internal/event"
	"github.com/san-kum/trajfit/internal/integrators"
)

type Simulator struct {
	sys     dynamo.System
	stepper integrators.Stepper
	opts    integrators.Options
	refiner event.Refiner
	sinks   []Sink
}

func New(sys dynamo.System, stepper integrators.Stepper, opts integrators.Options, refiner event.Refiner) *Simulator {
	return &Simulator{
		sys:     sys,
		stepper: stepper,
		opts:    opts,
		refiner: refiner,
		sinks:   make([]Sink, 0),
	}
}

func (s *Simulator) AddSink(k Sink) { s.sinks = append(s.sinks, k) }

// WithSinks returns a copy of s that also records to the given sinks,
// leaving s untouched.
func (s *Simulator) WithSinks(sinks ...Sink) *Simulator {
	c := *s
	c.sinks = append(append(make([]Sink, 0, len(s.sinks)+len(sinks)), s.sinks...), sinks...)
	return &c
}

func (s *Simulator) System() dynamo.System        { return s.sys }
func (s *Simulator) Stepper() integrators.Stepper { return s.stepper }
func (s *Simulator) Options() integrators.Options { return s.opts }
func (s *Simulator) Refiner() event.Refiner       { return s.refiner }

func (s *Simulator) Validate() error {
	if s.sys == nil || s.stepper == nil {
		return fmt.Errorf("%w: simulator needs a force model and a stepper", dynamo.ErrParameterBounds)
	}
	if err := s.opts.Validate(); err != nil {
		return fmt.Errorf("integrator: %w", err)
	}
	if err := s.refiner.Validate(); err != nil {
		return fmt.Errorf("refiner: %w", err)
	}
	return nil
}

// Run flies candidate c from the given launch height until the ball returns
// to ground level. Each run owns a fresh evolver, so equal inputs give
// bit-identical results.
func (s *Simulator) Run(ctx context.Context, c Candidate, height float64) (*Result, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	x0 := c.InitialState(height)
	if !x0.IsValid() {
		return nil, fmt.Errorf("%w: candidate speed=%g angle=%g", dynamo.ErrInvalidState, c.Speed, c.Angle)
	}

	if err := s.launch(x0); err != nil {
		return nil, err
	}

	ev := integrators.NewEvolver(s.stepper, s.opts)
	hit, err := s.refiner.Find(ctx, ev, s.sys, x0, event.GroundContact, s.observer())
	if err != nil {
		return nil, err
	}

	if err := s.record(hit.Time, hit.State); err != nil {
		return nil, err
	}

	stats := ev.Stats()
	return &Result{
		Distance:    hit.State[dynamo.X] - x0[dynamo.X],
		Seconds:     hit.Time,
		Crossing:    hit.State,
		Frames:      hit.Frames,
		Steps:       stats.Accepted,
		Rejected:    stats.Rejected,
		Evaluations: stats.Evaluations,
	}, nil
}

func (s *Simulator) observer() event.Observer {
	if len(s.sinks) == 0 {
		return nil
	}
	return s.record
}

func (s *Simulator) launch(x0 dynamo.State) error {
	for _, k := range s.sinks {
		l, ok := k.(Launcher)
		if !ok {
			continue
		}
		if err := l.Launch(x0); err != nil {
			return fmt.Errorf("trajectory sink: %w", err)
		}
	}
	return nil
}

func (s *Simulator) record(t float64, x dynamo.State) error {
	for _, k := range s.sinks {
		if err := k.Record(t, x); err != nil {
			return fmt.Errorf("trajectory sink: %w", err)
		}
	}
	return nil
}
