// Package event locates the frame in which a trajectory first meets a
// terminal condition and narrows it down to a fixed time resolution.
package event

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/trajfit/internal/dynamo"
	"github.com/san-kum/trajfit/internal/integrators"
)

type Method int

const (
	// FrameShrink restores the last snapshot before the crossing and
	// continues with a frame Shrink times smaller.
	FrameShrink Method = iota
	// Bisect halves the bracketing frame until it is as narrow as
	// FrameShrink would leave it.
	Bisect
)

func (m Method) String() string {
	switch m {
	case FrameShrink:
		return "shrink"
	case Bisect:
		return "bisect"
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

func ParseMethod(name string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "shrink", "frame", "frameshrink":
		return FrameShrink, nil
	case "bisect", "bisection":
		return Bisect, nil
	}
	return 0, fmt.Errorf("%w: unknown refinement method %q", dynamo.ErrParameterBounds, name)
}

// Condition reports whether a state has reached the terminal event.
type Condition func(x dynamo.State) bool

// GroundContact is true once the ball is at or below ground level.
func GroundContact(x dynamo.State) bool {
	return x[dynamo.Z] <= 0
}

// Observer receives the state at the end of every coarse frame.
type Observer func(t float64, x dynamo.State) error

type Refiner struct {
	Frame     float64 `yaml:"frame" json:"frame"`
	Passes    int     `yaml:"passes" json:"passes"`
	Shrink    float64 `yaml:"shrink" json:"shrink"`
	MaxFrames int     `yaml:"max_frames" json:"max_frames"`
	Method    Method  `yaml:"-" json:"-"`
}

func DefaultRefiner() Refiner {
	return Refiner{
		Frame:     0.030,
		Passes:    4,
		Shrink:    10,
		MaxFrames: 20000,
		Method:    FrameShrink,
	}
}

func (r Refiner) Validate() error {
	switch {
	case !(r.Frame > 0) || math.IsInf(r.Frame, 0):
		return fmt.Errorf("%w: frame must be positive", dynamo.ErrParameterBounds)
	case r.Passes < 0:
		return fmt.Errorf("%w: passes must be non-negative", dynamo.ErrParameterBounds)
	case !(r.Shrink > 1) || math.IsInf(r.Shrink, 0):
		return fmt.Errorf("%w: shrink factor must exceed 1", dynamo.ErrParameterBounds)
	case r.MaxFrames <= 0:
		return fmt.Errorf("%w: max_frames must be positive", dynamo.ErrParameterBounds)
	case r.Method != FrameShrink && r.Method != Bisect:
		return fmt.Errorf("%w: %v", dynamo.ErrParameterBounds, r.Method)
	}
	return nil
}

// maxSettle caps the halvings that bring the snapshot height under
// Resolution after the refinement passes.
const maxSettle = 64

// Resolution is Frame·Shrink^-Passes. The refinement passes leave the
// snapshot at most this many seconds before the crossing, and the reported
// height never exceeds this many metres.
func (r Refiner) Resolution() float64 {
	return r.Frame * math.Pow(r.Shrink, -float64(r.Passes))
}

// Hit is the last snapshot taken before the condition became true.
type Hit struct {
	State      dynamo.State
	Time       float64
	Frames     int
	Detections int
}

// Find integrates sys from x0, starting at the evolver's current time, until
// cond holds and the crossing has been narrowed to Resolution. The bracket
// is then halved until the snapshot height is within Resolution.
func (r Refiner) Find(ctx context.Context, ev *integrators.Evolver, sys dynamo.System, x0 dynamo.State, cond Condition, obs Observer) (*Hit, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if cond == nil {
		cond = GroundContact
	}

	s := &search{r: r, ev: ev, sys: sys, cond: cond, x: x0.Clone(), t: ev.Time()}

	for {
		crossed, err := s.frame(ctx, r.Frame)
		if err != nil {
			return nil, err
		}
		if crossed {
			break
		}
		if obs != nil {
			if err := obs(s.t, s.x); err != nil {
				return nil, err
			}
		}
	}

	var (
		width float64
		err   error
	)
	switch r.Method {
	case Bisect:
		width, err = s.bisect(ctx)
	default:
		width, err = s.shrink(ctx)
	}
	if err != nil {
		return nil, err
	}
	if err := s.settle(ctx, width); err != nil {
		return nil, err
	}

	return &Hit{State: s.x, Time: s.t, Frames: s.frames, Detections: s.detections}, nil
}

type search struct {
	r    Refiner
	ev   *integrators.Evolver
	sys  dynamo.System
	cond Condition

	x          dynamo.State
	t          float64
	frames     int
	detections int
}

// frame advances one frame from the current snapshot. On a crossing the
// evolver is rewound and the snapshot kept.
func (s *search) frame(ctx context.Context, width float64) (bool, error) {
	if s.frames >= s.r.MaxFrames {
		return false, fmt.Errorf("%w: no crossing after %d frames (t=%.6g)", dynamo.ErrEventNotFound, s.frames, s.t)
	}
	if err := ctx.Err(); err != nil {
		return false, dynamo.Canceled(err)
	}

	next, err := s.ev.Advance(s.sys, s.x, s.t+width)
	if err != nil {
		return false, fmt.Errorf("frame at t=%.6g: %w", s.t, err)
	}
	s.frames++

	if s.cond(next) {
		s.detections++
		s.ev.Rewind(s.t)
		return true, nil
	}

	s.x = next
	s.t = s.ev.Time()
	return false, nil
}

// shrink and bisect return the width of the frame that brackets the crossing.
func (s *search) shrink(ctx context.Context) (float64, error) {
	width := s.r.Frame
	for pass := 0; pass < s.r.Passes; pass++ {
		width /= s.r.Shrink
		for {
			crossed, err := s.frame(ctx, width)
			if err != nil {
				return 0, err
			}
			if crossed {
				break
			}
		}
	}
	return width, nil
}

func (s *search) bisect(ctx context.Context) (float64, error) {
	n := int(math.Ceil(float64(s.r.Passes) * math.Log2(s.r.Shrink)))
	width := s.r.Frame
	for i := 0; i < n; i++ {
		width /= 2
		if _, err := s.frame(ctx, width); err != nil {
			return 0, err
		}
	}
	return width, nil
}

// settle bisects the bracket until the snapshot lies within Resolution of
// the ground.
func (s *search) settle(ctx context.Context, width float64) error {
	tol := s.r.Resolution()
	for i := 0; i < maxSettle && s.x[dynamo.Z] > tol; i++ {
		width /= 2
		if _, err := s.frame(ctx, width); err != nil {
			return err
		}
	}
	return nil
}
