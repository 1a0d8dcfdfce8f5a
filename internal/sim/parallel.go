package sim

import (
	"context"

	"github.com/san-kum/trajfit/internal/dynamo"
)

// Ensemble flies many candidates concurrently. Members run without the base
// simulator's sinks.
type Ensemble struct {
	base *Simulator
}

func NewEnsemble(s *Simulator) *Ensemble {
	return &Ensemble{base: s}
}

func (e *Ensemble) Run(ctx context.Context, cands []Candidate, height float64) ([]*Result, error) {
	results := make([]*Result, len(cands))
	errs := make([]error, len(cands))

	dynamo.ParallelFor(len(cands), 1, func(start, end int) {
		sim := New(e.base.sys, e.base.stepper, e.base.opts, e.base.refiner)
		for i := start; i < end; i++ {
			results[i], errs[i] = sim.Run(ctx, cands[i], height)
		}
	})

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
