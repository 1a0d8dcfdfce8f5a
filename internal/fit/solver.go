package fit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/san-kum/trajfit/internal/dynamo"
	"github.com/san-kum/trajfit/internal/optim"
	"github.com/san-kum/trajfit/internal/sim"
)

// DefaultOptimizerOptions stops once the simplex has collapsed and the best
// objective value is below 1e-3, or after 200 iterations.
func DefaultOptimizerOptions() optim.Options {
	opts := optim.DefaultOptions()
	opts.Target = 1e-3
	return opts
}

type Solver struct {
	Objective *Objective
	Optimizer *optim.NelderMead
	Start     sim.Candidate
	Steps     sim.Candidate
}

func NewSolver(obj *Objective) *Solver {
	return &Solver{
		Objective: obj,
		Optimizer: optim.NewNelderMead(DefaultOptimizerOptions()),
		Start:     sim.Candidate{Speed: 0, Angle: 0},
		Steps:     sim.Candidate{Speed: 1, Angle: 1},
	}
}

type Solution struct {
	Candidate   sim.Candidate `json:"candidate"`
	Value       float64       `json:"value"`
	Iterations  int           `json:"iterations"`
	Evaluations int           `json:"evaluations"`
	Elapsed     time.Duration `json:"elapsed"`
	Converged   bool          `json:"converged"`
	History     []float64     `json:"history"`
	Result      *sim.Result   `json:"result"`
}

// Solve fits the observation. If the optimizer gives up, the best candidate
// found is still returned along with the divergence error.
func (s *Solver) Solve(ctx context.Context) (*Solution, error) {
	if err := s.Objective.Obs.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := s.Optimizer.Minimize(ctx, s.Objective.Func(), s.Start.Vector(), s.Steps.Vector())
	elapsed := time.Since(start)
	if res == nil {
		return nil, err
	}
	if err != nil && !errors.Is(err, dynamo.ErrOptimizationDivergence) {
		return nil, err
	}

	sol := &Solution{
		Candidate:   sim.CandidateFrom(res.X),
		Value:       res.F,
		Iterations:  res.Iterations,
		Evaluations: res.Evaluations,
		Elapsed:     elapsed,
		Converged:   res.Converged,
		History:     res.History,
	}

	final, simErr := s.Objective.Sim.Run(ctx, sol.Candidate, s.Objective.Obs.Height())
	if simErr != nil {
		return nil, fmt.Errorf("simulate fitted candidate: %w", simErr)
	}
	sol.Result = final

	return sol, err
}
