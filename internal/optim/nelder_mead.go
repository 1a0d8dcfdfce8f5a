// Package optim holds derivative-free minimizers used to fit launch
// conditions: a Nelder-Mead simplex and an exhaustive grid.
package optim

import (
	"context"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/trajfit/internal/dynamo"
)

// Func is an objective. Errors abort the minimization.
type Func func(ctx context.Context, x []float64) (float64, error)

const (
	reflection  = 1.0
	expansion   = 2.0
	contraction = 0.5
	shrinkage   = 0.5
)

type Options struct {
	MaxIter   int     `yaml:"max_iter" json:"max_iter"`
	SpreadTol float64 `yaml:"spread_tol" json:"spread_tol"`
	// Target, when positive, additionally requires the best value to fall
	// below it before the simplex counts as converged.
	Target   float64 `yaml:"target" json:"target"`
	Parallel bool    `yaml:"parallel" json:"parallel"`
}

func DefaultOptions() Options {
	return Options{
		MaxIter:   200,
		SpreadTol: 1e-3,
	}
}

type Result struct {
	X           []float64 `json:"x"`
	F           float64   `json:"f"`
	Iterations  int       `json:"iterations"`
	Evaluations int       `json:"evaluations"`
	Converged   bool      `json:"converged"`
	History     []float64 `json:"history"`
}

type NelderMead struct {
	Options Options
}

func NewNelderMead(opts Options) *NelderMead {
	return &NelderMead{Options: opts}
}

type vertex struct {
	x []float64
	f float64
}

// Minimize searches for a minimum of f from the simplex spanned by x0 and
// x0+step[i]*e_i. When the iteration cap is hit the best point so far is
// returned together with an ErrOptimizationDivergence error.
func (nm *NelderMead) Minimize(ctx context.Context, f Func, x0, step []float64) (*Result, error) {
	n := len(x0)
	if n == 0 || len(step) != n {
		return nil, fmt.Errorf("%w: start has %d coordinates, step has %d", dynamo.ErrParameterBounds, n, len(step))
	}
	if nm.Options.MaxIter <= 0 {
		return nil, fmt.Errorf("%w: max_iter must be positive", dynamo.ErrParameterBounds)
	}

	res := &Result{History: make([]float64, 0, nm.Options.MaxIter)}
	eval := func(x []float64) (float64, error) {
		if err := ctx.Err(); err != nil {
			return 0, dynamo.Canceled(err)
		}
		res.Evaluations++
		v, err := f(ctx, x)
		if err != nil {
			return 0, fmt.Errorf("objective at %v: %w", x, err)
		}
		return v, nil
	}

	simplex := make([]vertex, n+1)
	for i := range simplex {
		simplex[i].x = make([]float64, n)
		copy(simplex[i].x, x0)
		if i > 0 {
			simplex[i].x[i-1] += step[i-1]
		}
	}
	if err := nm.evalAll(ctx, f, simplex, res); err != nil {
		return nil, err
	}

	centroid := make([]float64, n)
	dir := make([]float64, n)
	trial := func(scale float64) []float64 {
		p := make([]float64, n)
		floats.AddScaledTo(p, centroid, scale, dir)
		return p
	}

	for {
		sort.SliceStable(simplex, func(i, j int) bool { return simplex[i].f < simplex[j].f })
		best, worst := simplex[0], simplex[n]

		if nm.converged(best.f, worst.f) {
			res.Converged = true
			break
		}
		if res.Iterations >= nm.Options.MaxIter {
			break
		}

		copy(centroid, best.x)
		for _, v := range simplex[1:n] {
			floats.Add(centroid, v.x)
		}
		floats.Scale(1/float64(n), centroid)
		floats.SubTo(dir, centroid, worst.x)

		xr := trial(reflection)
		fr, err := eval(xr)
		if err != nil {
			return nil, err
		}

		switch {
		case fr < best.f:
			xe := trial(expansion)
			fe, err := eval(xe)
			if err != nil {
				return nil, err
			}
			if fe < fr {
				simplex[n] = vertex{xe, fe}
			} else {
				simplex[n] = vertex{xr, fr}
			}
		case fr < simplex[n-1].f:
			simplex[n] = vertex{xr, fr}
		default:
			outside := fr < worst.f
			var xc []float64
			if outside {
				xc = trial(contraction)
			} else {
				xc = trial(-contraction)
			}
			fc, err := eval(xc)
			if err != nil {
				return nil, err
			}
			if (outside && fc <= fr) || (!outside && fc < worst.f) {
				simplex[n] = vertex{xc, fc}
			} else if err := nm.shrink(ctx, f, simplex, res); err != nil {
				return nil, err
			}
		}

		res.Iterations++
		res.History = append(res.History, lowest(simplex))
	}

	res.X = append([]float64(nil), simplex[0].x...)
	res.F = simplex[0].f
	if !res.Converged {
		return res, fmt.Errorf("%w: no convergence after %d iterations (best f=%g)",
			dynamo.ErrOptimizationDivergence, res.Iterations, res.F)
	}
	return res, nil
}

func (nm *NelderMead) converged(best, worst float64) bool {
	if worst-best >= nm.Options.SpreadTol {
		return false
	}
	return nm.Options.Target <= 0 || best < nm.Options.Target
}

func (nm *NelderMead) shrink(ctx context.Context, f Func, simplex []vertex, res *Result) error {
	best := simplex[0].x
	for i := 1; i < len(simplex); i++ {
		x := simplex[i].x
		floats.SubTo(x, x, best)
		floats.Scale(shrinkage, x)
		floats.Add(x, best)
	}
	return nm.evalAll(ctx, f, simplex[1:], res)
}

// evalAll fills in f for every vertex, concurrently when Parallel is set.
func (nm *NelderMead) evalAll(ctx context.Context, f Func, vs []vertex, res *Result) error {
	if err := ctx.Err(); err != nil {
		return dynamo.Canceled(err)
	}
	errs := make([]error, len(vs))
	body := func(start, end int) {
		for i := start; i < end; i++ {
			vs[i].f, errs[i] = f(ctx, vs[i].x)
		}
	}
	if nm.Options.Parallel {
		dynamo.ParallelFor(len(vs), 1, body)
	} else {
		body(0, len(vs))
	}
	res.Evaluations += len(vs)

	for i, err := range errs {
		if err != nil {
			return fmt.Errorf("objective at %v: %w", vs[i].x, err)
		}
	}
	return nil
}

func lowest(simplex []vertex) float64 {
	m := simplex[0].f
	for _, v := range simplex[1:] {
		if v.f < m {
			m = v.f
		}
	}
	return m
}
