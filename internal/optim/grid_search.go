package optim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/trajfit/internal/dynamo"
)

// Axis is an evenly spaced set of Count values starting at Start.
type Axis struct {
	Name  string  `yaml:"name" json:"name"`
	Start float64 `yaml:"start" json:"start"`
	Step  float64 `yaml:"step" json:"step"`
	Count int     `yaml:"count" json:"count"`
}

func (a Axis) Values() []float64 {
	vals := make([]float64, a.Count)
	for i := range vals {
		vals[i] = a.Start + float64(i)*a.Step
	}
	return vals
}

type Sample struct {
	X []float64 `json:"x"`
	F float64   `json:"f"`
}

type GridResult struct {
	Axes    []Axis   `json:"axes"`
	Samples []Sample `json:"samples"`
	Best    Sample   `json:"best"`
}

// GridSearch evaluates f at every point of the cartesian product of its
// axes. Samples are ordered with the last axis varying fastest.
type GridSearch struct {
	axes     []Axis
	parallel bool
}

func NewGridSearch(axes ...Axis) *GridSearch {
	return &GridSearch{axes: axes, parallel: true}
}

// Serial disables concurrent evaluation.
func (g *GridSearch) Serial() *GridSearch {
	g.parallel = false
	return g
}

func (g *GridSearch) Search(ctx context.Context, f Func) (*GridResult, error) {
	if len(g.axes) == 0 {
		return nil, fmt.Errorf("%w: grid has no axes", dynamo.ErrParameterBounds)
	}
	for _, a := range g.axes {
		if a.Count <= 0 {
			return nil, fmt.Errorf("%w: axis %q has no points", dynamo.ErrParameterBounds, a.Name)
		}
	}

	points := make([][]float64, 0)
	g.searchRecursive(0, make([]float64, 0, len(g.axes)), &points)

	samples := make([]Sample, len(points))
	errs := make([]error, len(points))
	body := func(start, end int) {
		for i := start; i < end; i++ {
			if err := ctx.Err(); err != nil {
				errs[i] = dynamo.Canceled(err)
				return
			}
			samples[i].X = points[i]
			samples[i].F, errs[i] = f(ctx, points[i])
		}
	}
	if g.parallel {
		dynamo.ParallelFor(len(points), 8, body)
	} else {
		body(0, len(points))
	}

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("grid point %v: %w", points[i], err)
		}
	}

	res := &GridResult{Axes: g.axes, Samples: samples, Best: Sample{F: math.Inf(1)}}
	for _, s := range samples {
		if s.F < res.Best.F {
			res.Best = s
		}
	}
	return res, nil
}

func (g *GridSearch) searchRecursive(depth int, current []float64, points *[][]float64) {
	if depth == len(g.axes) {
		p := make([]float64, len(current))
		copy(p, current)
		*points = append(*points, p)
		return
	}

	for _, val := range g.axes[depth].Values() {
		g.searchRecursive(depth+1, append(current, val), points)
	}
}
