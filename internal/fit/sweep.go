package fit

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"

	"github.com/san-kum/trajfit/internal/optim"
)

// DefaultSweepAxes covers speeds 0..79 m/s and angles 0..49 degrees in
// unit steps.
func DefaultSweepAxes() (speed, angle optim.Axis) {
	return optim.Axis{Name: "speed", Start: 0, Step: 1, Count: 80},
		optim.Axis{Name: "angle", Start: 0, Step: math.Pi / 180, Count: 50}
}

// Sweep evaluates the objective over a speed/angle grid. Diagnostic hooks
// on obj are not used.
func Sweep(ctx context.Context, obj *Objective, speed, angle optim.Axis) (*optim.GridResult, error) {
	plain := *obj
	plain.SinkFactory = nil
	plain.OnEval = nil

	return optim.NewGridSearch(speed, angle).Search(ctx, plain.Func())
}

// WriteSurface writes "speed angle error" lines with the angle in degrees
// and a blank line after every speed row.
func WriteSurface(w io.Writer, grid *optim.GridResult) error {
	if len(grid.Axes) != 2 {
		return fmt.Errorf("error surface needs 2 axes, got %d", len(grid.Axes))
	}
	perRow := grid.Axes[1].Count

	bw := bufio.NewWriter(w)
	for i, s := range grid.Samples {
		if _, err := fmt.Fprintf(bw, "%.14g %.14g %.14g\n", s.X[0], s.X[1]*180/math.Pi, s.F); err != nil {
			return err
		}
		if (i+1)%perRow == 0 {
			if _, err := fmt.Fprintln(bw); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}
