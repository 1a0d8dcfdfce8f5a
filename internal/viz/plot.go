package viz

import (
	"math"
	"sort"

	"github.com/guptarohit/asciigraph"
)

// Resample interpolates z(x) onto n evenly spaced x positions so a
// trajectory can be drawn by a chart that assumes uniform spacing.
func Resample(xs, zs []float64, n int) []float64 {
	if len(xs) == 0 || n <= 0 {
		return nil
	}
	if len(xs) == 1 || n == 1 {
		return []float64{zs[0]}
	}

	x0, x1 := xs[0], xs[len(xs)-1]
	out := make([]float64, n)
	for i := range out {
		x := x0 + (x1-x0)*float64(i)/float64(n-1)
		j := sort.SearchFloat64s(xs, x)
		switch {
		case j == 0:
			out[i] = zs[0]
		case j >= len(xs):
			out[i] = zs[len(zs)-1]
		default:
			dx := xs[j] - xs[j-1]
			if dx == 0 {
				out[i] = zs[j]
				continue
			}
			f := (x - xs[j-1]) / dx
			out[i] = zs[j-1] + f*(zs[j]-zs[j-1])
		}
	}
	return out
}

// TrajectoryGraph draws height against distance.
func TrajectoryGraph(xs, zs []float64, width, height int, caption string) string {
	data := Resample(xs, zs, width)
	if len(data) == 0 {
		return ""
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.LowerBound(0),
		asciigraph.Caption(caption),
	)
}

// ConvergenceGraph draws log10 of the best objective value per iteration.
func ConvergenceGraph(history []float64, width, height int) string {
	if len(history) == 0 {
		return ""
	}
	data := make([]float64, len(history))
	for i, f := range history {
		data[i] = math.Log10(math.Max(f, 1e-300))
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption("log10 best error per iteration"),
	)
}
