package export

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/san-kum/trajfit/internal/storage"
	"github.com/san-kum/trajfit/internal/units"
)

// WriteHTML renders a page with the fitted trajectory and the optimizer's
// convergence history.
func WriteHTML(w io.Writer, meta *storage.RunMetadata, traj *storage.Trajectory) error {
	page := components.NewPage()
	page.PageTitle = "trajfit " + meta.ID
	page.AddCharts(trajectoryChart(meta, traj), convergenceChart(meta))
	return page.Render(w)
}

func trajectoryChart(meta *storage.RunMetadata, traj *storage.Trajectory) *charts.Scatter {
	data := make([]opts.ScatterData, 0, len(traj.Samples))
	for _, s := range traj.Samples {
		data = append(data, opts.ScatterData{Value: []interface{}{s.X, s.Z}})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "450px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Trajectory",
			Subtitle: fmt.Sprintf("model=%s speed=%.3f m/s angle=%.3f deg", meta.Model, meta.Candidate.Speed, units.Degrees(meta.Candidate.Angle)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "distance (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "height (m)", NameLocation: "middle", NameGap: 30}),
	)
	scatter.AddSeries("trajectory", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))
	return scatter
}

func convergenceChart(meta *storage.RunMetadata) *charts.Line {
	iters := make([]int, len(meta.History))
	data := make([]opts.LineData, len(meta.History))
	for i, f := range meta.History {
		iters[i] = i + 1
		data[i] = opts.LineData{Value: f}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "450px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Convergence",
			Subtitle: fmt.Sprintf("iterations=%d best=%.3g converged=%t", meta.Iterations, meta.Value, meta.Converged),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "iteration"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "log", Name: "best error"}),
	)
	line.SetXAxis(iters).AddSeries("best", data)
	return line
}
