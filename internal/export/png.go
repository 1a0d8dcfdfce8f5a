package export

import (
	"bufio"
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/trajfit/internal/storage"
	"github.com/san-kum/trajfit/internal/units"
)

// TrajectoryPlot builds a height-over-distance plot of the run.
func TrajectoryPlot(meta *storage.RunMetadata, traj *storage.Trajectory) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s: %.2f m/s at %.2f deg", meta.Model, meta.Candidate.Speed, units.Degrees(meta.Candidate.Angle))
	p.X.Label.Text = "distance (m)"
	p.Y.Label.Text = "height (m)"
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(traj.Samples))
	for i, s := range traj.Samples {
		pts[i].X = s.X
		pts[i].Y = s.Z
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("cannot create line plot: %w", err)
	}
	line.LineStyle.Width = vg.Points(2)
	line.LineStyle.Color = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	p.Add(line)
	p.Legend.Add("trajectory", line)

	bounce := plotter.XYs{{X: meta.Observation.Distance(), Y: 0}}
	mark, err := plotter.NewScatter(bounce)
	if err != nil {
		return nil, fmt.Errorf("cannot create bounce marker: %w", err)
	}
	mark.GlyphStyle.Color = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	mark.GlyphStyle.Radius = vg.Points(4)
	p.Add(mark)
	p.Legend.Add("observed bounce", mark)

	return p, nil
}

// WritePNG renders p at 300 DPI. Sizes are in inches.
func WritePNG(w io.Writer, p *plot.Plot, widthIn, heightIn float64) error {
	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(widthIn)*vg.Inch, vg.Length(heightIn)*vg.Inch),
		vgimg.UseDPI(300),
	)
	p.Draw(draw.New(c))

	bw := bufio.NewWriter(w)
	png := vgimg.PngCanvas{Canvas: c}
	if _, err := png.WriteTo(bw); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return bw.Flush()
}
