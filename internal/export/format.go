package export

import (
	"fmt"
	"io"

	"github.com/san-kum/trajfit/internal/dynamo"
	"github.com/san-kum/trajfit/internal/storage"
)

type Format string

const (
	JSON Format = "json"
	SVG  Format = "svg"
	PNG  Format = "png"
	HTML Format = "html"
)

var Formats = []Format{JSON, SVG, PNG, HTML}

func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: unknown export format %q", dynamo.ErrParameterBounds, s)
}

// Write renders a run in format f.
func Write(w io.Writer, f Format, meta *storage.RunMetadata, traj *storage.Trajectory) error {
	switch f {
	case JSON:
		return WriteJSON(w, meta, traj)
	case SVG:
		return WriteSVG(w, traj, 800, 400)
	case PNG:
		p, err := TrajectoryPlot(meta, traj)
		if err != nil {
			return err
		}
		return WritePNG(w, p, 8, 4)
	case HTML:
		return WriteHTML(w, meta, traj)
	default:
		return fmt.Errorf("%w: unknown export format %q", dynamo.ErrParameterBounds, f)
	}
}
