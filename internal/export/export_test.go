package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/san-kum/trajfit/internal/dynamo"
	"github.com/san-kum/trajfit/internal/fit"
	"github.com/san-kum/trajfit/internal/sim"
	"github.com/san-kum/trajfit/internal/storage"
)

func testRun() (*storage.RunMetadata, *storage.Trajectory) {
	meta := &storage.RunMetadata{
		ID:          "run-1",
		Model:       "spin",
		Observation: fit.ReferenceObservation(),
		Candidate:   sim.Candidate{Speed: 26.5, Angle: 0.41},
		Value:       4e-4,
		Iterations:  3,
		Converged:   true,
		History:     []float64{5, 0.2, 4e-4},
	}
	traj := &storage.Trajectory{}
	for i := 0; i <= 10; i++ {
		x := 2.5 * float64(i)
		traj.Record(float64(i)*0.136, dynamo.NewState(x, 1+0.4*x-0.02*x*x, 20, 5))
	}
	return meta, traj
}

func TestTrajectoryToSVG(t *testing.T) {
	_, traj := testRun()
	svg := TrajectoryToSVG(TrajectoryPoints(traj), 800, 400, "#00ff00")

	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatalf("not an svg document: %.60q", svg)
	}
	if n := strings.Count(svg, " L"); n != len(traj.Samples)-1 {
		t.Errorf("path has %d segments, want %d", n, len(traj.Samples)-1)
	}
	if !strings.Contains(svg, `stroke="#00ff00"`) {
		t.Error("stroke color missing")
	}
	if TrajectoryToSVG([]Point{{1, 1}}, 10, 10, "red") != "" {
		t.Error("single point should render nothing")
	}
}

func TestWriteSVG_TooShort(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSVG(&buf, &storage.Trajectory{}, 100, 100); err == nil {
		t.Error("expected error for empty trajectory")
	}
}

func TestWritePNG(t *testing.T) {
	meta, traj := testRun()
	p, err := TrajectoryPlot(meta, traj)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WritePNG(&buf, p, 2, 1); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG\r\n\x1a\n")) {
		t.Error("missing png signature")
	}
}

func TestWriteHTML(t *testing.T) {
	meta, traj := testRun()
	var buf bytes.Buffer
	if err := WriteHTML(&buf, meta, traj); err != nil {
		t.Fatal(err)
	}
	html := buf.String()
	for _, want := range []string{"echarts", "Trajectory", "Convergence", "run-1"} {
		if !strings.Contains(html, want) {
			t.Errorf("html missing %q", want)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	meta, traj := testRun()
	var buf bytes.Buffer
	if err := WriteJSON(&buf, meta, traj); err != nil {
		t.Fatal(err)
	}

	var got ExportData
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Steps != 11 || got.Run.ID != "run-1" || got.Trajectory[10].X != 25 {
		t.Errorf("unexpected export %+v", got)
	}

	buf.Reset()
	if err := WriteJSON(&buf, meta, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"steps": 0`) {
		t.Error("metadata-only export should have zero steps")
	}
}

func TestParseFormat(t *testing.T) {
	for _, f := range Formats {
		got, err := ParseFormat(string(f))
		if err != nil || got != f {
			t.Errorf("ParseFormat(%q) = %q, %v", f, got, err)
		}
	}
	if _, err := ParseFormat("gif"); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("gif: got %v", err)
	}
}

func TestWrite_AllFormats(t *testing.T) {
	meta, traj := testRun()
	for _, f := range Formats {
		var buf bytes.Buffer
		if err := Write(&buf, f, meta, traj); err != nil {
			t.Errorf("%s: %v", f, err)
		}
		if buf.Len() == 0 {
			t.Errorf("%s: empty output", f)
		}
	}
	if err := Write(&bytes.Buffer{}, Format("bmp"), meta, traj); err == nil {
		t.Error("expected error for unknown format")
	}
}
