package trajlog

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/san-kum/trajfit/internal/dynamo"
	"github.com/san-kum/trajfit/internal/event"
	"github.com/san-kum/trajfit/internal/integrators"
	"github.com/san-kum/trajfit/internal/physics"
	"github.com/san-kum/trajfit/internal/sim"
)

func TestFileName(t *testing.T) {
	tests := []struct {
		c    sim.Candidate
		want string
	}{
		{sim.Candidate{Speed: 0, Angle: 0}, "sim00.0-00.0.dat"},
		{sim.Candidate{Speed: 26.55, Angle: 23.86 * math.Pi / 180}, "sim26.6-23.9.dat"},
		{sim.Candidate{Speed: 1, Angle: 1}, "sim01.0-57.3.dat"},
		{sim.Candidate{Speed: 120.25, Angle: 0.5 * math.Pi / 180}, "sim120.2-00.5.dat"},
	}
	for _, tt := range tests {
		if got := FileName(tt.c); got != tt.want {
			t.Errorf("FileName(%+v) = %q, want %q", tt.c, got, tt.want)
		}
	}
}

func TestFile_RecordsSimulation(t *testing.T) {
	dir := t.TempDir()
	c := sim.Candidate{Speed: 12, Angle: 0.4}

	f, err := Open(dir, c)
	if err != nil {
		t.Fatal(err)
	}

	sys, _ := physics.New(physics.Drag, physics.DefaultParams())
	s := sim.New(sys, integrators.NewRK45(), integrators.DefaultOptions(), event.DefaultRefiner())
	s.AddSink(f)
	res, err := s.Run(context.Background(), c, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, FileName(c)))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if first := strings.Fields(lines[0]); len(first) != 2 || first[0] == "0" {
		t.Errorf("first line = %q, want the first frame end, not the launch point", lines[0])
	}
	if len(lines) < 2 {
		t.Errorf("too few samples: %d", len(lines))
	}
	last := fmt.Sprintf("%.14g %.14g", res.Crossing[dynamo.X], res.Crossing[dynamo.Z])
	if lines[len(lines)-1] != last {
		t.Errorf("last line = %q, want crossing %q", lines[len(lines)-1], last)
	}
	for i, line := range lines {
		if len(strings.Fields(line)) != 2 {
			t.Errorf("line %d = %q, want two columns", i, line)
		}
	}
}

func TestFile_Errors(t *testing.T) {
	if _, err := Create(filepath.Join(t.TempDir(), "missing", "x.dat")); err == nil {
		t.Error("expected error creating a log in a missing directory")
	}

	f, err := Create(filepath.Join(t.TempDir(), "x.dat"))
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}

	// writes land in the buffer, so the closed descriptor only shows up on flush
	f2, err := Create(filepath.Join(t.TempDir(), "y.dat"))
	if err != nil {
		t.Fatal(err)
	}
	f2.f.Close()
	if err := f2.Record(0, dynamo.NewState(1, 2, 0, 0)); err != nil {
		t.Fatalf("buffered Record = %v", err)
	}
	if err := f2.Close(); err == nil {
		t.Error("expected flush error on a closed descriptor")
	}
}

func TestFactory(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	open := Factory(dir, func(p string) { paths = append(paths, p) })

	f, err := open(sim.Candidate{Speed: 3, Angle: 0})
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if len(paths) != 1 || filepath.Base(paths[0]) != "sim03.0-00.0.dat" {
		t.Errorf("notified paths = %v", paths)
	}
}

func TestFactory_ConcurrentSameName(t *testing.T) {
	dir := t.TempDir()
	open := Factory(dir, nil)
	a := sim.Candidate{Speed: 24.61, Angle: 0.4625}
	b := sim.Candidate{Speed: 24.64, Angle: 0.4626}
	if FileName(a) != FileName(b) {
		t.Fatalf("candidates should round to one name: %s, %s", FileName(a), FileName(b))
	}

	fa, err := open(a)
	if err != nil {
		t.Fatal(err)
	}
	fb, err := open(b)
	if err != nil {
		t.Fatal(err)
	}
	if fa.Path() == fb.Path() {
		t.Fatalf("open logs share %s", fa.Path())
	}
	if got := filepath.Base(fb.Path()); got != strings.TrimSuffix(FileName(a), ".dat")+"_2.dat" {
		t.Errorf("second log = %s", got)
	}
	if err := fa.Close(); err != nil {
		t.Fatal(err)
	}
	if err := fb.Close(); err != nil {
		t.Fatal(err)
	}

	fc, err := open(a)
	if err != nil {
		t.Fatal(err)
	}
	defer fc.Close()
	if filepath.Base(fc.Path()) != FileName(a) {
		t.Errorf("closed name not reused: %s", fc.Path())
	}
}

func TestFactory_ConcurrentOpens(t *testing.T) {
	dir := t.TempDir()
	open := Factory(dir, nil)

	var wg sync.WaitGroup
	files := make([]*File, 8)
	errs := make([]error, 8)
	for i := range files {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			files[i], errs[i] = open(sim.Candidate{Speed: 10, Angle: 0.1})
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for i, f := range files {
		if errs[i] != nil {
			t.Fatal(errs[i])
		}
		if seen[f.Path()] {
			t.Errorf("path %s opened twice", f.Path())
		}
		seen[f.Path()] = true
		if err := f.Close(); err != nil {
			t.Error(err)
		}
	}
}
