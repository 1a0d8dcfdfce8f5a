// Package trajlog writes trajectory samples as plain "x z" text files, one
// file per simulated candidate.
package trajlog

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/san-kum/trajfit/internal/dynamo"
	"github.com/san-kum/trajfit/internal/sim"
)

// FileName is the per-candidate log name, with speed in m/s and angle in
// degrees.
func FileName(c sim.Candidate) string {
	return fmt.Sprintf("sim%04.1f-%04.1f.dat", c.Speed, c.AngleDegrees())
}

// File is a trajectory log. Errors from Record and Close are sticky.
type File struct {
	path    string
	f       *os.File
	w       *bufio.Writer
	err     error
	release func()
}

func Create(path string) (*File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create trajectory log: %w", err)
	}
	return &File{path: path, f: f, w: bufio.NewWriter(f)}, nil
}

// Open creates the log for candidate c inside dir.
func Open(dir string, c sim.Candidate) (*File, error) {
	return Create(filepath.Join(dir, FileName(c)))
}

func (l *File) Path() string { return l.path }

func (l *File) Record(t float64, x dynamo.State) error {
	if l.err != nil {
		return l.err
	}
	if _, err := fmt.Fprintf(l.w, "%.14g %.14g\n", x[dynamo.X], x[dynamo.Z]); err != nil {
		l.err = fmt.Errorf("write %s: %w", l.path, err)
	}
	return l.err
}

func (l *File) Close() error {
	if l.f == nil {
		return l.err
	}
	ferr := l.w.Flush()
	cerr := l.f.Close()
	l.f = nil
	if l.release != nil {
		l.release()
		l.release = nil
	}
	if l.err != nil {
		return l.err
	}
	if ferr != nil {
		l.err = fmt.Errorf("flush %s: %w", l.path, ferr)
	} else if cerr != nil {
		l.err = fmt.Errorf("close %s: %w", l.path, cerr)
	}
	return l.err
}

// Factory returns a constructor that opens one log per candidate in dir
// and reports each new path to notify, if set. It is safe for concurrent
// use: while a log is open, another candidate that rounds to the same name
// gets a numbered file (sim24.6-26.5_2.dat) instead of sharing it.
func Factory(dir string, notify func(path string)) func(sim.Candidate) (*File, error) {
	var (
		mu   sync.Mutex
		busy = make(map[string]bool)
	)
	claim := func(c sim.Candidate) string {
		mu.Lock()
		defer mu.Unlock()
		base := FileName(c)
		name := base
		for n := 2; busy[name]; n++ {
			name = fmt.Sprintf("%s_%d.dat", strings.TrimSuffix(base, ".dat"), n)
		}
		busy[name] = true
		return name
	}

	return func(c sim.Candidate) (*File, error) {
		name := claim(c)
		release := func() {
			mu.Lock()
			delete(busy, name)
			mu.Unlock()
		}

		f, err := Create(filepath.Join(dir, name))
		if err != nil {
			release()
			return nil, err
		}
		f.release = release
		if notify != nil {
			notify(f.Path())
		}
		return f, nil
	}
}
