// Package storage persists fitted runs: one directory per run holding the
// metadata and the fitted trajectory, plus a SQLite index for listing.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/trajfit/internal/config"
	"github.com/san-kum/trajfit/internal/dynamo"
	"github.com/san-kum/trajfit/internal/fit"
	"github.com/san-kum/trajfit/internal/sim"
)

const (
	metadataFile   = "metadata.json"
	trajectoryFile = "trajectory.csv"
	indexFile      = "runs.db"
)

var (
	ErrRunNotFound  = errors.New("run not found")
	ErrAmbiguousRun = errors.New("run id prefix is ambiguous")
	ErrRunExists    = errors.New("run already exists")
)

type Store struct {
	baseDir string
	index   *Index
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Init creates the data directory and opens the run index.
func (s *Store) Init() error {
	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return err
	}
	index, err := OpenIndex(filepath.Join(s.baseDir, indexFile))
	if err != nil {
		return fmt.Errorf("open run index: %w", err)
	}
	s.index = index
	return nil
}

func (s *Store) Close() error {
	if s.index == nil {
		return nil
	}
	err := s.index.Close()
	s.index = nil
	return err
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID          string             `json:"id"`
	Timestamp   time.Time          `json:"timestamp"`
	Model       string             `json:"model"`
	Integrator  string             `json:"integrator"`
	Observation fit.Observation    `json:"observation"`
	SpinRate    float64            `json:"spin_rate"`
	SpinDir     float64            `json:"spin_direction"`
	Candidate   sim.Candidate      `json:"candidate"`
	Value       float64            `json:"value"`
	Iterations  int                `json:"iterations"`
	Evaluations int                `json:"evaluations"`
	ElapsedMS   float64            `json:"elapsed_ms"`
	Converged   bool               `json:"converged"`
	Distance    float64            `json:"distance"`
	Seconds     float64            `json:"seconds"`
	Metrics     map[string]float64 `json:"metrics"`
	History     []float64          `json:"history"`
}

// NewRunMetadata describes a fit of cfg's observation. The ID and timestamp
// are filled in by Save.
func NewRunMetadata(cfg *config.Config, sol *fit.Solution, metrics map[string]float64) *RunMetadata {
	meta := &RunMetadata{
		Model:       cfg.Model,
		Integrator:  cfg.Integrator,
		Observation: cfg.Observation,
		SpinRate:    cfg.Spin.Rate,
		SpinDir:     cfg.Spin.Direction,
		Candidate:   sol.Candidate,
		Value:       sol.Value,
		Iterations:  sol.Iterations,
		Evaluations: sol.Evaluations,
		ElapsedMS:   float64(sol.Elapsed) / float64(time.Millisecond),
		Converged:   sol.Converged,
		Metrics:     metrics,
		History:     sol.History,
	}
	if sol.Result != nil {
		meta.Distance = sol.Result.Distance
		meta.Seconds = sol.Result.Seconds
	}
	return meta
}

// Sample is one row of a stored trajectory.
type Sample struct {
	T  float64 `json:"t"`
	X  float64 `json:"x"`
	Z  float64 `json:"z"`
	VX float64 `json:"vx"`
	VZ float64 `json:"vz"`
}

// Trajectory collects samples from a simulation. It satisfies sim.Sink.
type Trajectory struct {
	Samples []Sample `json:"samples"`
}

func (tr *Trajectory) Record(t float64, x dynamo.State) error {
	tr.Samples = append(tr.Samples, Sample{T: t, X: x[dynamo.X], Z: x[dynamo.Z], VX: x[dynamo.VX], VZ: x[dynamo.VZ]})
	return nil
}

// Launch records the launch state at t=0.
func (tr *Trajectory) Launch(x dynamo.State) error {
	return tr.Record(0, x)
}

// Positions returns the x and z columns.
func (tr *Trajectory) Positions() (xs, zs []float64) {
	xs = make([]float64, len(tr.Samples))
	zs = make([]float64, len(tr.Samples))
	for i, s := range tr.Samples {
		xs[i], zs[i] = s.X, s.Z
	}
	return xs, zs
}

// Save writes a run and indexes it. An empty ID is replaced with a fresh
// UUID and a zero timestamp with the current time. A failed save leaves no
// run directory behind.
func (s *Store) Save(meta *RunMetadata, traj *Trajectory) (id string, err error) {
	if s.index == nil {
		return "", fmt.Errorf("store not initialized")
	}
	if meta.ID == "" {
		meta.ID = uuid.New().String()
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}

	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return "", err
	}
	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.Mkdir(runDir, 0755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrRunExists, meta.ID)
		}
		return "", err
	}
	defer func() {
		if err != nil {
			os.RemoveAll(runDir)
		}
	}()

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if traj != nil {
		if err := writeTrajectory(filepath.Join(runDir, trajectoryFile), traj); err != nil {
			return "", err
		}
	}

	if err := s.index.Insert(meta); err != nil {
		return "", fmt.Errorf("index run %s: %w", meta.ID, err)
	}
	return meta.ID, nil
}

func writeJSON(path string, v any) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTrajectory(path string, traj *Trajectory) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"t", "x", "z", "vx", "vz"}); err != nil {
		return err
	}
	for _, smp := range traj.Samples {
		row := []string{
			strconv.FormatFloat(smp.T, 'g', -1, 64),
			strconv.FormatFloat(smp.X, 'g', -1, 64),
			strconv.FormatFloat(smp.Z, 'g', -1, 64),
			strconv.FormatFloat(smp.VX, 'g', -1, 64),
			strconv.FormatFloat(smp.VZ, 'g', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns the indexed runs, newest first.
func (s *Store) List() ([]RunSummary, error) {
	if s.index == nil {
		return nil, fmt.Errorf("store not initialized")
	}
	return s.index.List()
}

// Resolve expands a unique ID prefix into a full run ID.
func (s *Store) Resolve(prefix string) (string, error) {
	if s.index == nil {
		return "", fmt.Errorf("store not initialized")
	}
	return s.index.Resolve(prefix)
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse metadata of %s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadTrajectory(runID string) (*Trajectory, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, trajectoryFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: no trajectory for %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = 5

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	traj := &Trajectory{}
	if len(records) < 2 {
		return traj, nil
	}
	traj.Samples = make([]Sample, 0, len(records)-1)
	for i, record := range records[1:] {
		var v [5]float64
		for j := range v {
			if v[j], err = strconv.ParseFloat(record[j], 64); err != nil {
				return nil, fmt.Errorf("%s line %d: %w", trajectoryFile, i+2, err)
			}
		}
		traj.Samples = append(traj.Samples, Sample{T: v[0], X: v[1], Z: v[2], VX: v[3], VZ: v[4]})
	}
	return traj, nil
}

// Delete removes a run from disk and from the index.
func (s *Store) Delete(runID string) error {
	if s.index == nil {
		return fmt.Errorf("store not initialized")
	}
	if err := s.index.Delete(runID); err != nil {
		return err
	}
	return os.RemoveAll(filepath.Join(s.baseDir, runID))
}
