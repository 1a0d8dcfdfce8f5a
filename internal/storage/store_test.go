package storage

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/trajfit/internal/config"
	"github.com/san-kum/trajfit/internal/dynamo"
	"github.com/san-kum/trajfit/internal/fit"
	"github.com/san-kum/trajfit/internal/sim"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(filepath.Join(t.TempDir(), "runs"))
	require.NoError(t, s.Init())
	t.Cleanup(func() { s.Close() })
	return s
}

func testRun() (*RunMetadata, *Trajectory) {
	meta := &RunMetadata{
		Model:       "spin",
		Integrator:  "rk45",
		Observation: fit.ReferenceObservation(),
		Candidate:   sim.Candidate{Speed: 26.553, Angle: 0.4164},
		Value:       4.45e-4,
		Iterations:  28,
		Converged:   true,
		Metrics:     map[string]float64{"apex_m": 3.1},
		History:     []float64{10, 1, 0.1},
	}
	traj := &Trajectory{}
	traj.Record(0, dynamo.NewState(0, 1, 24.3, 10.7))
	traj.Record(0.03, dynamo.NewState(0.729, 1.316, 24.1, 10.4))
	traj.Record(1.0/3.0, dynamo.NewState(7.9, 4.0, 22.0, 0.1))
	return meta, traj
}

func TestStore_SaveLoad(t *testing.T) {
	s := newTestStore(t)
	meta, traj := testRun()

	id, err := s.Save(meta, traj)
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err, "run ids are uuids")
	assert.False(t, meta.Timestamp.IsZero())

	loaded, err := s.Load(id)
	require.NoError(t, err)
	assert.Equal(t, meta.Candidate, loaded.Candidate)
	assert.Equal(t, meta.Observation, loaded.Observation)
	assert.Equal(t, meta.History, loaded.History)
	assert.Equal(t, 3.1, loaded.Metrics["apex_m"])
	assert.True(t, loaded.Timestamp.Equal(meta.Timestamp))

	got, err := s.LoadTrajectory(id)
	require.NoError(t, err)
	require.Len(t, got.Samples, 3)
	// 'g' -1 formatting round-trips exactly.
	assert.Equal(t, traj.Samples, got.Samples)

	xs, zs := got.Positions()
	assert.Equal(t, []float64{0, 0.729, 7.9}, xs)
	assert.Equal(t, []float64{1, 1.316, 4.0}, zs)
}

func TestStore_ListNewestFirst(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, model := range []string{"vacuum", "drag", "spin"} {
		meta, _ := testRun()
		meta.Model = model
		meta.Timestamp = base.Add(time.Duration(i) * time.Minute)
		_, err := s.Save(meta, nil)
		require.NoError(t, err)
	}

	runs, err := s.List()
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "spin", runs[0].Model)
	assert.Equal(t, "vacuum", runs[2].Model)
	assert.True(t, runs[0].Converged)
	assert.InDelta(t, 26.553, runs[0].Speed, 1e-12)
	assert.True(t, runs[1].Timestamp.Equal(base.Add(time.Minute)))
}

func TestStore_Resolve(t *testing.T) {
	s := newTestStore(t)

	a, _ := testRun()
	a.ID = "aaaa1111-0000-0000-0000-000000000000"
	b, _ := testRun()
	b.ID = "aaaa2222-0000-0000-0000-000000000000"
	for _, m := range []*RunMetadata{a, b} {
		_, err := s.Save(m, nil)
		require.NoError(t, err)
	}

	id, err := s.Resolve("aaaa1")
	require.NoError(t, err)
	assert.Equal(t, a.ID, id)

	id, err = s.Resolve(b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, id)

	_, err = s.Resolve("aaaa")
	assert.ErrorIs(t, err, ErrAmbiguousRun)
	_, err = s.Resolve("ffff")
	assert.ErrorIs(t, err, ErrRunNotFound)
	_, err = s.Resolve("")
	assert.ErrorIs(t, err, ErrRunNotFound)
	_, err = s.Resolve("%")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestStore_Delete(t *testing.T) {
	s := newTestStore(t)
	meta, traj := testRun()
	id, err := s.Save(meta, traj)
	require.NoError(t, err)

	require.NoError(t, s.Delete(id))
	_, err = os.Stat(filepath.Join(s.Dir(), id))
	assert.True(t, os.IsNotExist(err))

	runs, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, runs)

	assert.ErrorIs(t, s.Delete(id), ErrRunNotFound)
}

func TestStore_Missing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Load("nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
	_, err = s.LoadTrajectory("nope")
	assert.ErrorIs(t, err, ErrRunNotFound)

	meta, _ := testRun()
	id, err := s.Save(meta, nil)
	require.NoError(t, err)
	_, err = s.LoadTrajectory(id)
	assert.ErrorIs(t, err, ErrRunNotFound, "saved without a trajectory")
}

func TestStore_CorruptTrajectory(t *testing.T) {
	s := newTestStore(t)
	meta, traj := testRun()
	id, err := s.Save(meta, traj)
	require.NoError(t, err)

	path := filepath.Join(s.Dir(), id, trajectoryFile)
	require.NoError(t, os.WriteFile(path, []byte("t,x,z,vx,vz\n0,1,2,3,oops\n"), 0o644))
	_, err = s.LoadTrajectory(id)
	assert.Error(t, err)
}

func TestStore_NotInitialized(t *testing.T) {
	s := New(t.TempDir())
	meta, _ := testRun()

	_, err := s.Save(meta, nil)
	assert.Error(t, err)
	_, err = s.List()
	assert.Error(t, err)
	assert.NoError(t, s.Close())
}

func TestStore_DuplicateID(t *testing.T) {
	s := newTestStore(t)
	meta, _ := testRun()
	meta.ID = "fixed"
	_, err := s.Save(meta, nil)
	require.NoError(t, err)
	_, err = s.Save(meta, nil)
	assert.ErrorIs(t, err, ErrRunExists)

	loaded, err := s.Load("fixed")
	require.NoError(t, err, "a rejected save must keep the existing run")
	assert.Equal(t, meta.Candidate, loaded.Candidate)
}

func TestStore_FailedSaveLeavesNoDirectory(t *testing.T) {
	s := newTestStore(t)
	meta, traj := testRun()
	meta.ID = "orphan"
	require.NoError(t, s.index.Close())

	_, err := s.Save(meta, traj)
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(s.Dir(), "orphan"))
	assert.True(t, os.IsNotExist(statErr), "run directory left behind: %v", statErr)
}

func TestNewRunMetadata(t *testing.T) {
	cfg := config.GetPreset("topspin")
	sol := &fit.Solution{
		Candidate:   sim.Candidate{Speed: 27, Angle: math.Pi / 7},
		Value:       2e-4,
		Iterations:  30,
		Evaluations: 58,
		Elapsed:     1500 * time.Microsecond,
		Converged:   true,
		Result:      &sim.Result{Distance: 25.01, Seconds: 1.36},
	}

	meta := NewRunMetadata(cfg, sol, map[string]float64{"apex_m": 2})
	assert.Equal(t, cfg.Model, meta.Model)
	assert.Equal(t, cfg.Spin.Rate, meta.SpinRate)
	assert.Equal(t, 1.5, meta.ElapsedMS)
	assert.Equal(t, 25.01, meta.Distance)
	assert.Empty(t, meta.ID)
}

func TestIndex_Reopen(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	require.NoError(t, s.Init())
	meta, _ := testRun()
	_, err := s.Save(meta, nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s2 := New(dir)
	require.NoError(t, s2.Init())
	defer s2.Close()
	runs, err := s2.List()
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
