package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Index is the SQLite table of saved runs.
type Index struct {
	db *sql.DB
}

type RunSummary struct {
	ID        string
	Timestamp time.Time
	Model     string
	Speed     float64
	Angle     float64
	Value     float64
	Converged bool
}

func OpenIndex(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id     TEXT PRIMARY KEY,
			created_ns INTEGER NOT NULL,
			model      TEXT NOT NULL,
			speed      REAL,
			angle      REAL,
			value      REAL,
			converged  INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_ns);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Index{db: db}, nil
}

func (ix *Index) Close() error {
	return ix.db.Close()
}

func (ix *Index) Insert(meta *RunMetadata) error {
	converged := 0
	if meta.Converged {
		converged = 1
	}
	_, err := ix.db.Exec(
		"INSERT INTO runs (run_id, created_ns, model, speed, angle, value, converged) VALUES (?, ?, ?, ?, ?, ?, ?)",
		meta.ID, meta.Timestamp.UnixNano(), meta.Model,
		meta.Candidate.Speed, meta.Candidate.Angle, meta.Value, converged,
	)
	return err
}

func (ix *Index) List() ([]RunSummary, error) {
	rows, err := ix.db.Query("SELECT run_id, created_ns, model, speed, angle, value, converged FROM runs ORDER BY created_ns DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var (
			r         RunSummary
			createdNS int64
			converged int
		)
		if err := rows.Scan(&r.ID, &createdNS, &r.Model, &r.Speed, &r.Angle, &r.Value, &converged); err != nil {
			return nil, err
		}
		r.Timestamp = time.Unix(0, createdNS)
		r.Converged = converged != 0
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

func (ix *Index) Resolve(prefix string) (string, error) {
	if prefix == "" || strings.ContainsAny(prefix, "%_") {
		return "", fmt.Errorf("%w: %q", ErrRunNotFound, prefix)
	}
	rows, err := ix.db.Query("SELECT run_id FROM runs WHERE run_id LIKE ? LIMIT 2", prefix+"%")
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w: %q", ErrRunNotFound, prefix)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("%w: %q", ErrAmbiguousRun, prefix)
	}
}

func (ix *Index) Delete(runID string) error {
	res, err := ix.db.Exec("DELETE FROM runs WHERE run_id = ?", runID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}
