package storage

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// SQLite keeps every run in a single runs.db under its directory.
type SQLite struct {
	mu  sync.RWMutex
	dir string
	db  *sql.DB
}

func NewSQLite(dir string) *SQLite {
	return &SQLite{dir: dir}
}

func (s *SQLite) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return nil
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}
	db, err := sql.Open("sqlite", filepath.Join(s.dir, "runs.db"))
	if err != nil {
		return err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return fmt.Errorf("apply schema: %w", err)
	}
	s.db = db
	return nil
}

func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLite) conn() (*sql.DB, error) {
	if s.db == nil {
		return nil, errors.New("sqlite store not initialized")
	}
	return s.db, nil
}

func (s *SQLite) Save(run *Run, samples []Sample) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, err := s.conn()
	if err != nil {
		return "", err
	}
	if run.ID == "" {
		run.ID = NewID()
	}
	if run.Timestamp.IsZero() {
		run.Timestamp = time.Now()
	}
	tracks, err := json.Marshal(run.Tracks)
	if err != nil {
		return "", err
	}
	metrics, err := json.Marshal(run.Metrics)
	if err != nil {
		return "", err
	}

	tx, err := db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO runs (id, scene, integrator, dt, duration, start_mjd, steps, created_at, tracks, metrics)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Scene, run.Integrator, run.Dt, run.Duration, run.StartMJD, run.Steps,
		run.Timestamp.UTC().Format(time.RFC3339Nano), string(tracks), string(metrics))
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO samples (run_id, seq, track, t, x, y, z, vx, vy, vz)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()
	for i, smp := range samples {
		_, err := stmt.Exec(run.ID, i, smp.Track, smp.Time,
			smp.Position[0], smp.Position[1], smp.Position[2],
			smp.Velocity[0], smp.Velocity[1], smp.Velocity[2])
		if err != nil {
			return "", fmt.Errorf("insert sample %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return run.ID, nil
}

const runColumns = `id, scene, integrator, dt, duration, start_mjd, steps, created_at, tracks, metrics`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var run Run
	var created, tracks, metrics string
	err := row.Scan(&run.ID, &run.Scene, &run.Integrator, &run.Dt, &run.Duration,
		&run.StartMJD, &run.Steps, &created, &tracks, &metrics)
	if err != nil {
		return nil, err
	}
	if run.Timestamp, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tracks), &run.Tracks); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(metrics), &run.Metrics); err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *SQLite) List() ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	rows, err := db.Query(`SELECT ` + runColumns + ` FROM runs ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

func (s *SQLite) Load(id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	run, err := scanRun(db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	return run, err
}

func (s *SQLite) Samples(id string) ([]Sample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM runs WHERE id = ?`, id).Scan(&n); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrRunNotFound
	}

	rows, err := db.Query(`SELECT track, t, x, y, z, vx, vy, vz FROM samples WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	samples := make([]Sample, 0)
	for rows.Next() {
		var smp Sample
		err := rows.Scan(&smp.Track, &smp.Time,
			&smp.Position[0], &smp.Position[1], &smp.Position[2],
			&smp.Velocity[0], &smp.Velocity[1], &smp.Velocity[2])
		if err != nil {
			return nil, err
		}
		samples = append(samples, smp)
	}
	return samples, rows.Err()
}
