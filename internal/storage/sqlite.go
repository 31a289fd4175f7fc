package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const (
	runsTable    = "runs"
	samplesTable = "samples"
	dbFileName   = "twobox.db"
)

// SQLiteStore keeps runs in a single SQLite database under its directory.
type SQLiteStore struct {
	dir string
	db  *sql.DB
}

func NewSQLiteStore(dir string) *SQLiteStore {
	return &SQLiteStore{dir: dir}
}

func (s *SQLiteStore) Init() error {
	if s.db != nil {
		return nil
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}

	dbPath := filepath.Join(s.dir, dbFileName)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("failed to open SQLite database at %q: %w", dbPath, err)
	}
	// A single connection avoids "database is locked" errors.
	db.SetMaxOpenConns(1)

	if err := createTables(db); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to create tables: %w", err)
	}

	s.db = db
	return nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS ` + runsTable + ` (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			metadata TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ` + samplesTable + ` (
			run_id TEXT NOT NULL REFERENCES ` + runsTable + `(id),
			subset TEXT NOT NULL,
			year INTEGER NOT NULL,
			forcing REAL,
			ts REAL,
			deep REAL,
			ts_lambda_min REAL,
			ts_lambda_max REAL,
			PRIMARY KEY (run_id, subset, year)
		)`,
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) Save(meta RunMetadata, samples []Sample) (string, error) {
	if err := s.Init(); err != nil {
		return "", err
	}
	stamp(&meta)

	data, err := json.Marshal(meta)
	if err != nil {
		return "", err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(
		`INSERT INTO `+runsTable+` (id, created_at, metadata) VALUES (?, ?, ?)`,
		meta.ID, meta.Timestamp.Format(time.RFC3339Nano), string(data),
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO ` + samplesTable +
		` (run_id, subset, year, forcing, ts, deep, ts_lambda_min, ts_lambda_max) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for _, smp := range samples {
		if _, err := stmt.Exec(meta.ID, smp.Subset, smp.Year, smp.Forcing, smp.Ts, smp.To, smp.TsLambdaMin, smp.TsLambdaMax); err != nil {
			return "", fmt.Errorf("insert sample %s/%d: %w", smp.Subset, smp.Year, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func (s *SQLiteStore) List() ([]RunMetadata, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`SELECT metadata FROM ` + runsTable + ` ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]RunMetadata, 0)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var meta RunMetadata
		if err := json.Unmarshal([]byte(data), &meta); err != nil {
			return nil, err
		}
		runs = append(runs, meta)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) Load(id string) (*RunMetadata, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}

	var data string
	err := s.db.QueryRow(`SELECT metadata FROM `+runsTable+` WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal([]byte(data), &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *SQLiteStore) LoadSamples(id string) ([]Sample, error) {
	if _, err := s.Load(id); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`SELECT subset, year, forcing, ts, deep, ts_lambda_min, ts_lambda_max FROM `+samplesTable+
		` WHERE run_id = ? ORDER BY rowid`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	samples := make([]Sample, 0)
	for rows.Next() {
		var (
			smp  Sample
			vals [5]sql.NullFloat64
		)
		if err := rows.Scan(&smp.Subset, &smp.Year, &vals[0], &vals[1], &vals[2], &vals[3], &vals[4]); err != nil {
			return nil, err
		}
		smp.Forcing, smp.Ts, smp.To = orNaN(vals[0]), orNaN(vals[1]), orNaN(vals[2])
		smp.TsLambdaMin, smp.TsLambdaMax = orNaN(vals[3]), orNaN(vals[4])
		samples = append(samples, smp)
	}
	return samples, rows.Err()
}

// orNaN reads back a NaN, which SQLite stores as NULL.
func orNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
