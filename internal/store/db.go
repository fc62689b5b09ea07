package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"go-vis-pipeline/internal/model"
)

// Store persists source descriptors and compiled spec snapshots in SQLite
type Store struct {
	db *sql.DB
}

// SourceInfo is the listing form of a stored source
type SourceInfo struct {
	Name      string    `json:"name"`
	URL       string    `json:"url,omitempty"`
	Format    string    `json:"format,omitempty"`
	Records   int       `json:"records"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SpecSnapshot is one compiled dataflow of a pipeline at a point in time
type SpecSnapshot struct {
	ID        int64                `json:"id"`
	Pipeline  string               `json:"pipeline"`
	Specs     []model.DataflowSpec `json:"specs"`
	CreatedAt time.Time            `json:"createdAt"`
}

// Open connects to the database at dbPath and creates missing tables
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sourceTable := `
	CREATE TABLE IF NOT EXISTS sources (
		name TEXT PRIMARY KEY,
		url TEXT,
		format TEXT,
		record_values TEXT,
		record_count INTEGER,
		created_at DATETIME,
		updated_at DATETIME
	);
	`
	specTable := `
	CREATE TABLE IF NOT EXISTS spec_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		pipeline TEXT,
		spec TEXT,
		created_at DATETIME
	);
	`

	for _, stmt := range []string{sourceTable, specTable} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create tables: %w", err)
		}
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSource inserts or replaces a source descriptor
func (s *Store) SaveSource(src *model.Source) error {
	formatJSON, err := json.Marshal(src.Format)
	if err != nil {
		return fmt.Errorf("failed to encode format: %w", err)
	}
	valuesJSON, err := json.Marshal(src.Values)
	if err != nil {
		return fmt.Errorf("failed to encode values: %w", err)
	}

	now := time.Now().UTC()
	_, err = s.db.Exec(`
		INSERT INTO sources (name, url, format, record_values, record_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			url = excluded.url,
			format = excluded.format,
			record_values = excluded.record_values,
			record_count = excluded.record_count,
			updated_at = excluded.updated_at`,
		src.Name, src.URL, string(formatJSON), string(valuesJSON), len(src.Values), now, now)
	if err != nil {
		return fmt.Errorf("failed to save source %s: %w", src.Name, err)
	}
	return nil
}

// GetSource fetches a full source descriptor
func (s *Store) GetSource(name string) (*model.Source, error) {
	var url, formatJSON, valuesJSON string
	err := s.db.QueryRow(`SELECT url, format, record_values FROM sources WHERE name = ?`, name).
		Scan(&url, &formatJSON, &valuesJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &model.NotFoundError{Kind: "source", Name: name}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load source %s: %w", name, err)
	}

	src := &model.Source{Name: name, URL: url}
	if err := json.Unmarshal([]byte(formatJSON), &src.Format); err != nil {
		return nil, fmt.Errorf("failed to decode format of %s: %w", name, err)
	}
	if err := json.Unmarshal([]byte(valuesJSON), &src.Values); err != nil {
		return nil, fmt.Errorf("failed to decode values of %s: %w", name, err)
	}
	return src, nil
}

// ListSources returns every stored source without its values
func (s *Store) ListSources() ([]SourceInfo, error) {
	rows, err := s.db.Query(`SELECT name, url, format, record_count, created_at, updated_at FROM sources ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	sources := []SourceInfo{}
	for rows.Next() {
		var info SourceInfo
		var formatJSON string
		if err := rows.Scan(&info.Name, &info.URL, &formatJSON, &info.Records, &info.CreatedAt, &info.UpdatedAt); err != nil {
			return nil, err
		}
		var format model.Format
		if err := json.Unmarshal([]byte(formatJSON), &format); err == nil {
			info.Format = format.Type
		}
		sources = append(sources, info)
	}
	return sources, rows.Err()
}

// SaveSpec records a compiled dataflow snapshot and returns its id
func (s *Store) SaveSpec(pipeline string, specs []model.DataflowSpec) (int64, error) {
	specJSON, err := json.Marshal(specs)
	if err != nil {
		return 0, fmt.Errorf("failed to encode spec: %w", err)
	}
	res, err := s.db.Exec(`INSERT INTO spec_snapshots (pipeline, spec, created_at) VALUES (?, ?, ?)`,
		pipeline, string(specJSON), time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to save spec of %s: %w", pipeline, err)
	}
	return res.LastInsertId()
}

// ListSpecs returns the snapshots of a pipeline, newest first
func (s *Store) ListSpecs(pipeline string) ([]SpecSnapshot, error) {
	rows, err := s.db.Query(
		`SELECT id, spec, created_at FROM spec_snapshots WHERE pipeline = ? ORDER BY id DESC`, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to list specs of %s: %w", pipeline, err)
	}
	defer rows.Close()

	snapshots := []SpecSnapshot{}
	for rows.Next() {
		snap := SpecSnapshot{Pipeline: pipeline}
		var specJSON string
		if err := rows.Scan(&snap.ID, &specJSON, &snap.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(specJSON), &snap.Specs); err != nil {
			return nil, fmt.Errorf("failed to decode spec %d: %w", snap.ID, err)
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}
