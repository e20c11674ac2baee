package report

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	target     TEXT NOT NULL,
	status     TEXT NOT NULL,
	started_at INTEGER NOT NULL,
	body       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_target_started ON runs (target, started_at DESC);
`

// SQLiteStore keeps every run in a SQLite database so scaling factors can
// be compared across runs.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	// A single connection serializes writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema in %s: %w", path, err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save inserts or replaces a run.
func (s *SQLiteStore) Save(result *RunResult) error {
	body, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshalling result %s: %w", result.ID, err)
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO runs (id, target, status, started_at, body) VALUES (?, ?, ?, ?, ?)`,
		result.ID, result.Target, string(result.Status), result.StartedAt.UnixNano(), string(body),
	)
	if err != nil {
		return fmt.Errorf("writing result %s: %w", result.ID, err)
	}
	return nil
}

// Load reads a run by ID.
func (s *SQLiteStore) Load(runID string) (*RunResult, error) {
	var body string
	err := s.db.QueryRow(`SELECT body FROM runs WHERE id = ?`, runID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("reading result %s: %w", runID, err)
	}
	return decode(runID, body)
}

// History returns up to limit runs for target, newest first.
func (s *SQLiteStore) History(target string, limit int) ([]*RunResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, body FROM runs WHERE target = ? ORDER BY started_at DESC LIMIT ?`,
		target, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying history for %s: %w", target, err)
	}
	defer rows.Close()

	var out []*RunResult
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		r, err := decode(id, body)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func decode(runID, body string) (*RunResult, error) {
	var result RunResult
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		return nil, fmt.Errorf("unmarshalling result %s: %w", runID, err)
	}
	return &result, nil
}
