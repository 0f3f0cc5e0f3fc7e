package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wcatz/launcher-grid/internal/grid"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS layout (
    id         INTEGER PRIMARY KEY CHECK (id = 1),
    document   TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS layout_history (
    seq        INTEGER PRIMARY KEY AUTOINCREMENT,
    document   TEXT NOT NULL,
    saved_at   INTEGER NOT NULL
);
`

// historyDepth bounds the number of previous documents kept.
const historyDepth = 20

// SQLiteStore keeps the layout document in a single-row table and the
// last few saved documents in layout_history.
type SQLiteStore struct {
	db    *sql.DB
	owned bool
}

// OpenSQLite opens (or creates) the database at path and applies the
// schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	s, err := NewSQLite(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

// NewSQLite wraps an open database and applies the schema. The caller
// keeps ownership of db.
func NewSQLite(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("store: DB is required")
	}
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("layout schema: %w", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Load returns the stored snapshot, or nil when nothing was saved yet.
func (s *SQLiteStore) Load() (*grid.Snapshot, error) {
	var doc string
	err := s.db.QueryRow(`SELECT document FROM layout WHERE id = 1`).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading layout: %w", err)
	}
	return Decode([]byte(doc))
}

// Save replaces the stored snapshot and appends it to the history.
func (s *SQLiteStore) Save(snap *grid.Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	now := time.Now().Unix()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO layout (id, document, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`,
		string(data), now,
	); err != nil {
		return fmt.Errorf("writing layout: %w", err)
	}
	if _, err := tx.Exec(`INSERT INTO layout_history (document, saved_at) VALUES (?, ?)`, string(data), now); err != nil {
		return fmt.Errorf("writing layout history: %w", err)
	}
	if _, err := tx.Exec(
		`DELETE FROM layout_history WHERE seq <= (SELECT MAX(seq) FROM layout_history) - ?`, historyDepth,
	); err != nil {
		return fmt.Errorf("trimming layout history: %w", err)
	}
	return tx.Commit()
}

// History returns up to n previously saved snapshots, newest first.
func (s *SQLiteStore) History(n int) ([]*grid.Snapshot, error) {
	rows, err := s.db.Query(`SELECT document FROM layout_history ORDER BY seq DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("reading layout history: %w", err)
	}
	defer rows.Close()

	var out []*grid.Snapshot
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		snap, err := Decode([]byte(doc))
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Close closes the database when the store opened it.
func (s *SQLiteStore) Close() error {
	if s.owned {
		return s.db.Close()
	}
	return nil
}
