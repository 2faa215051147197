package slot

import (
	"context"
	"database/sql"
	"errors"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite stores the document as a single keyed row in a local file.
// The slots table never holds more than one row per name; every write
// replaces the previous document wholesale.
type SQLite struct {
	db   *sql.DB
	name string
}

// OpenSQLite opens (creating if needed) the database file at path and
// binds the slot to name.
func OpenSQLite(path, name string) (*SQLite, error) {
	if name == "" {
		name = "attendance"
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// Single writer; one connection avoids SQLITE_BUSY on overlapping flushes.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS slots (
		name TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		updated_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db, name: name}, nil
}

// Read returns the document for the slot's name.
func (s *SQLite) Read(ctx context.Context) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM slots WHERE name = ?`, s.name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Write replaces the document for the slot's name.
func (s *SQLite) Write(ctx context.Context, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO slots (name, data, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		s.name, data)
	return err
}

// Healthy verifies the database file is reachable.
func (s *SQLite) Healthy(ctx context.Context) bool {
	if s == nil || s.db == nil {
		return false
	}
	return s.db.PingContext(ctx) == nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
