package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// DefaultLimit caps how many executed queries are kept.
const DefaultLimit = 1000

// Store persists executed queries in a SQLite database.
type Store struct {
	db    *sql.DB
	limit int
}

// Open opens (or creates) history.db inside dir.
func Open(dir string, limit int) (*Store, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("history: create dir: %w", err)
	}
	db, err := sql.Open("sqlite", filepath.Join(dir, "history.db"))
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("history: pragma %q: %w", p, err)
		}
	}
	s := &Store{db: db, limit: limit}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: migration: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS history (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			query      TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		)`)
	return err
}

// Append records an executed query. Blank queries and repeats of the most
// recent entry are ignored; the oldest entries beyond the limit are dropped.
func (s *Store) Append(query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	var last string
	err := s.db.QueryRow(`SELECT query FROM history ORDER BY id DESC LIMIT 1`).Scan(&last)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("history: read last: %w", err)
	case last == query:
		return nil
	}
	if _, err := s.db.Exec(`INSERT INTO history (query) VALUES (?)`, query); err != nil {
		return fmt.Errorf("history: insert: %w", err)
	}
	if _, err := s.db.Exec(
		`DELETE FROM history WHERE id NOT IN (SELECT id FROM history ORDER BY id DESC LIMIT ?)`,
		s.limit,
	); err != nil {
		return fmt.Errorf("history: trim: %w", err)
	}
	return nil
}

// Recent returns up to limit queries, newest first. limit <= 0 returns all
// kept entries.
func (s *Store) Recent(limit int) ([]string, error) {
	if limit <= 0 {
		limit = s.limit
	}
	rows, err := s.db.Query(`SELECT query FROM history ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *Store) Len() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM history`).Scan(&n); err != nil {
		return 0, fmt.Errorf("history: count: %w", err)
	}
	return n, nil
}
