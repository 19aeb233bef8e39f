// Package journal persists a durable log of every launch attempt in
// SQLite. Unlike the usage tracker, which keeps a capped in-memory
// history for ranking, the journal is append-only and survives cache
// clears, so it can answer "what did Raido actually do" later.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS launches (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	app_name    TEXT NOT NULL,
	app_path    TEXT NOT NULL DEFAULT '',
	query       TEXT NOT NULL DEFAULT '',
	confidence  REAL NOT NULL DEFAULT 0,
	success     INTEGER NOT NULL DEFAULT 0,
	error       TEXT NOT NULL DEFAULT '',
	launched_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_launches_app ON launches(app_name);
CREATE INDEX IF NOT EXISTS idx_launches_at  ON launches(launched_at);
`

// Row is one journal entry.
type Row struct {
	ID         int64     `json:"id"`
	AppName    string    `json:"app_name"`
	AppPath    string    `json:"app_path"`
	Query      string    `json:"query"`
	Confidence float64   `json:"confidence"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	LaunchedAt time.Time `json:"launched_at"`
}

// DB wraps a sql.DB with journal-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the journal database and applies the schema.
// Parent directories are created as needed.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("journal: create dir: %w", err)
		}
	}
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("journal: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("journal: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("journal: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Record appends one launch attempt. The ID and timestamp are assigned by
// the database.
func (db *DB) Record(r Row) error {
	_, err := db.conn.Exec(`
		INSERT INTO launches (app_name, app_path, query, confidence, success, error, launched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.AppName, r.AppPath, r.Query, r.Confidence, r.Success, r.Error, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("journal: record: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (db *DB) Recent(limit int) ([]Row, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.conn.Query(`
		SELECT id, app_name, app_path, query, confidence, success, error, launched_at
		FROM launches ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: recent: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		var success int
		if err := rows.Scan(&r.ID, &r.AppName, &r.AppPath, &r.Query, &r.Confidence, &success, &r.Error, &r.LaunchedAt); err != nil {
			return nil, err
		}
		r.Success = success != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountByApp returns the number of successful launches per app.
func (db *DB) CountByApp() (map[string]int, error) {
	rows, err := db.conn.Query(`
		SELECT app_name, COUNT(*) FROM launches WHERE success = 1 GROUP BY app_name
	`)
	if err != nil {
		return nil, fmt.Errorf("journal: count by app: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		out[name] = n
	}
	return out, rows.Err()
}
