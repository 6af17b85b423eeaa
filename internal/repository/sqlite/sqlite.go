package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite database connection with thread-safe access.
type DB struct {
	conn *sql.DB
	mu   sync.RWMutex
}

// New opens (creating if needed) the database at dbPath and applies the
// schema. ":memory:" gives a private in-memory database.
func New(dbPath string) (*DB, error) {
	dsn := ":memory:?_foreign_keys=on"
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
	}

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// migrate creates the necessary tables if they don't exist.
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS analyses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		upload_id TEXT NOT NULL DEFAULT '',
		kind TEXT NOT NULL,
		filename TEXT NOT NULL,
		stored_name TEXT NOT NULL DEFAULT '',
		filepath TEXT NOT NULL DEFAULT '',
		filesize INTEGER DEFAULT 0,
		mime_type TEXT NOT NULL DEFAULT '',
		verdict TEXT NOT NULL,
		confidence REAL DEFAULT 0,
		real_frames INTEGER DEFAULT 0,
		fake_frames INTEGER DEFAULT 0,
		hash TEXT NOT NULL DEFAULT '',
		analyzer TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS analysis_metadata (
		analysis_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (analysis_id, position),
		FOREIGN KEY (analysis_id) REFERENCES analyses(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS analysis_frames (
		analysis_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		timestamp REAL NOT NULL,
		is_deepfake INTEGER NOT NULL,
		confidence REAL NOT NULL,
		PRIMARY KEY (analysis_id, position),
		FOREIGN KEY (analysis_id) REFERENCES analyses(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_analyses_kind ON analyses(kind);
	CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at);
	CREATE INDEX IF NOT EXISTS idx_analyses_stored_name ON analyses(stored_name);
	CREATE INDEX IF NOT EXISTS idx_analyses_hash ON analyses(hash);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying database connection for use by repositories.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Lock acquires a write lock.
func (db *DB) Lock() {
	db.mu.Lock()
}

// Unlock releases the write lock.
func (db *DB) Unlock() {
	db.mu.Unlock()
}

// RLock acquires a read lock.
func (db *DB) RLock() {
	db.mu.RLock()
}

// RUnlock releases the read lock.
func (db *DB) RUnlock() {
	db.mu.RUnlock()
}
