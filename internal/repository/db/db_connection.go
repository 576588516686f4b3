package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// pragmas are applied to every new database handle.
var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA foreign_keys = ON",
	"PRAGMA busy_timeout = 5000",
}

// InitDB opens or creates the SQLite file at path and applies the schema.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}
	// SQLite has a single writer and every control loop writes.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := prepare(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func prepare(db *sql.DB) error {
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	if err := ensureSchema(db); err != nil {
		return err
	}
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping sqlite: %w", err)
	}
	return nil
}

const sqliteDriverName = "sqlite"

const schemaHeaterConfig = `
CREATE TABLE IF NOT EXISTS heater_config (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    doc TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`

const schemaHeaterEvents = `
CREATE TABLE IF NOT EXISTS heater_events (
    id TEXT PRIMARY KEY,
    occurred_at TIMESTAMP NOT NULL,
    type TEXT NOT NULL,
    message TEXT NOT NULL,
    meta TEXT
);
CREATE INDEX IF NOT EXISTS idx_heater_events_occurred_at ON heater_events (occurred_at);
`

const schemaStatusHistory = `
CREATE TABLE IF NOT EXISTS status_history (
    recorded_at TIMESTAMP NOT NULL,
    target REAL NOT NULL,
    fnt REAL NOT NULL,
    bck REAL NOT NULL,
    top REAL NOT NULL,
    bot REAL NOT NULL,
    chip REAL NOT NULL,
    rem REAL NOT NULL,
    out REAL NOT NULL,
    one_set BOOLEAN NOT NULL,
    two_set BOOLEAN NOT NULL,
    one_pwr BOOLEAN NOT NULL,
    two_pwr BOOLEAN NOT NULL,
    safe BOOLEAN NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_status_history_recorded_at ON status_history (recorded_at);
`

const schemaUsers = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL
);
`

func ensureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range []string{
		schemaHeaterConfig,
		schemaHeaterEvents,
		schemaStatusHistory,
		schemaUsers,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}
