package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "embed"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore is a Store backed by a single SQLite file. All access goes
// through one connection, which also serializes capacity-checked inserts.
type SQLiteStore struct {
	*sqlStore
}

// NewSQLiteStore opens (creating if needed) the database file named by the DSN.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	cfg := applyOpts(opts)
	if cfg.DSN == "" {
		return nil, fmt.Errorf("sqlite: database DSN not set")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DSN), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite: failed to create database directory: %w", err)
	}

	// Foreign keys are off by default in SQLite; the busy timeout covers
	// a second process briefly holding the file during startup.
	db, err := openDB("SQLiteStore", "sqlite3", cfg.DSN+"?_foreign_keys=on&_busy_timeout=5000", sqliteMigrations, func(db *sql.DB) {
		db.SetMaxOpenConns(1)
	})
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{sqlStore: &sqlStore{db: db, name: "SQLiteStore", rebind: identity}}, nil
}
