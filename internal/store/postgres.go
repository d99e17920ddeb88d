package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "embed"

	_ "github.com/lib/pq"
)

// Connection pool sizing for PostgresStore.
const (
	DefaultMaxOpenConns    = 25
	DefaultMaxIdleConns    = 25
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore is a Store backed by PostgreSQL. Capacity-checked writes take a
// transaction-scoped advisory lock on the slot key, so several SiteBot
// instances can share one database.
type PostgresStore struct {
	*sqlStore
}

func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	cfg := applyOpts(opts)
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres: database DSN not set")
	}
	db, err := openDB("PostgresStore", "postgres", cfg.DSN, postgresMigrations, func(db *sql.DB) {
		db.SetMaxOpenConns(DefaultMaxOpenConns)
		db.SetMaxIdleConns(DefaultMaxIdleConns)
		db.SetConnMaxLifetime(DefaultConnMaxLifetime)
	})
	if err != nil {
		return nil, err
	}
	return &PostgresStore{sqlStore: &sqlStore{
		db:       db,
		name:     "PostgresStore",
		rebind:   rebindDollar,
		lockSlot: advisoryLock,
	}}, nil
}

// advisoryLock blocks until this transaction owns the lock for key. The lock
// is released on commit or rollback.
func advisoryLock(ctx context.Context, tx *sql.Tx, key string) error {
	_, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key)
	return err
}
