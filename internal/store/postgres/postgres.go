// Package postgres implements the store.Store interface using PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"jobqueue/internal/store"
)

// Store provides the PostgreSQL-backed implementation of store.Store.
type Store struct {
	db *sql.DB
}

// New opens a connection pool to databaseURL and verifies it with a ping.
// It does not run migrations; call Migrate separately.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Store{db: db}, nil
}

// DB exposes the underlying connection pool, used by Migrate and by
// observability to report pool stats.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping checks connectivity, used by the admin API's health check.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

var _ store.Store = (*Store)(nil)
