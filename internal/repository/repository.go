// Package repository provides the PostgreSQL data access layer.
package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolationCode is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolationCode = "23505"

// uniqueDetailPattern extracts field and value from a unique_violation detail,
// e.g. `Key (email)=(alice@x.com) already exists.`
var uniqueDetailPattern = regexp.MustCompile(`Key \((.+?)\)=\((.*?)\) already exists`)

// constraintFields maps unique constraint names to the field they guard.
var constraintFields = map[string]string{
	"users_username_key": "username",
	"users_email_key":    "email",
}

// Repository provides database access methods.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new Repository with a connection pool.
func New(ctx context.Context, databaseURL string) (*Repository, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{pool: pool}, nil
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool.
func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

// Pool returns the underlying connection pool.
// Use sparingly - prefer adding methods to Repository.
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}

// asDuplicateKey converts a PostgreSQL unique violation into a
// DuplicateKeyError. fallback supplies values by field when the server
// detail is missing. Returns nil for any other error.
func asDuplicateKey(err error, fallback map[string]string) *DuplicateKeyError {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolationCode {
		return nil
	}

	if m := uniqueDetailPattern.FindStringSubmatch(pgErr.Detail); m != nil {
		return NewDuplicateKeyError(m[1], m[2])
	}

	if field, ok := constraintFields[pgErr.ConstraintName]; ok {
		return NewDuplicateKeyError(field, fallback[field])
	}

	return &DuplicateKeyError{Keys: fallback}
}
