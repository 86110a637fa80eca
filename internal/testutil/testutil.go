// Package testutil holds helpers shared by integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/coally/coally-api/internal/migrate"
	"github.com/coally/coally-api/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetSchema reverts every embedded migration and applies them again,
// leaving empty users and tasks tables.
func ResetSchema(ctx context.Context, databaseURL string) error {
	migrator, err := migrate.Open(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer migrator.Close()

	if _, err := migrator.Down(ctx, 0); err != nil {
		return fmt.Errorf("revert schema: %w", err)
	}
	if _, err := migrator.Up(ctx); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// FlushRedis clears the Redis database named by redisURL.
func FlushRedis(ctx context.Context, redisURL string) error {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	defer client.Close()

	return client.FlushDB(ctx).Err()
}

// NewTestUser creates a user with a unique username and email.
// PasswordHash is a placeholder; hash a real password when login matters.
func NewTestUser(t testing.TB, prefix string) *model.User {
	t.Helper()
	id := UniqueID(prefix)
	name := strings.ToLower(strings.ReplaceAll(id, "-", "_"))
	return &model.User{
		ID:           id,
		Username:     name,
		Email:        name + "@example.com",
		PasswordHash: "$2a$04$placeholderplaceholderplaceholderplaceholderplace",
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

// NewTestTask creates an incomplete task with the given title.
func NewTestTask(t testing.TB, title string) *model.Task {
	t.Helper()
	return &model.Task{
		ID:        UniqueID("task"),
		Title:     title,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return prefix + "-" + strings.ToLower(ulid.Make().String())
}
