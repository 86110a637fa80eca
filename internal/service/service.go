// Package service provides business logic for the application.
package service

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/coally/coally-api/internal/model"
)

// UserStore persists user accounts.
// Implementations return repository.ErrUserNotFound and
// *repository.DuplicateKeyError.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	SetUserToken(ctx context.Context, id, token string) (*model.User, error)
}

// TaskStore persists tasks. Implementations return repository.ErrTaskNotFound,
// including for ids they cannot parse.
type TaskStore interface {
	CreateTask(ctx context.Context, task *model.Task) error
	ListTasks(ctx context.Context, filter model.TaskFilter) ([]*model.Task, error)
	GetTaskByID(ctx context.Context, id string) (*model.Task, error)
	UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error)
	DeleteTask(ctx context.Context, id string) (*model.Task, error)
}

// SessionCache caches validated tokens, keyed by token hash.
// GetSession returns (nil, nil) on a miss; CurrentToken returns "" on a miss.
// The current-token entry is written only on login and gates cache hits,
// so a session re-cached after a concurrent re-login is never served.
type SessionCache interface {
	GetSession(ctx context.Context, tokenHash string) (*model.User, error)
	SetSession(ctx context.Context, tokenHash string, user *model.User) error
	DeleteSession(ctx context.Context, tokenHash string) error
	CurrentToken(ctx context.Context, userID string) (string, error)
	SetCurrentToken(ctx context.Context, userID, tokenHash string, ttl time.Duration) error
}

// IDFunc generates identifiers for new records.
type IDFunc func() string

// NewULID returns a new ULID string.
func NewULID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}
