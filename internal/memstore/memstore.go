// Package memstore is an in-process store for local development and tests.
// Data lives only as long as the process.
package memstore

import (
	"context"
	"sync"

	"github.com/coally/coally-api/internal/model"
	"github.com/coally/coally-api/internal/repository"
)

// Store keeps users and tasks in maps guarded by a single mutex.
// Records are copied on the way in and out so callers never share memory
// with the store.
type Store struct {
	mu        sync.RWMutex
	users     map[string]*model.User
	tasks     map[string]*model.Task
	taskOrder []string
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		users: make(map[string]*model.User),
		tasks: make(map[string]*model.Task),
	}
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

// CreateUser stores a user, enforcing unique username and email.
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dup := map[string]string{}
	for _, existing := range s.users {
		if existing.Username == user.Username {
			dup["username"] = user.Username
		}
		if existing.Email == user.Email {
			dup["email"] = user.Email
		}
	}
	if _, ok := s.users[user.ID]; ok {
		dup["_id"] = user.ID
	}
	if len(dup) > 0 {
		return &repository.DuplicateKeyError{Keys: dup}
	}

	stored := *user
	s.users[user.ID] = &stored
	return nil
}

// GetUserByID returns a user by id.
func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.findUser(ctx, func(u *model.User) bool { return u.ID == id })
}

// GetUserByEmail returns a user by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.findUser(ctx, func(u *model.User) bool { return u.Email == email })
}

// GetUserByUsername returns a user by username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.findUser(ctx, func(u *model.User) bool { return u.Username == username })
}

// SetUserToken overwrites the user's token.
func (s *Store) SetUserToken(ctx context.Context, id, token string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	user.Token = token

	out := *user
	return &out, nil
}

func (s *Store) findUser(ctx context.Context, match func(*model.User) bool) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if match(user) {
			out := *user
			return &out, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

// CreateTask stores a task.
func (s *Store) CreateTask(ctx context.Context, task *model.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[task.ID]; ok {
		return repository.NewDuplicateKeyError("_id", task.ID)
	}

	stored := *task
	s.tasks[task.ID] = &stored
	s.taskOrder = append(s.taskOrder, task.ID)
	return nil
}

// ListTasks returns matching tasks in insertion order.
func (s *Store) ListTasks(ctx context.Context, filter model.TaskFilter) ([]*model.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]*model.Task, 0, len(s.taskOrder))
	for _, id := range s.taskOrder {
		task := s.tasks[id]
		if filter.Matches(task) {
			out := *task
			tasks = append(tasks, &out)
		}
	}
	return tasks, nil
}

// GetTaskByID returns a task by id.
func (s *Store) GetTaskByID(ctx context.Context, id string) (*model.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, repository.ErrTaskNotFound
	}
	out := *task
	return &out, nil
}

// UpdateTask applies the patch and returns the updated task.
func (s *Store) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, repository.ErrTaskNotFound
	}
	patch.Apply(task)

	out := *task
	return &out, nil
}

// DeleteTask removes a task and returns it.
func (s *Store) DeleteTask(ctx context.Context, id string) (*model.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, repository.ErrTaskNotFound
	}
	delete(s.tasks, id)
	for i, tid := range s.taskOrder {
		if tid == id {
			s.taskOrder = append(s.taskOrder[:i], s.taskOrder[i+1:]...)
			break
		}
	}

	return task, nil
}
