package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/coally/coally-api/internal/apperror"
	"github.com/coally/coally-api/internal/metrics"
	"github.com/coally/coally-api/internal/model"
	"github.com/coally/coally-api/internal/repository"
)

// MsgTaskNotFound is returned for any task lookup that misses.
const MsgTaskNotFound = "task not found"

// TaskService handles task business logic.
type TaskService struct {
	store   TaskStore
	metrics metrics.Recorder
	newID   IDFunc
	now     func() time.Time
}

// NewTaskService creates a new TaskService. A nil newID defaults to ULIDs.
func NewTaskService(store TaskStore, recorder metrics.Recorder, newID IDFunc) *TaskService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if newID == nil {
		newID = NewULID
	}
	return &TaskService{
		store:   store,
		metrics: recorder,
		newID:   newID,
		now:     time.Now,
	}
}

// CreateTaskInput defines input for creating a task.
type CreateTaskInput struct {
	Title       string
	Description string
}

// Create stores a new, not yet completed task.
func (s *TaskService) Create(ctx context.Context, input CreateTaskInput) (*model.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperror.Validation(model.ErrTitleRequired.Error())
	}

	task := &model.Task{
		ID:          s.newID(),
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Completed:   false,
		CreatedAt:   s.now().UTC().Truncate(time.Millisecond),
	}

	if err := s.store.CreateTask(ctx, task); err != nil {
		return nil, apperror.Internal("failed to create task", err)
	}

	s.metrics.IncTaskCreated()

	return task, nil
}

// List returns every task matching the filter.
func (s *TaskService) List(ctx context.Context, filter model.TaskFilter) ([]*model.Task, error) {
	tasks, err := s.store.ListTasks(ctx, filter)
	if err != nil {
		return nil, apperror.Internal("failed to list tasks", err)
	}
	return tasks, nil
}

// Get returns a task by id.
func (s *TaskService) Get(ctx context.Context, id string) (*model.Task, error) {
	task, err := s.store.GetTaskByID(ctx, id)
	if err != nil {
		return nil, taskError(err, "failed to get task")
	}
	return task, nil
}

// Update merges the patch into the task and returns the result.
// An empty patch returns the task unchanged.
func (s *TaskService) Update(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error) {
	patch.Normalize()
	if err := patch.Validate(); err != nil {
		return nil, apperror.Validation(err.Error())
	}

	if patch.IsEmpty() {
		return s.Get(ctx, id)
	}

	task, err := s.store.UpdateTask(ctx, id, patch)
	if err != nil {
		return nil, taskError(err, "failed to update task")
	}

	s.metrics.IncTaskUpdated()

	return task, nil
}

// Delete removes a task and returns the removed record.
func (s *TaskService) Delete(ctx context.Context, id string) (*model.Task, error) {
	task, err := s.store.DeleteTask(ctx, id)
	if err != nil {
		return nil, taskError(err, "failed to delete task")
	}

	s.metrics.IncTaskDeleted()

	return task, nil
}

func taskError(err error, message string) error {
	if errors.Is(err, repository.ErrTaskNotFound) {
		return apperror.NotFound(MsgTaskNotFound)
	}
	return apperror.Internal(message, err)
}
