package service

import (
	"context"
	"testing"
	"time"

	"github.com/coally/coally-api/internal/apperror"
	"github.com/coally/coally-api/internal/memstore"
	"github.com/coally/coally-api/internal/metrics"
	"github.com/coally/coally-api/internal/model"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func newTaskService() (*TaskService, *metrics.InMemoryRecorder) {
	rec := metrics.NewInMemory()
	return NewTaskService(memstore.New(), rec, nil), rec
}

func TestTaskCreate(t *testing.T) {
	t.Parallel()

	svc, rec := newTaskService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateTaskInput{}); !apperror.Is(err, apperror.KindValidation) {
		t.Errorf("missing title = %v, want validation error", err)
	}
	if _, err := svc.Create(ctx, CreateTaskInput{Title: "   "}); !apperror.Is(err, apperror.KindValidation) {
		t.Errorf("blank title = %v, want validation error", err)
	}

	before := time.Now().UTC()
	task, err := svc.Create(ctx, CreateTaskInput{Title: "  Buy milk ", Description: " 2L "})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if task.Title != "Buy milk" || task.Description != "2L" {
		t.Errorf("fields should be trimmed: %+v", task)
	}
	if task.Completed {
		t.Error("new task should not be completed")
	}
	if task.CreatedAt.Before(before.Add(-time.Second)) || task.CreatedAt.After(time.Now().Add(time.Second)) {
		t.Errorf("createdAt = %v, want about now", task.CreatedAt)
	}
	if task.ID == "" {
		t.Error("id should be assigned")
	}
	if rec.Snapshot().TasksCreated != 1 {
		t.Error("TasksCreated should be 1")
	}
}

func TestTaskCreate_MillisecondTimestamp(t *testing.T) {
	t.Parallel()

	svc, _ := newTaskService()
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 123456789, time.UTC) }

	task, err := svc.Create(context.Background(), CreateTaskInput{Title: "a"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	want := time.Date(2024, 5, 1, 10, 0, 0, 123000000, time.UTC)
	if !task.CreatedAt.Equal(want) {
		t.Errorf("createdAt = %v, want %v", task.CreatedAt, want)
	}
}

func TestTaskGetUpdateDelete(t *testing.T) {
	t.Parallel()

	svc, rec := newTaskService()
	ctx := context.Background()

	task, err := svc.Create(ctx, CreateTaskInput{Title: "Write report"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := svc.Get(ctx, task.ID)
	if err != nil || got.Title != "Write report" {
		t.Fatalf("Get = %+v, %v", got, err)
	}

	updated, err := svc.Update(ctx, task.ID, model.TaskPatch{Completed: boolPtr(true), Description: strPtr(" notes ")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !updated.Completed || updated.Description != "notes" || updated.Title != "Write report" {
		t.Errorf("Update = %+v", updated)
	}
	if !updated.CreatedAt.Equal(task.CreatedAt) {
		t.Error("createdAt must not change")
	}

	if _, err := svc.Update(ctx, task.ID, model.TaskPatch{Title: strPtr(" ")}); !apperror.Is(err, apperror.KindValidation) {
		t.Errorf("blank title update = %v, want validation error", err)
	}

	unchanged, err := svc.Update(ctx, task.ID, model.TaskPatch{})
	if err != nil || !unchanged.Completed {
		t.Errorf("empty patch = %+v, %v", unchanged, err)
	}

	deleted, err := svc.Delete(ctx, task.ID)
	if err != nil || deleted.ID != task.ID {
		t.Fatalf("Delete = %+v, %v", deleted, err)
	}

	snap := rec.Snapshot()
	if snap.TasksUpdated != 1 || snap.TasksDeleted != 1 {
		t.Errorf("updated/deleted = %d/%d, want 1/1", snap.TasksUpdated, snap.TasksDeleted)
	}
}

func TestTaskMissingID(t *testing.T) {
	t.Parallel()

	svc, _ := newTaskService()
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
	}{
		{"get", func() error { _, err := svc.Get(ctx, "missing"); return err }},
		{"update", func() error {
			_, err := svc.Update(ctx, "missing", model.TaskPatch{Completed: boolPtr(true)})
			return err
		}},
		{"update empty patch", func() error { _, err := svc.Update(ctx, "missing", model.TaskPatch{}); return err }},
		{"delete", func() error { _, err := svc.Delete(ctx, "missing"); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if !apperror.Is(err, apperror.KindNotFound) {
				t.Errorf("%s = %v, want not found", tt.name, err)
			}
			if msg := apperror.From(err).Message; msg != MsgTaskNotFound {
				t.Errorf("message = %q", msg)
			}
		})
	}
}

func TestTaskList(t *testing.T) {
	t.Parallel()

	svc, _ := newTaskService()
	ctx := context.Background()

	a, _ := svc.Create(ctx, CreateTaskInput{Title: "a"})
	_, _ = svc.Create(ctx, CreateTaskInput{Title: "b"})
	if _, err := svc.Update(ctx, a.ID, model.TaskPatch{Completed: boolPtr(true)}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	tests := []struct {
		name   string
		filter model.TaskFilter
		want   []string
	}{
		{"all", model.TaskFilter{}, []string{"a", "b"}},
		{"completed", model.TaskFilter{Completed: boolPtr(true)}, []string{"a"}},
		{"open", model.TaskFilter{Completed: boolPtr(false)}, []string{"b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks, err := svc.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(tasks) != len(tt.want) {
				t.Fatalf("got %d tasks, want %d", len(tasks), len(tt.want))
			}
			for i, title := range tt.want {
				if tasks[i].Title != title {
					t.Errorf("tasks[%d] = %q, want %q", i, tasks[i].Title, title)
				}
			}
		})
	}
}

func TestNewULID(t *testing.T) {
	t.Parallel()

	a, b := NewULID(), NewULID()
	if len(a) != 26 || a == b {
		t.Errorf("NewULID() = %q, %q", a, b)
	}
}
