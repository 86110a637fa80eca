package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/coally/coally-api/internal/memstore"
	"github.com/coally/coally-api/internal/model"
	"github.com/coally/coally-api/internal/service"
)

func newTaskRouter() http.Handler {
	h := NewTaskHandler(newTestHandler(), service.NewTaskService(memstore.New(), nil, nil))

	r := chi.NewRouter()
	r.Post("/task/create", h.Create)
	r.Get("/task/", h.List)
	r.Get("/task/get/{id}", h.Get)
	r.Put("/task/update/{id}", h.Update)
	r.Delete("/task/delete/{id}", h.Delete)
	return r
}

func do(t *testing.T, router http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec, decodeEnvelope(t, rec)
}

func decodeTask(t *testing.T, env envelope) model.Task {
	t.Helper()
	var task model.Task
	if err := json.Unmarshal(env.Data, &task); err != nil {
		t.Fatalf("failed to decode task: %v", err)
	}
	return task
}

func TestTaskHandler_Create(t *testing.T) {
	router := newTaskRouter()

	rec, env := do(t, router, http.MethodPost, "/task/create", `{"title":"Buy milk"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}

	task := decodeTask(t, env)
	if task.Title != "Buy milk" || task.Completed {
		t.Errorf("unexpected task: %+v", task)
	}
	if time.Since(task.CreatedAt) > time.Minute {
		t.Errorf("createdAt = %v, want about now", task.CreatedAt)
	}

	rec, env = do(t, router, http.MethodPost, "/task/create", `{"description":"no title"}`)
	if rec.Code != http.StatusBadRequest || env.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("missing title: status %d, error %+v", rec.Code, env.Error)
	}
}

func TestTaskHandler_Lifecycle(t *testing.T) {
	router := newTaskRouter()

	_, env := do(t, router, http.MethodPost, "/task/create", `{"title":"Write report","description":"q3"}`)
	created := decodeTask(t, env)

	rec, env := do(t, router, http.MethodGet, "/task/get/"+created.ID, "")
	if rec.Code != http.StatusOK || decodeTask(t, env).ID != created.ID {
		t.Fatalf("get: status %d", rec.Code)
	}

	rec, env = do(t, router, http.MethodPut, "/task/update/"+created.ID,
		`{"completed":true,"createdAt":"2000-01-01T00:00:00Z","_id":"other"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status %d", rec.Code)
	}
	updated := decodeTask(t, env)
	if !updated.Completed || updated.Title != "Write report" || updated.Description != "q3" {
		t.Errorf("unexpected update result: %+v", updated)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) || updated.ID != created.ID {
		t.Error("createdAt and _id must be ignored on update")
	}

	rec, env = do(t, router, http.MethodPut, "/task/update/"+created.ID, `{"title":"  "}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("blank title update: status %d, error %+v", rec.Code, env.Error)
	}

	rec, env = do(t, router, http.MethodDelete, "/task/delete/"+created.ID, "")
	if rec.Code != http.StatusOK || decodeTask(t, env).ID != created.ID {
		t.Fatalf("delete: status %d", rec.Code)
	}

	for _, call := range []struct{ method, path, body string }{
		{http.MethodGet, "/task/get/" + created.ID, ""},
		{http.MethodPut, "/task/update/" + created.ID, `{"completed":false}`},
		{http.MethodDelete, "/task/delete/" + created.ID, ""},
	} {
		rec, env := do(t, router, call.method, call.path, call.body)
		if rec.Code != http.StatusNotFound || env.Message != "task not found" {
			t.Errorf("%s %s: status %d, message %q", call.method, call.path, rec.Code, env.Message)
		}
	}
}

func TestTaskHandler_List(t *testing.T) {
	router := newTaskRouter()

	rec, env := do(t, router, http.MethodGet, "/task/", "")
	if rec.Code != http.StatusOK || string(env.Data) != "[]" {
		t.Errorf("empty list: status %d, data %s", rec.Code, env.Data)
	}

	_, env = do(t, router, http.MethodPost, "/task/create", `{"title":"a"}`)
	first := decodeTask(t, env)
	do(t, router, http.MethodPost, "/task/create", `{"title":"b"}`)
	do(t, router, http.MethodPut, "/task/update/"+first.ID, `{"completed":true}`)

	tests := []struct {
		query      string
		wantStatus int
		wantCount  int
	}{
		{"", http.StatusOK, 2},
		{"?completed=true", http.StatusOK, 1},
		{"?completed=false", http.StatusOK, 1},
		{"?completed=maybe", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec, env := do(t, router, http.MethodGet, "/task/"+tt.query, "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var tasks []model.Task
			if err := json.Unmarshal(env.Data, &tasks); err != nil {
				t.Fatalf("failed to decode tasks: %v", err)
			}
			if len(tasks) != tt.wantCount {
				t.Errorf("got %d tasks, want %d", len(tasks), tt.wantCount)
			}
		})
	}
}
