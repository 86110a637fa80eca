package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/coally/coally-api/internal/apperror"
	"github.com/coally/coally-api/internal/auth"
	"github.com/coally/coally-api/internal/handler/dto"
	"github.com/coally/coally-api/internal/model"
	"github.com/coally/coally-api/internal/service"
)

// TaskHandler handles HTTP requests for task operations.
type TaskHandler struct {
	*Handler
	svc *service.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(base *Handler, svc *service.TaskService) *TaskHandler {
	return &TaskHandler{Handler: base, svc: svc}
}

// Create handles POST {base}/task/create.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTaskRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	task, err := h.svc.Create(r.Context(), service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.Info("task_created",
		slog.String("task_id", task.ID),
		slog.String("user_id", auth.UserIDFromContext(r.Context())),
	)

	writeData(w, http.StatusCreated, task)
}

// List handles GET {base}/task/.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter model.TaskFilter

	switch completed := r.URL.Query().Get("completed"); completed {
	case "":
	case "true", "false":
		v := completed == "true"
		filter.Completed = &v
	default:
		h.writeError(w, r, apperror.Validation("completed must be true or false"))
		return
	}

	tasks, err := h.svc.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, tasks)
}

// Get handles GET {base}/task/get/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	task, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, task)
}

// Update handles PUT {base}/task/update/{id}.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateTaskRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	task, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), req.ToPatch())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, task)
}

// Delete handles DELETE {base}/task/delete/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	task, err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.Info("task_deleted",
		slog.String("task_id", task.ID),
		slog.String("user_id", auth.UserIDFromContext(r.Context())),
	)

	writeData(w, http.StatusOK, task)
}
