// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/coally/coally-api/internal/apperror"
	"github.com/coally/coally-api/internal/handler/dto"
	"github.com/coally/coally-api/internal/middleware"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

// Handler carries what every handler needs to render responses.
type Handler struct {
	logger         *slog.Logger
	exposeInternal bool
}

// New creates a new Handler. exposeInternal adds the cause of internal
// errors to responses and should only be set in development.
func New(logger *slog.Logger, exposeInternal bool) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		exposeInternal: exposeInternal,
	}
}

// Hello reports that the service is up.
// GET /
func (h *Handler) Hello(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]string{
		"message": "coally api",
		"version": Version,
	})
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, r, apperror.NotFound("resource not found"))
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	resp := apperror.Response{
		Error: apperror.Body{
			Code:       "METHOD_NOT_ALLOWED",
			StatusCode: http.StatusMethodNotAllowed,
		},
		Message: "method not allowed",
	}
	writeJSON(w, http.StatusMethodNotAllowed, resp)
}

// writeError renders err as the error envelope. Internal errors are logged
// with the request id.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperror.From(err)
	if appErr.Kind == apperror.KindInternal {
		h.logger.Error("request failed",
			slog.String("request_id", middleware.GetRequestID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", appErr.Error()),
		)
	}
	apperror.Write(w, appErr, h.exposeInternal)
}

// decodeJSON reads the request body into dst. An empty body leaves dst
// at its zero value so that field validation reports what is missing.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.writeError(w, r, apperror.Validation("request body too large"))
		return false
	}

	h.writeError(w, r, apperror.Validation("invalid request body"))
	return false
}

// writeData writes v inside the success envelope.
func writeData(w http.ResponseWriter, status int, v any) {
	writeJSON(w, status, dto.DataResponse{Data: v})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
