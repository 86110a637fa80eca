// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"github.com/coally/coally-api/internal/model"
)

// DataResponse is the success envelope.
type DataResponse struct {
	Data any `json:"data"`
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the request body for login.
// Identifier is an email address or a username.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// CreateTaskRequest represents the request body for creating a task.
type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// UpdateTaskRequest represents the request body for updating a task.
// Absent fields are left unchanged; _id and createdAt are ignored.
type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

// ToPatch converts the request into a TaskPatch.
func (r UpdateTaskRequest) ToPatch() model.TaskPatch {
	return model.TaskPatch{
		Title:       r.Title,
		Description: r.Description,
		Completed:   r.Completed,
	}
}
