package handler

import (
	"log/slog"
	"net/http"

	"github.com/coally/coally-api/internal/handler/dto"
	"github.com/coally/coally-api/internal/service"
)

// AuthHandler handles registration and login.
type AuthHandler struct {
	*Handler
	svc *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(base *Handler, svc *service.AuthService) *AuthHandler {
	return &AuthHandler{Handler: base, svc: svc}
}

// Register handles POST {base}/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	user, err := h.svc.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.Info("user_registered", slog.String("user_id", user.ID))

	writeData(w, http.StatusCreated, user)
}

// Login handles POST {base}/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.Login(r.Context(), service.LoginInput{
		Identifier: req.Identifier,
		Password:   req.Password,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.Info("user_logged_in", slog.String("user_id", result.User.ID))

	writeData(w, http.StatusOK, dto.LoginResponse{User: result.User, Token: result.Token})
}
