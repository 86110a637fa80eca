package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/coally/coally-api/internal/apperror"
	"github.com/coally/coally-api/internal/auth"
	"github.com/coally/coally-api/internal/model"
)

// Authenticator resolves an Authorization header value to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, header string) (*model.User, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger        *slog.Logger
	Authenticator Authenticator
	// ExposeInternal adds internal error causes to responses.
	ExposeInternal bool
}

// Auth returns a middleware that validates the session token in the
// Authorization header and attaches the user to the request context.
// The header may hold the raw token or "Bearer <token>".
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := cfg.Authenticator.Authenticate(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				appErr := apperror.From(err)

				if appErr.Kind == apperror.KindInternal {
					cfg.Logger.Error("authentication error",
						slog.String("error", appErr.Error()),
						slog.String("request_id", GetRequestID(r.Context())),
					)
				} else {
					cfg.Logger.Warn("authentication failed",
						slog.String("reason", appErr.Message),
						slog.String("ip", r.RemoteAddr),
						slog.String("endpoint", r.Method+" "+r.URL.Path),
						slog.String("request_id", GetRequestID(r.Context())),
					)
				}

				apperror.Write(w, appErr, cfg.ExposeInternal)
				return
			}

			cfg.Logger.Debug("authentication successful",
				slog.String("user_id", user.ID),
				slog.String("endpoint", r.Method+" "+r.URL.Path),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			ctx := auth.ContextWithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
