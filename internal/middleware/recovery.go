package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/coally/coally-api/internal/apperror"
)

// Recoverer is a middleware that recovers from panics.
// It logs the panic with its stack and answers with a 500 envelope.
// With printStack set the stack also goes to stderr.
func Recoverer(logger *slog.Logger, printStack bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}

				logger.Error("panic recovered",
					slog.String("request_id", GetRequestID(r.Context())),
					slog.Any("panic", rvr),
					slog.String("stack", string(debug.Stack())),
				)

				if printStack {
					debug.PrintStack()
				}

				apperror.Write(w, apperror.Internal("internal server error", nil), false)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
