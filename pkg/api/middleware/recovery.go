package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"bookshelf-hq/booksapi/pkg/api/types"
	"bookshelf-hq/booksapi/pkg/telemetry/logging"
)

// Recovery turns a panic in an inner handler into a 500 JSON response and
// logs it with the stack trace. http.ErrAbortHandler is re-raised so the
// server aborts the connection as usual.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "api")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				err := recover()
				if err == nil {
					return
				}
				if err == http.ErrAbortHandler {
					panic(err)
				}

				logger.ErrorContext(r.Context(), "panic in handler",
					"error", err,
					"request_id", logging.GetRequestID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)

				types.WriteError(w, http.StatusInternalServerError, "Internal server error")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
