package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"bookshelf-hq/booksapi/pkg/telemetry/logging"
)

// Logging logs every request on completion. 5xx responses are logged at
// error level and 4xx at warn level.
//
//	{
//	  "level": "INFO",
//	  "msg": "request completed",
//	  "method": "GET",
//	  "path": "/books/1",
//	  "status": 200,
//	  "latency_ms": 2,
//	  "request_id": "9b2f..."
//	}
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "api")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startTime := time.Now()
			rw := newResponseWriter(w)
			requestID := logging.GetRequestID(r.Context())

			logger.DebugContext(r.Context(), "request started",
				"method", r.Method,
				"path", r.URL.Path,
				"request_id", requestID,
				"remote_addr", r.RemoteAddr,
			)

			next.ServeHTTP(rw, r)

			logLevel := slog.LevelInfo
			if rw.statusCode >= 500 {
				logLevel = slog.LevelError
			} else if rw.statusCode >= 400 {
				logLevel = slog.LevelWarn
			}

			logger.Log(r.Context(), logLevel, "request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rw.statusCode,
				"latency_ms", time.Since(startTime).Milliseconds(),
				"request_id", requestID,
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		})
	}
}
