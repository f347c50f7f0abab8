package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"bookshelf-hq/booksapi/pkg/telemetry/logging"
)

// RequestIDHeader is the HTTP header for request ID.
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLength bounds a client supplied request ID.
const maxRequestIDLength = 128

// RequestID assigns every request an ID, stored in the context with
// logging.WithRequestID and echoed in the X-Request-ID response header.
// A client supplied X-Request-ID is kept.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), requestID)))
	})
}
