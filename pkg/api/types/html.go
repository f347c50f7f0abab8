package types

import (
	"net/http"
)

// HTML bodies served by the API.
const (
	HomePage     = "<h1>Distant Reading Archive</h1><p>This is a prototype API</p>"
	NotFoundPage = "<h1>404</h1><p>The resource could not be found</p>"
	NotJSONPage  = "<p>The content isn't of type JSON</p>"
	MethodPage   = "<h1>405</h1><p>The method is not allowed for the requested URL</p>"
)

// WriteHTML writes an HTML body with the given status code.
func WriteHTML(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
