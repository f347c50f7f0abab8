package handlers

import (
	"net/http"

	"bookshelf-hq/booksapi/pkg/api/types"
)

// NotFound serves the 404 page for unknown resources.
func NotFound(w http.ResponseWriter, r *http.Request) {
	types.WriteHTML(w, http.StatusNotFound, types.NotFoundPage)
}

// MethodNotAllowed serves the 405 page for known paths hit with the wrong
// method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	types.WriteHTML(w, http.StatusMethodNotAllowed, types.MethodPage)
}
