package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Register mounts the book routes on router.
func (h *BooksHandler) Register(router *mux.Router) {
	router.HandleFunc("/", h.Home).Methods(http.MethodGet).Name("home")

	router.HandleFunc("/books", h.List).Methods(http.MethodGet).Name("books.list")
	router.HandleFunc("/books", h.Create).Methods(http.MethodPost).Name("books.create")
	router.HandleFunc("/books/{id}", h.Get).Methods(http.MethodGet).Name("books.get")
	router.HandleFunc("/books/{id}", h.Update).Methods(http.MethodPut).Name("books.update")
	router.HandleFunc("/books/{id}", h.Delete).Methods(http.MethodDelete).Name("books.delete")

	legacy := router.PathPrefix("/api/v2/resources").Subrouter()
	legacy.HandleFunc("/books/all", h.LegacyAll).Methods(http.MethodGet).Name("legacy.all")
	legacy.HandleFunc("/books", h.LegacyFind).Methods(http.MethodGet).Name("legacy.find")
	legacy.HandleFunc("/books", h.LegacyCreate).Methods(http.MethodPost).Name("legacy.create")
}
