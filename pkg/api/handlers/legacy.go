package handlers

import (
	"net/http"
	"strconv"

	"bookshelf-hq/booksapi/pkg/api/types"
	"bookshelf-hq/booksapi/pkg/catalogue"
)

// LegacyAll serves GET /api/v2/resources/books/all.
func (h *BooksHandler) LegacyAll(w http.ResponseWriter, r *http.Request) {
	h.List(w, r)
}

// LegacyFind serves GET /api/v2/resources/books?id=&published=&author=.
// A request without any filter gets the 404 page.
func (h *BooksHandler) LegacyFind(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := catalogue.Filter{
		Published: q.Get("published"),
		Author:    q.Get("author"),
	}

	if raw := q.Get("id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			types.WriteJSON(w, http.StatusOK, []catalogue.Book{})
			return
		}
		filter.ID = id
	}

	if filter.Empty() {
		NotFound(w, r)
		return
	}

	books, err := h.svc.Find(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	types.WriteJSON(w, http.StatusOK, books)
}

// LegacyCreate serves POST /api/v2/resources/books. Unlike POST /books it
// answers 200.
func (h *BooksHandler) LegacyCreate(w http.ResponseWriter, r *http.Request) {
	book, ok := h.decodeBook(w, r)
	if !ok {
		return
	}

	created, err := h.svc.Create(r.Context(), book)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	types.WriteJSON(w, http.StatusOK, created)
}
