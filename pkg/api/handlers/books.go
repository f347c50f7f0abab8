package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"bookshelf-hq/booksapi/pkg/api/types"
	"bookshelf-hq/booksapi/pkg/catalogue"
	"bookshelf-hq/booksapi/pkg/telemetry/logging"
)

// ExceptionRecorder counts requests that failed with an internal error.
// *metrics.Interceptor implements it.
type ExceptionRecorder interface {
	RecordException()
}

// DefaultMaxBodyBytes bounds request bodies when no limit is configured.
const DefaultMaxBodyBytes = 1 << 20

// BooksHandler serves the book resources.
type BooksHandler struct {
	svc          *catalogue.Service
	exceptions   ExceptionRecorder
	maxBodyBytes int64
	logger       *slog.Logger
}

// NewBooksHandler creates the handler. A nil rec disables exception
// counting; maxBodyBytes <= 0 selects DefaultMaxBodyBytes.
func NewBooksHandler(svc *catalogue.Service, rec ExceptionRecorder, maxBodyBytes int64) *BooksHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &BooksHandler{
		svc:          svc,
		exceptions:   rec,
		maxBodyBytes: maxBodyBytes,
		logger:       slog.Default().With("component", "api.handlers"),
	}
}

// Home serves the archive landing page.
func (h *BooksHandler) Home(w http.ResponseWriter, r *http.Request) {
	types.WriteHTML(w, http.StatusOK, types.HomePage)
}

// List serves GET /books.
func (h *BooksHandler) List(w http.ResponseWriter, r *http.Request) {
	books, err := h.svc.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	types.WriteJSON(w, http.StatusOK, books)
}

// Get serves GET /books/{id}.
func (h *BooksHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(r)
	if !ok {
		NotFound(w, r)
		return
	}

	book, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	types.WriteJSON(w, http.StatusOK, book)
}

// Create serves POST /books. It answers 201 with the stored book.
func (h *BooksHandler) Create(w http.ResponseWriter, r *http.Request) {
	book, ok := h.decodeBook(w, r)
	if !ok {
		return
	}

	created, err := h.svc.Create(r.Context(), book)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/books/%d", created.ID))
	types.WriteJSON(w, http.StatusCreated, created)
}

// Update serves PUT /books/{id}.
func (h *BooksHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(r)
	if !ok {
		NotFound(w, r)
		return
	}
	book, ok := h.decodeBook(w, r)
	if !ok {
		return
	}
	book.ID = id

	updated, err := h.svc.Update(r.Context(), book)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	types.WriteJSON(w, http.StatusOK, updated)
}

// Delete serves DELETE /books/{id}.
func (h *BooksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(r)
	if !ok {
		NotFound(w, r)
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeBook reads a JSON book from the body. Unknown fields are ignored.
// On failure the response has been written.
func (h *BooksHandler) decodeBook(w http.ResponseWriter, r *http.Request) (catalogue.Book, bool) {
	if !isJSON(r) {
		types.WriteHTML(w, http.StatusBadRequest, types.NotJSONPage)
		return catalogue.Book{}, false
	}

	var book catalogue.Book
	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&book); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			types.WriteError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return catalogue.Book{}, false
		}
		types.WriteError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return catalogue.Book{}, false
	}
	return book, true
}

// writeError maps catalogue errors to responses. Anything that is not a
// client error is counted as an exception.
func (h *BooksHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *catalogue.ValidationError
	switch {
	case errors.Is(err, catalogue.ErrNotFound):
		types.WriteError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &verr):
		types.WriteError(w, http.StatusBadRequest, verr.Error())
	default:
		if h.exceptions != nil {
			h.exceptions.RecordException()
		}
		h.logger.ErrorContext(r.Context(), "catalogue request failed",
			"error", err,
			"request_id", logging.GetRequestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
		)
		types.WriteError(w, http.StatusInternalServerError, "Database error: "+err.Error())
	}
}

// bookID parses the {id} route variable. Non-numeric IDs match no book.
func bookID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func isJSON(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
