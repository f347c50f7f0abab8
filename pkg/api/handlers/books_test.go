package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gorilla/mux"

	"bookshelf-hq/booksapi/pkg/api/types"
	"bookshelf-hq/booksapi/pkg/catalogue"
	"bookshelf-hq/booksapi/pkg/catalogue/storage"
)

type exceptionCounter struct{ n atomic.Int64 }

func (c *exceptionCounter) RecordException() { c.n.Add(1) }

// newTestRouter returns a router serving a memory catalogue seeded with
// catalogue.SeedBooks.
func newTestRouter(t *testing.T) (*mux.Router, *storage.MemoryStore, *exceptionCounter) {
	t.Helper()

	store := storage.NewMemoryStore()
	svc := catalogue.NewService(store, nil, storage.BackendMemory)
	if _, err := svc.Seed(context.Background(), catalogue.SeedBooks); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	exceptions := &exceptionCounter{}
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(NotFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(MethodNotAllowed)
	NewBooksHandler(svc, exceptions, 0).Register(router)

	return router, store, exceptions
}

func serve(router http.Handler, method, target, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBooks(t *testing.T, rec *httptest.ResponseRecorder) []catalogue.Book {
	t.Helper()
	var books []catalogue.Book
	if err := json.NewDecoder(rec.Body).Decode(&books); err != nil {
		t.Fatalf("decode books: %v (body %q)", err, rec.Body.String())
	}
	return books
}

func TestHome(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := serve(router, http.MethodGet, "/", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if rec.Body.String() != types.HomePage {
		t.Errorf("body = %q", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestListAndGet(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := serve(router, http.MethodGet, "/books", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if books := decodeBooks(t, rec); len(books) != len(catalogue.SeedBooks) {
		t.Errorf("got %d books, want %d", len(books), len(catalogue.SeedBooks))
	}

	rec = serve(router, http.MethodGet, "/books/1", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	var book catalogue.Book
	if err := json.NewDecoder(rec.Body).Decode(&book); err != nil {
		t.Fatal(err)
	}
	if book.ID != 1 || book.Title != catalogue.SeedBooks[0].Title {
		t.Errorf("unexpected book %+v", book)
	}
}

func TestGet_NotFound(t *testing.T) {
	router, _, _ := newTestRouter(t)

	tests := []struct {
		name     string
		target   string
		wantJSON bool
	}{
		{"unknown id", "/books/999", true},
		{"non-numeric id", "/books/dune", false},
		{"zero id", "/books/0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, http.MethodGet, tt.target, "", "")
			if rec.Code != http.StatusNotFound {
				t.Fatalf("code = %d, want 404", rec.Code)
			}
			if !tt.wantJSON {
				if rec.Body.String() != types.NotFoundPage {
					t.Errorf("body = %q", rec.Body.String())
				}
				return
			}
			var resp types.ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatal(err)
			}
			if resp.Error != "Book with ID 999 not found" {
				t.Errorf("error = %q", resp.Error)
			}
		})
	}
}

func TestCreate(t *testing.T) {
	router, _, _ := newTestRouter(t)

	tests := []struct {
		name        string
		contentType string
		body        string
		wantCode    int
		wantBody    string
	}{
		{
			name:        "created",
			contentType: "application/json",
			body:        `{"title": "Test Book", "author": "Test Author", "read": false}`,
			wantCode:    http.StatusCreated,
		},
		{
			name:        "json with charset",
			contentType: "application/json; charset=utf-8",
			body:        `{"title": "Kindred", "author": "Octavia E. Butler"}`,
			wantCode:    http.StatusCreated,
		},
		{
			name:        "not json",
			contentType: "text/plain",
			body:        "title=Test",
			wantCode:    http.StatusBadRequest,
			wantBody:    types.NotJSONPage,
		},
		{
			name:        "malformed json",
			contentType: "application/json",
			body:        `{"title": `,
			wantCode:    http.StatusBadRequest,
		},
		{
			name:        "missing author",
			contentType: "application/json",
			body:        `{"title": "Anonymous"}`,
			wantCode:    http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, http.MethodPost, "/books", tt.contentType, tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d (body %q)", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
			if tt.wantCode == http.StatusCreated {
				var book catalogue.Book
				if err := json.NewDecoder(rec.Body).Decode(&book); err != nil {
					t.Fatal(err)
				}
				if book.ID == 0 {
					t.Error("expected an assigned ID")
				}
				if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/books/") {
					t.Errorf("Location = %q", loc)
				}
			}
		})
	}
}

func TestCreate_BodyTooLarge(t *testing.T) {
	svc := catalogue.NewService(storage.NewMemoryStore(), nil, storage.BackendMemory)
	router := mux.NewRouter()
	NewBooksHandler(svc, nil, 16).Register(router)

	rec := serve(router, http.MethodPost, "/books", "application/json",
		`{"title": "A very long title indeed", "author": "Someone"}`)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("code = %d, want 413", rec.Code)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := serve(router, http.MethodPut, "/books/2", "application/json",
		`{"title": "The Word for World Is Forest", "author": "Ursula K. Le Guin", "published": "1972"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT code = %d (body %q)", rec.Code, rec.Body.String())
	}
	var book catalogue.Book
	_ = json.NewDecoder(rec.Body).Decode(&book)
	if book.ID != 2 || book.Published != "1972" {
		t.Errorf("unexpected update %+v", book)
	}

	if rec := serve(router, http.MethodPut, "/books/999", "application/json", `{"title": "x", "author": "y"}`); rec.Code != http.StatusNotFound {
		t.Errorf("PUT unknown code = %d, want 404", rec.Code)
	}

	if rec := serve(router, http.MethodDelete, "/books/2", "", ""); rec.Code != http.StatusNoContent {
		t.Errorf("DELETE code = %d, want 204", rec.Code)
	}
	if rec := serve(router, http.MethodDelete, "/books/2", "", ""); rec.Code != http.StatusNotFound {
		t.Errorf("second DELETE code = %d, want 404", rec.Code)
	}
}

func TestLegacyRoutes(t *testing.T) {
	router, _, _ := newTestRouter(t)

	tests := []struct {
		name      string
		target    string
		wantCode  int
		wantBooks int
	}{
		{"all", "/api/v2/resources/books/all", http.StatusOK, 3},
		{"by id", "/api/v2/resources/books?id=1", http.StatusOK, 1},
		{"by author", "/api/v2/resources/books?author=Samuel+R.+Delany", http.StatusOK, 1},
		{"by published", "/api/v2/resources/books?published=1973", http.StatusOK, 1},
		{"no match", "/api/v2/resources/books?author=Nobody", http.StatusOK, 0},
		{"invalid id", "/api/v2/resources/books?id=abc", http.StatusOK, 0},
		{"no filter", "/api/v2/resources/books", http.StatusNotFound, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, http.MethodGet, tt.target, "", "")
			if rec.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantBooks < 0 {
				if rec.Body.String() != types.NotFoundPage {
					t.Errorf("body = %q", rec.Body.String())
				}
				return
			}
			if got := len(decodeBooks(t, rec)); got != tt.wantBooks {
				t.Errorf("got %d books, want %d", got, tt.wantBooks)
			}
		})
	}

	rec := serve(router, http.MethodPost, "/api/v2/resources/books", "application/json",
		`{"title": "Babel-17", "author": "Samuel R. Delany", "published": "1966"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("legacy POST code = %d, want 200", rec.Code)
	}
}

func TestUnknownRouteAndMethod(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := serve(router, http.MethodGet, "/nonexistent", "", "")
	if rec.Code != http.StatusNotFound || rec.Body.String() != types.NotFoundPage {
		t.Errorf("unknown route: %d %q", rec.Code, rec.Body.String())
	}

	rec = serve(router, http.MethodPatch, "/books", "", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("wrong method: code = %d, want 405", rec.Code)
	}
}

func TestStorageFailure(t *testing.T) {
	router, store, exceptions := newTestRouter(t)
	_ = store.Close()

	rec := serve(router, http.MethodGet, "/books", "", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("code = %d, want 500", rec.Code)
	}
	var resp types.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(resp.Error, "Database error: ") {
		t.Errorf("error = %q", resp.Error)
	}
	if exceptions.n.Load() != 1 {
		t.Errorf("exceptions = %d, want 1", exceptions.n.Load())
	}

	// client errors are not exceptions
	serve(router, http.MethodPost, "/books", "text/plain", "")
	if exceptions.n.Load() != 1 {
		t.Errorf("exceptions = %d after a client error", exceptions.n.Load())
	}
}
