package storage

import (
	"context"
	"sort"
	"sync"

	"bookshelf-hq/booksapi/pkg/catalogue"
)

// MemoryStore implements catalogue.Store in memory. Data is lost when the
// process exits. IDs are never reused.
type MemoryStore struct {
	mu     sync.RWMutex
	books  map[int64]catalogue.Book
	nextID int64
	closed bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		books:  make(map[int64]catalogue.Book),
		nextID: 1,
	}
}

var errClosed = catalogue.NewStorageError(BackendMemory, "open", ErrClosed)

// List returns every book ordered by ID.
func (m *MemoryStore) List(ctx context.Context) ([]catalogue.Book, error) {
	return m.Find(ctx, catalogue.Filter{})
}

// Get returns the book with the given ID.
func (m *MemoryStore) Get(ctx context.Context, id int64) (catalogue.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return catalogue.Book{}, errClosed
	}
	b, ok := m.books[id]
	if !ok {
		return catalogue.Book{}, &catalogue.NotFoundError{ID: id}
	}
	return b, nil
}

// Find returns the books matching f ordered by ID.
func (m *MemoryStore) Find(ctx context.Context, f catalogue.Filter) ([]catalogue.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, errClosed
	}
	books := make([]catalogue.Book, 0, len(m.books))
	for _, b := range m.books {
		if f.Match(b) {
			books = append(books, b)
		}
	}
	sort.Slice(books, func(i, j int) bool { return books[i].ID < books[j].ID })
	return books, nil
}

// Create stores b under the next ID.
func (m *MemoryStore) Create(ctx context.Context, b catalogue.Book) (catalogue.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return catalogue.Book{}, errClosed
	}
	b.ID = m.nextID
	m.nextID++
	m.books[b.ID] = b
	return b, nil
}

// Update replaces the book with ID b.ID.
func (m *MemoryStore) Update(ctx context.Context, b catalogue.Book) (catalogue.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return catalogue.Book{}, errClosed
	}
	if _, ok := m.books[b.ID]; !ok {
		return catalogue.Book{}, &catalogue.NotFoundError{ID: b.ID}
	}
	m.books[b.ID] = b
	return b, nil
}

// Delete removes the book with the given ID.
func (m *MemoryStore) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errClosed
	}
	if _, ok := m.books[id]; !ok {
		return &catalogue.NotFoundError{ID: id}
	}
	delete(m.books, id)
	return nil
}

// Count returns the number of stored books.
func (m *MemoryStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return 0, errClosed
	}
	return len(m.books), nil
}

// Ping fails once the store is closed.
func (m *MemoryStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return errClosed
	}
	return nil
}

// Close marks the store closed. Later calls fail with ErrClosed.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}
