package catalogue

import (
	"context"
)

// Store persists books. Implementations must be safe for concurrent use.
//
// Get, Update and Delete return an error matching ErrNotFound when the ID is
// unknown. Backend failures are returned as *StorageError.
type Store interface {
	// List returns every book ordered by ID.
	List(ctx context.Context) ([]Book, error)

	// Get returns the book with the given ID.
	Get(ctx context.Context, id int64) (Book, error)

	// Find returns the books matching f ordered by ID.
	Find(ctx context.Context, f Filter) ([]Book, error)

	// Create stores b under a new ID and returns it with the ID set.
	Create(ctx context.Context, b Book) (Book, error)

	// Update replaces the book with ID b.ID.
	Update(ctx context.Context, b Book) (Book, error)

	// Delete removes the book with the given ID.
	Delete(ctx context.Context, id int64) error

	// Count returns the number of stored books.
	Count(ctx context.Context) (int, error)

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend.
	Close() error
}

// Storage operation names, used as the operation label of
// books_api_db_operations_total.
const (
	OpSelect = "select"
	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
	OpCount  = "count"
)
