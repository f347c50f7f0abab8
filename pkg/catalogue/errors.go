package catalogue

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no book has the requested ID.
var ErrNotFound = errors.New("book not found")

// NotFoundError carries the missing ID and matches ErrNotFound with errors.Is.
type NotFoundError struct {
	ID int64
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Book with ID %d not found", e.ID)
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ValidationError reports a book field a client got wrong.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid book: %s: %s", e.Field, e.Message)
}

// StorageError represents an error from the storage backend.
type StorageError struct {
	Backend   string // Storage backend type ("memory", "sqlite")
	Operation string // Operation that failed ("select", "insert", "open", etc.)
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}
