package storage

import (
	"errors"
	"fmt"

	"bookshelf-hq/booksapi/pkg/catalogue"
	"bookshelf-hq/booksapi/pkg/config"
)

// Backend names accepted in storage.backend.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// ErrClosed is returned by a store after Close.
var ErrClosed = errors.New("store is closed")

// Open creates the store selected by cfg.Backend.
func Open(cfg config.StorageConfig) (catalogue.Store, error) {
	switch cfg.Backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendSQLite, "":
		store, err := NewSQLiteStore(SQLiteConfig{
			Driver:       cfg.SQLite.Driver,
			Path:         cfg.SQLite.Path,
			MaxOpenConns: cfg.SQLite.MaxOpenConns,
			MaxIdleConns: cfg.SQLite.MaxIdleConns,
			WALMode:      cfg.SQLite.WALMode,
			BusyTimeout:  cfg.SQLite.BusyTimeout,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

var (
	_ catalogue.Store = (*MemoryStore)(nil)
	_ catalogue.Store = (*SQLiteStore)(nil)
)
