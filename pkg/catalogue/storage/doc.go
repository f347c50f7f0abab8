// Package storage provides the catalogue.Store backends.
//
// MemoryStore keeps books in a map and suits tests and throwaway runs.
// SQLiteStore persists them in a SQLite file through either the pure-Go
// modernc.org/sqlite driver ("sqlite") or the cgo github.com/mattn/go-sqlite3
// driver ("sqlite3"), with optional WAL mode and a busy timeout.
//
//	store, err := storage.Open(cfg.Storage)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
package storage
