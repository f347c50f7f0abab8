package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers "sqlite3" (cgo)
	_ "modernc.org/sqlite"          // registers "sqlite" (pure Go)

	"bookshelf-hq/booksapi/pkg/catalogue"
)

// SQLite driver names accepted by SQLiteConfig.Driver.
const (
	DriverModernc = "sqlite"
	DriverMattn   = "sqlite3"
)

// MemoryPath keeps the database in memory for the life of the store.
const MemoryPath = ":memory:"

// SQLiteConfig contains configuration for the SQLite store.
type SQLiteConfig struct {
	// Driver selects the database/sql driver: "sqlite" (modernc.org/sqlite)
	// or "sqlite3" (github.com/mattn/go-sqlite3).
	// Default: "sqlite"
	Driver string

	// Path is the database file path. Its directory is created if missing.
	Path string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// SQLiteStore implements catalogue.Store on a SQLite database.
type SQLiteStore struct {
	db        *sql.DB
	config    SQLiteConfig
	logger    *slog.Logger
	closeOnce sync.Once
}

// NewSQLiteStore opens the database, applies the pragmas and creates the
// schema if needed.
func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, catalogue.NewStorageError(BackendSQLite, "open", errors.New("db path cannot be empty"))
	}
	if cfg.Driver == "" {
		cfg.Driver = DriverModernc
	}
	if cfg.Driver != DriverModernc && cfg.Driver != DriverMattn {
		return nil, catalogue.NewStorageError(BackendSQLite, "open", fmt.Errorf("unsupported driver %q", cfg.Driver))
	}
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = 10
	}
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = 5
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if cfg.Path == MemoryPath {
		// every connection would open its own empty database
		cfg.MaxOpenConns = 1
		cfg.MaxIdleConns = 1
	}

	logger := slog.Default().With("component", "catalogue.storage.sqlite")

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, catalogue.NewStorageError(BackendSQLite, "mkdir", err)
		}
	}

	db, err := sql.Open(cfg.Driver, dsn(cfg))
	if err != nil {
		return nil, catalogue.NewStorageError(BackendSQLite, "open", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	s := &SQLiteStore{
		db:     db,
		config: cfg,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite storage initialized",
		"path", cfg.Path,
		"driver", cfg.Driver,
		"wal_mode", cfg.WALMode,
		"max_open_conns", cfg.MaxOpenConns,
	)

	return s, nil
}

// dsn adds the per-connection pragmas in the syntax of the selected driver.
// The PRAGMA statements in initialize only reach one pooled connection.
func dsn(cfg SQLiteConfig) string {
	if cfg.Path == MemoryPath {
		return cfg.Path
	}

	busy := cfg.BusyTimeout.Milliseconds()
	params := url.Values{}
	switch cfg.Driver {
	case DriverMattn:
		params.Set("_busy_timeout", strconv.FormatInt(busy, 10))
		if cfg.WALMode {
			params.Set("_journal_mode", "WAL")
		}
	default:
		params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busy))
		if cfg.WALMode {
			params.Add("_pragma", "journal_mode(WAL)")
		}
	}
	return "file:" + cfg.Path + "?" + params.Encode()
}

// initialize sets the pragmas, creates the schema and checks its version.
func (s *SQLiteStore) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return catalogue.NewStorageError(BackendSQLite, "enable_wal", err)
		}
		s.logger.Debug("WAL mode enabled")
	}

	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return catalogue.NewStorageError(BackendSQLite, "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return catalogue.NewStorageError(BackendSQLite, "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return catalogue.NewStorageError(BackendSQLite, "insert_schema_version", err)
	}

	var version sql.NullInt64
	if err := s.db.QueryRow(GetSchemaVersion).Scan(&version); err != nil {
		return catalogue.NewStorageError(BackendSQLite, "get_schema_version", err)
	}
	if version.Int64 != SchemaVersion {
		return catalogue.NewStorageError(BackendSQLite, "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version.Int64))
	}

	s.logger.Debug("schema version verified", "version", version.Int64)
	return nil
}

// List returns every book ordered by ID.
func (s *SQLiteStore) List(ctx context.Context) ([]catalogue.Book, error) {
	return s.Find(ctx, catalogue.Filter{})
}

// Get returns the book with the given ID.
func (s *SQLiteStore) Get(ctx context.Context, id int64) (catalogue.Book, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE id = ?`, id)

	var b catalogue.Book
	if err := row.Scan(&b.ID, &b.Title, &b.Author, &b.Published, &b.FirstSentence); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return catalogue.Book{}, &catalogue.NotFoundError{ID: id}
		}
		return catalogue.Book{}, catalogue.NewStorageError(BackendSQLite, catalogue.OpSelect, err)
	}
	return b, nil
}

// Find returns the books matching f ordered by ID.
func (s *SQLiteStore) Find(ctx context.Context, f catalogue.Filter) ([]catalogue.Book, error) {
	var (
		conds []string
		args  []any
	)
	if f.ID != 0 {
		conds = append(conds, "id = ?")
		args = append(args, f.ID)
	}
	if f.Published != "" {
		conds = append(conds, "published = ?")
		args = append(args, f.Published)
	}
	if f.Author != "" {
		conds = append(conds, "author = ?")
		args = append(args, f.Author)
	}

	query := `SELECT ` + bookColumns + ` FROM books`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, catalogue.NewStorageError(BackendSQLite, catalogue.OpSelect, err)
	}
	defer rows.Close()

	books := []catalogue.Book{}
	for rows.Next() {
		var b catalogue.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Published, &b.FirstSentence); err != nil {
			return nil, catalogue.NewStorageError(BackendSQLite, catalogue.OpSelect, err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, catalogue.NewStorageError(BackendSQLite, catalogue.OpSelect, err)
	}
	return books, nil
}

// Create inserts b and returns it with the assigned ID.
func (s *SQLiteStore) Create(ctx context.Context, b catalogue.Book) (catalogue.Book, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO books (title, author, published, first_sentence) VALUES (?, ?, ?, ?)`,
		b.Title, b.Author, b.Published, b.FirstSentence)
	if err != nil {
		return catalogue.Book{}, catalogue.NewStorageError(BackendSQLite, catalogue.OpInsert, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return catalogue.Book{}, catalogue.NewStorageError(BackendSQLite, catalogue.OpInsert, err)
	}
	b.ID = id
	return b, nil
}

// Update replaces the book with ID b.ID.
func (s *SQLiteStore) Update(ctx context.Context, b catalogue.Book) (catalogue.Book, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE books SET title = ?, author = ?, published = ?, first_sentence = ? WHERE id = ?`,
		b.Title, b.Author, b.Published, b.FirstSentence, b.ID)
	if err != nil {
		return catalogue.Book{}, catalogue.NewStorageError(BackendSQLite, catalogue.OpUpdate, err)
	}
	if err := s.affected(res, b.ID, catalogue.OpUpdate); err != nil {
		return catalogue.Book{}, err
	}
	return b, nil
}

// Delete removes the book with the given ID.
func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return catalogue.NewStorageError(BackendSQLite, catalogue.OpDelete, err)
	}
	return s.affected(res, id, catalogue.OpDelete)
}

func (s *SQLiteStore) affected(res sql.Result, id int64, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return catalogue.NewStorageError(BackendSQLite, op, err)
	}
	if n == 0 {
		return &catalogue.NotFoundError{ID: id}
	}
	return nil
}

// Count returns the number of stored books.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&n); err != nil {
		return 0, catalogue.NewStorageError(BackendSQLite, catalogue.OpCount, err)
	}
	return n, nil
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return catalogue.NewStorageError(BackendSQLite, "ping", err)
	}
	return nil
}

// Close closes the database. It is safe to call more than once.
func (s *SQLiteStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.db.Close()
		s.logger.Info("SQLite storage closed")
	})
	return err
}
