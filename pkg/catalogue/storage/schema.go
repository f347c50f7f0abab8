package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the books table and the schema version table.
const Schema = `
CREATE TABLE IF NOT EXISTS books (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    author TEXT NOT NULL,
    published TEXT NOT NULL DEFAULT '',
    first_sentence TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_books_author ON books(author);
CREATE INDEX IF NOT EXISTS idx_books_published ON books(published);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// InsertSchemaVersion records SchemaVersion once.
const InsertSchemaVersion = `INSERT OR IGNORE INTO schema_version (version) VALUES (?)`

// GetSchemaVersion returns the newest applied version.
const GetSchemaVersion = `SELECT MAX(version) FROM schema_version`

const bookColumns = `id, title, author, published, first_sentence`
