// Package sqlite implements the user and review stores on an embedded
// SQLite database. It backs local development and the test suite; the
// schema mirrors the PostgreSQL migrations, including the composite
// unique index on reviews.
package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	sqlitedriver "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    username      TEXT NOT NULL UNIQUE,
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS reviews (
    id          TEXT PRIMARY KEY,
    game_title  TEXT NOT NULL,
    rating      INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
    review_text TEXT NOT NULL,
    image_url   TEXT NOT NULL DEFAULT '',
    user_id     TEXT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
    created_at  INTEGER NOT NULL,
    updated_at  INTEGER NOT NULL,
    UNIQUE (user_id, game_title)
);

CREATE INDEX IF NOT EXISTS idx_reviews_created_at ON reviews (created_at DESC, id DESC);
`

// lowerFunc names the Unicode-aware lowercase function registered on every
// connection. SQLite's built-in LOWER only folds ASCII.
const lowerFunc = "go_lower"

func init() {
	if err := sqlitedriver.RegisterDeterministicScalarFunction(lowerFunc, 1, goLower); err != nil {
		panic(fmt.Sprintf("register %s: %v", lowerFunc, err))
	}
}

func goLower(_ *sqlitedriver.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return nil, fmt.Errorf("%s: unsupported argument type %T", lowerFunc, v)
	}
}

// Store implements user and review persistence over SQLite.
type Store struct {
	db *sql.DB
}

type options struct {
	maxOpenConns int
}

// Option configures Open.
type Option func(*options)

// WithMaxOpenConns sets the connection pool size. The default of one
// connection serializes every statement; larger pools rely on WAL and the
// busy timeout to arbitrate concurrent writers. Values below one are ignored.
func WithMaxOpenConns(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxOpenConns = n
		}
	}
}

// Open opens (creating if needed) the database file at path and applies
// the schema.
func Open(path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cfg := options{maxOpenConns: 1}
	for _, opt := range opts {
		opt(&cfg)
	}

	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite db")
	}

	// SQLite allows a single writer; one connection keeps writes serialized
	// without SQLITE_BUSY churn. Uniqueness still comes from the index.
	db.SetMaxOpenConns(cfg.maxOpenConns)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping sqlite db")
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "apply schema")
	}

	return &Store{db: db}, nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// toMillis normalizes timestamps into millisecond precision for storage.
func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

// fromMillis restores a stored timestamp in UTC.
func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// uniqueConstraint reports whether err is a UNIQUE constraint failure and
// returns the message naming the offending columns.
func uniqueConstraint(err error) (string, bool) {
	var se *sqlitedriver.Error
	if !stderrors.As(err, &se) {
		return "", false
	}
	if se.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return "", false
	}
	msg := se.Error()
	if !strings.Contains(msg, "UNIQUE") {
		return "", false
	}
	return msg, true
}
