package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mkrupp/bookswap/internal/infra/logging"
)

// SQLiteConfig holds configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the filesystem path to the SQLite database file
	Path string `env:"PATH" default:"var/storage/bookswap.db"`
}

// SQLite owns the process-wide SQLite connection pool shared by all repositories.
type SQLite struct {
	DB *sql.DB

	log       logging.Logger
	writeLock *sync.Mutex // sqlite allows a single writer at a time
}

// schema is applied on every open; all statements are idempotent.
// Uniqueness of (title, author) and (lender_id, book_id) is enforced here so
// that racing inserts surface as constraint violations instead of duplicates.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT    PRIMARY KEY,
	username      TEXT    NOT NULL COLLATE NOCASE,
	first_name    TEXT    NOT NULL,
	email         TEXT    NOT NULL COLLATE NOCASE,
	password_hash BLOB    NOT NULL,
	created_at    INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS users_username_unique ON users (username);
CREATE UNIQUE INDEX IF NOT EXISTS users_email_unique ON users (email);

CREATE TABLE IF NOT EXISTS books (
	id           TEXT    PRIMARY KEY,
	img_url      TEXT    NOT NULL DEFAULT '',
	title        TEXT    NOT NULL,
	author       TEXT    NOT NULL,
	page         INTEGER NOT NULL DEFAULT 0,
	release_year INTEGER NOT NULL DEFAULT 0,
	creator_id   TEXT    NOT NULL,
	created_at   INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS books_title_author_unique ON books (title, author);

CREATE TABLE IF NOT EXISTS listings (
	id           TEXT    PRIMARY KEY,
	book_id      TEXT    NOT NULL,
	lender_id    TEXT    NOT NULL,
	availability TEXT    NOT NULL DEFAULT 'available',
	condition    TEXT    NOT NULL,
	location     TEXT    NOT NULL,
	created_at   INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS listings_lender_book_unique ON listings (lender_id, book_id);
CREATE INDEX IF NOT EXISTS listings_book_id ON listings (book_id);
`

// FoldFunc names the SQL function that folds text with Fold. It is registered
// with the driver before the first database is opened.
const FoldFunc = "bookswap_fold"

//nolint:gochecknoglobals
var registerFoldFunc sync.Once

// OpenSQLite opens the database file, creating its directory and schema if needed.
func OpenSQLite(ctx context.Context, cfg SQLiteConfig) (*SQLite, error) {
	log := logging.GetLogger("infra.database.sqlite").With(
		logging.Group("db", "path", cfg.Path),
	)

	registerFoldFunc.Do(func() {
		sqlite.MustRegisterDeterministicScalarFunction(FoldFunc, 1, foldValue)
	})

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := "file:" + cfg.Path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()

		return nil, fmt.Errorf("ping db: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()

		return nil, fmt.Errorf("create schema: %w", err)
	}

	db.SetConnMaxLifetime(5 * time.Minute)

	log.DebugContext(ctx, "database opened")

	return &SQLite{
		DB:        db,
		log:       log,
		writeLock: new(sync.Mutex),
	}, nil
}

// LockWrites serializes writers and returns the matching unlock function.
//
//	defer db.LockWrites()()
func (s *SQLite) LockWrites() func() {
	s.writeLock.Lock()

	return s.writeLock.Unlock
}

// Reset deletes every row from every table.
func (s *SQLite) Reset(ctx context.Context) error {
	defer s.LockWrites()()

	for _, table := range []string{"listings", "books", "users"} {
		if _, err := s.DB.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}

	s.log.InfoContext(ctx, "database reset")

	return nil
}

// Close closes the connection pool.
func (s *SQLite) Close() error {
	if err := s.DB.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	return nil
}

// IsSQLiteUniqueViolation reports whether err is a unique or primary key
// constraint violation. A non-empty columns must also appear in the driver
// message (e.g. "users.email").
func IsSQLiteUniqueViolation(err error, columns string) bool {
	var liteErr *sqlite.Error
	if !errors.As(err, &liteErr) {
		return false
	}

	switch liteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return columns == "" || strings.Contains(liteErr.Error(), columns)
	default:
		return false
	}
}

// Fold maps s to the form prefix searches compare in. Unlike LIKE, which
// ignores case for ASCII letters only, it lowers every Unicode letter.
func Fold(s string) string {
	return strings.ToLower(s)
}

func foldValue(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return Fold(v), nil
	case []byte:
		return Fold(string(v)), nil
	default:
		return v, nil
	}
}

// FoldPrefix returns a LIKE pattern matching folded values that start with
// the folded prefix. Compare it against FoldFunc(column) with ESCAPE '\'.
func FoldPrefix(prefix string) string {
	return LikePrefix(Fold(prefix))
}

// LikePrefix returns a LIKE pattern matching values that start with prefix.
// Wildcards in prefix are escaped; use the pattern with ESCAPE '\'.
func LikePrefix(prefix string) string {
	return likeEscaper.Replace(prefix) + "%"
}

//nolint:gochecknoglobals
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
