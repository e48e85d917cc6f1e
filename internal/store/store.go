package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"gffstore/internal/blobstore"
)

const (
	// AddressScheme selects this backend in a backend address.
	AddressScheme = "sqlite"

	busyTimeoutMS   = 5000
	maxOpenConns    = 1
	maxIdleConns    = 1
	connMaxLifetime = 5 * time.Minute

	// DefaultChunkSize matches the GridFS default chunk size.
	DefaultChunkSize = 255 * 1024
)

// Store is a single-file SQLite backend laid out like a GridFS database:
// per-bucket file and chunk rows plus keyed metadata collections.
type Store struct {
	db        *sql.DB
	chunkSize int
}

var _ blobstore.Backend = (*Store)(nil)

// Open opens the SQLite database and bootstraps the schema.
func Open(path string) (*Store, error) {
	dsn, err := sqliteDSN(path)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := configureDB(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, chunkSize: DefaultChunkSize}, nil
}

// OpenAddress opens the store named by a sqlite://<path> address.
func OpenAddress(ctx context.Context, address string) (*Store, error) {
	path, err := PathFromAddress(address)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st, err := Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, joinUnavailable(err))
	}
	return st, nil
}

// PathFromAddress extracts the database path from a sqlite:// address.
func PathFromAddress(address string) (string, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(address), AddressScheme+"://")
	if !ok {
		return "", fmt.Errorf("not a %s address: %q", AddressScheme, address)
	}
	if rest == "" {
		return "", fmt.Errorf("db path is required")
	}
	return rest, nil
}

// SetChunkSize overrides the chunk size used for new objects.
func (s *Store) SetChunkSize(n int) {
	if n > 0 {
		s.chunkSize = n
	}
}

// Close closes the underlying database connection.
func (s *Store) Close(_ context.Context) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func configureDB(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA foreign_keys = ON;",
		fmt.Sprintf("PRAGMA busy_timeout = %d;", busyTimeoutMS),
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	return nil
}

func sqliteDSN(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("db path is required")
	}
	u := url.URL{Scheme: "file", Path: path}
	return u.String(), nil
}

func isStoreUniqueConstraint(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

func joinUnavailable(err error) error {
	return fmt.Errorf("%w: %w", blobstore.ErrUnavailable, err)
}
