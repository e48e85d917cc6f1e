package store

import (
	"database/sql"
	"fmt"
	"sort"
)

// Migration represents a schema migration step.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// migrations is the ordered list of all schema migrations.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema: bucket files, chunks, metadata records",
		SQL: `
CREATE TABLE IF NOT EXISTS bucket_files (
  id TEXT PRIMARY KEY,
  bucket TEXT NOT NULL,
  filename TEXT NOT NULL,
  content_type TEXT NOT NULL,
  length INTEGER NOT NULL,
  chunk_size INTEGER NOT NULL,
  upload_date TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS bucket_chunks (
  bucket TEXT NOT NULL,
  files_id TEXT NOT NULL,
  n INTEGER NOT NULL,
  data BLOB NOT NULL,
  UNIQUE(bucket, files_id, n),
  FOREIGN KEY (files_id) REFERENCES bucket_files(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS metadata_records (
  collection TEXT NOT NULL,
  id TEXT NOT NULL,
  file_id TEXT NOT NULL,
  md5 TEXT NOT NULL,
  file_size INTEGER NOT NULL,
  filename TEXT NOT NULL,
  PRIMARY KEY (collection, id)
);

CREATE INDEX IF NOT EXISTS idx_bucket_files_bucket ON bucket_files(bucket);
CREATE INDEX IF NOT EXISTS idx_bucket_chunks_files_id ON bucket_chunks(bucket, files_id);
`,
	},
}

const migrationsTableSQL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  applied_at TEXT NOT NULL
);
`

func ensureMigrationsTable(db *sql.DB) error {
	_, err := db.Exec(migrationsTableSQL)
	return err
}

// currentVersion returns the highest applied migration version, or 0 if none.
func currentVersion(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

// runMigrations applies all pending migrations in order.
func runMigrations(db *sql.DB) error {
	if err := ensureMigrationsTable(db); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	current, err := currentVersion(db)
	if err != nil {
		return fmt.Errorf("get current version: %w", err)
	}

	sorted := make([]Migration, len(migrations))
	copy(sorted, migrations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })

	for _, m := range sorted {
		if m.Version <= current {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_migrations (version, applied_at) VALUES (?, datetime('now'))", m.Version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}
