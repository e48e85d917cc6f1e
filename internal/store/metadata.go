package store

import (
	"context"
	"database/sql"
	"fmt"

	"gffstore/internal/blobstore"
	"gffstore/internal/models"
)

// InsertMetadata inserts rec into collection. Keys are unique per collection.
func (s *Store) InsertMetadata(ctx context.Context, collection string, rec models.MetadataRecord) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO metadata_records (collection, id, file_id, md5, file_size, filename) VALUES (?, ?, ?, ?, ?, ?)",
		collection, rec.Key, rec.FileID.Hex(), rec.MD5, rec.FileSize, rec.Filename,
	)
	if isStoreUniqueConstraint(err) {
		return fmt.Errorf("insert metadata %q into %s: %w: %w", rec.Key, collection, blobstore.ErrDuplicateKey, err)
	}
	if err != nil {
		return fmt.Errorf("insert metadata %q into %s: %w", rec.Key, collection, err)
	}
	return nil
}

// GetMetadata loads one record by key.
func (s *Store) GetMetadata(ctx context.Context, collection, key string) (models.MetadataRecord, error) {
	rec := models.MetadataRecord{Key: key}
	var fileID string
	err := s.db.QueryRowContext(ctx,
		"SELECT file_id, md5, file_size, filename FROM metadata_records WHERE collection = ? AND id = ?",
		collection, key,
	).Scan(&fileID, &rec.MD5, &rec.FileSize, &rec.Filename)
	if err == sql.ErrNoRows {
		return rec, fmt.Errorf("metadata %q in %s: %w", key, collection, blobstore.ErrNotFound)
	}
	if err != nil {
		return rec, err
	}
	id, err := models.ParseObjectID(fileID)
	if err != nil {
		return rec, fmt.Errorf("metadata %q: %w", key, err)
	}
	rec.FileID = id
	return rec, nil
}

// CountMetadata returns the number of records in collection.
func (s *Store) CountMetadata(ctx context.Context, collection string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM metadata_records WHERE collection = ?", collection).Scan(&n)
	return n, err
}

// CountObjects returns the number of stored objects in bucket.
func (s *Store) CountObjects(ctx context.Context, bucket string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM bucket_files WHERE bucket = ?", bucket).Scan(&n)
	return n, err
}
