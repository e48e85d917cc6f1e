package store

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gffstore/internal/blobstore"
	"gffstore/internal/models"
)

// PutObject splits the body into chunk rows and records the file row in one
// transaction.
func (s *Store) PutObject(ctx context.Context, bucket string, in blobstore.PutObjectInput) (models.ObjectID, error) {
	var zero models.ObjectID
	if in.Body == nil {
		return zero, fmt.Errorf("object body is required")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return zero, fmt.Errorf("bucket name is required")
	}
	contentType := in.ContentType
	if contentType == "" {
		contentType = models.DefaultContentType
	}

	id := models.NewObjectID()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return zero, err
	}
	defer func() { _ = tx.Rollback() }()

	// The file row goes first so chunk rows satisfy the foreign key.
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO bucket_files (id, bucket, filename, content_type, length, chunk_size, upload_date) VALUES (?, ?, ?, ?, 0, ?, ?)",
		id.Hex(), bucket, in.Filename, contentType, s.chunkSize, time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return zero, fmt.Errorf("insert file row: %w", err)
	}

	buf := make([]byte, s.chunkSize)
	var length int64
	for n := 0; ; n++ {
		read, readErr := io.ReadFull(in.Body, buf)
		if read > 0 {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO bucket_chunks (bucket, files_id, n, data) VALUES (?, ?, ?, ?)",
				bucket, id.Hex(), n, bytes.Clone(buf[:read]),
			); err != nil {
				return zero, fmt.Errorf("insert chunk %d: %w", n, err)
			}
			length += int64(read)
		}
		if errors.Is(readErr, io.EOF) || errors.Is(readErr, io.ErrUnexpectedEOF) {
			break
		}
		if readErr != nil {
			return zero, fmt.Errorf("read object body: %w", readErr)
		}
	}

	if _, err := tx.ExecContext(ctx, "UPDATE bucket_files SET length = ? WHERE id = ?", length, id.Hex()); err != nil {
		return zero, fmt.Errorf("update file length: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return zero, err
	}
	return id, nil
}

// OpenObject returns the object's bytes reassembled in chunk order.
func (s *Store) OpenObject(ctx context.Context, bucket string, id models.ObjectID) (io.ReadCloser, error) {
	if _, err := s.getObject(ctx, bucket, id); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT data FROM bucket_chunks WHERE bucket = ? AND files_id = ? ORDER BY n", bucket, id.Hex())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out bytes.Buffer
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		out.Write(data)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return io.NopCloser(&out), nil
}

// StatObject returns the file row of id.
func (s *Store) StatObject(ctx context.Context, bucket string, id models.ObjectID) (models.StoredObject, error) {
	return s.getObject(ctx, bucket, id)
}

// DeleteObject removes the file row and its chunks.
func (s *Store) DeleteObject(ctx context.Context, bucket string, id models.ObjectID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM bucket_chunks WHERE bucket = ? AND files_id = ?", bucket, id.Hex()); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM bucket_files WHERE bucket = ? AND id = ?", bucket, id.Hex())
	if err != nil {
		return fmt.Errorf("delete file row: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("object %s in %s: %w", id.Hex(), bucket, blobstore.ErrNotFound)
	}
	return tx.Commit()
}

// CountChunks counts chunk rows of id.
func (s *Store) CountChunks(ctx context.Context, bucket string, id models.ObjectID) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM bucket_chunks WHERE bucket = ? AND files_id = ?", bucket, id.Hex()).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// ChunkStats reports chunk statistics across the whole bucket.
func (s *Store) ChunkStats(ctx context.Context, bucket string) (models.ChunkStats, error) {
	stats := models.ChunkStats{Collection: blobstore.ChunksCollection(bucket)}
	var avg sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(LENGTH(data)), 0), AVG(LENGTH(data)) FROM bucket_chunks WHERE bucket = ?",
		bucket,
	).Scan(&stats.Count, &stats.Size, &avg)
	if err != nil {
		return stats, err
	}
	if avg.Valid {
		stats.AvgObjSize = avg.Float64
	}
	return stats, nil
}

func (s *Store) getObject(ctx context.Context, bucket string, id models.ObjectID) (models.StoredObject, error) {
	obj := models.StoredObject{ID: id}
	err := s.db.QueryRowContext(ctx,
		"SELECT filename, content_type, length, chunk_size FROM bucket_files WHERE bucket = ? AND id = ?",
		bucket, id.Hex(),
	).Scan(&obj.Filename, &obj.ContentType, &obj.Length, &obj.ChunkSize)
	if err == sql.ErrNoRows {
		return obj, fmt.Errorf("object %s in %s: %w", id.Hex(), bucket, blobstore.ErrNotFound)
	}
	if err != nil {
		return obj, err
	}
	return obj, nil
}
