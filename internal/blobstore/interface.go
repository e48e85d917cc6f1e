package blobstore

import (
	"context"
	"errors"
	"io"

	"gffstore/internal/models"
)

var (
	// ErrUnavailable reports that the backend could not be reached.
	ErrUnavailable = errors.New("backend unavailable")
	// ErrDuplicateKey reports a metadata key collision.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrNotFound reports a missing object or metadata record.
	ErrNotFound = errors.New("not found")
)

// PutObjectInput describes one object written into a bucket.
type PutObjectInput struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// ObjectStore is the bucketed, chunked byte storage of a backend.
type ObjectStore interface {
	PutObject(ctx context.Context, bucket string, in PutObjectInput) (models.ObjectID, error)
	OpenObject(ctx context.Context, bucket string, id models.ObjectID) (io.ReadCloser, error)
	DeleteObject(ctx context.Context, bucket string, id models.ObjectID) error
	CountChunks(ctx context.Context, bucket string, id models.ObjectID) (int64, error)
	ChunkStats(ctx context.Context, bucket string) (models.ChunkStats, error)
}

// MetadataStore holds metadata records in named collections.
type MetadataStore interface {
	InsertMetadata(ctx context.Context, collection string, rec models.MetadataRecord) error
	GetMetadata(ctx context.Context, collection, key string) (models.MetadataRecord, error)
}

// Backend is one open backend connection.
type Backend interface {
	ObjectStore
	MetadataStore
	Close(ctx context.Context) error
}

// ChunksCollection returns the chunk collection name of a bucket.
func ChunksCollection(bucket string) string {
	return bucket + ".chunks"
}

// FilesCollection returns the file collection name of a bucket.
func FilesCollection(bucket string) string {
	return bucket + ".files"
}
