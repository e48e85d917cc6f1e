package service

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gffstore/internal/blobstore"
	"gffstore/internal/models"
)

const orphanCleanupTimeout = 10 * time.Second

// IngestService uploads local files and records their metadata.
type IngestService struct {
	backend blobstore.Backend
	out     io.Writer
	logger  *slog.Logger

	cleanupOnMetadataFailure bool
}

// IngestRequest names the file and the destinations of one upload.
type IngestRequest struct {
	Path               string
	Bucket             string
	MetadataCollection string
}

// IngestResult describes what one upload wrote.
type IngestResult struct {
	ObjectID models.ObjectID       `json:"object_id" yaml:"object_id"`
	Bucket   string                `json:"bucket" yaml:"bucket"`
	Record   models.MetadataRecord `json:"metadata" yaml:"metadata"`
}

// NewIngestService constructs an IngestService. Confirmation lines go to out.
func NewIngestService(backend blobstore.Backend, out io.Writer) *IngestService {
	if out == nil {
		out = io.Discard
	}
	return &IngestService{
		backend: backend,
		out:     out,
		logger:  slog.Default().With("component", "ingest"),
	}
}

// SetCleanupOnMetadataFailure makes Ingest delete the stored object when the
// metadata insert fails. Off by default: the orphan is left in place.
func (s *IngestService) SetCleanupOnMetadataFailure(enabled bool) {
	s.cleanupOnMetadataFailure = enabled
}

// Ingest stores the file at req.Path and inserts its metadata record.
func (s *IngestService) Ingest(ctx context.Context, req IngestRequest) (IngestResult, error) {
	const op = "ingest"
	var result IngestResult

	path := strings.TrimSpace(req.Path)
	if path == "" {
		return result, newError(KindNotFound, op, "file path is required", nil)
	}
	filename := filepath.Base(path)

	content, err := os.ReadFile(path)
	if err != nil {
		return result, localFileError(op, path, err)
	}

	id, err := s.backend.PutObject(ctx, req.Bucket, blobstore.PutObjectInput{
		Filename:    filename,
		ContentType: models.DefaultContentType,
		Body:        bytes.NewReader(content),
	})
	if err != nil {
		return result, backendError(op, fmt.Sprintf("store %q in bucket %q", filename, req.Bucket), err)
	}
	result.ObjectID = id
	result.Bucket = req.Bucket
	s.logger.Debug("object stored", "filename", filename, "bucket", req.Bucket, "object_id", id.Hex(), "bytes", len(content))
	fmt.Fprintf(s.out, "File '%s' uploaded to bucket '%s' with ID: %s\n", filename, req.Bucket, id.Hex())

	// The checksum comes from a second read of the file, not from content.
	sum, size, err := FileChecksum(path)
	if err != nil {
		s.handleOrphan(ctx, req.Bucket, id)
		return result, localFileError(op, path, err)
	}

	rec := models.MetadataRecord{
		Key:      models.DeriveKey(filename),
		FileID:   id,
		MD5:      sum,
		FileSize: size,
		Filename: filename,
	}
	result.Record = rec

	if err := s.backend.InsertMetadata(ctx, req.MetadataCollection, rec); err != nil {
		opErr := backendError(op, fmt.Sprintf("metadata %q in collection %q", rec.Key, req.MetadataCollection), err)
		if opErr.Kind == KindDuplicateKey {
			opErr.Message = fmt.Sprintf("metadata key %q already exists in collection %q", rec.Key, req.MetadataCollection)
		}
		s.handleOrphan(ctx, req.Bucket, id)
		return result, opErr
	}
	s.logger.Debug("metadata stored", "key", rec.Key, "collection", req.MetadataCollection, "md5", rec.MD5)
	fmt.Fprintf(s.out, "Metadata for '%s' uploaded to '%s' collection.\n", filename, req.MetadataCollection)

	return result, nil
}

// handleOrphan runs after the object was stored but its metadata was not.
// The delete gets its own deadline: ctx may already have expired.
func (s *IngestService) handleOrphan(ctx context.Context, bucket string, id models.ObjectID) {
	if !s.cleanupOnMetadataFailure {
		s.logger.Warn("stored object left without metadata", "bucket", bucket, "object_id", id.Hex())
		return
	}
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), orphanCleanupTimeout)
	defer cancel()
	if err := s.backend.DeleteObject(cleanupCtx, bucket, id); err != nil {
		s.logger.Warn("orphan cleanup failed", "bucket", bucket, "object_id", id.Hex(), "err", err)
		return
	}
	s.logger.Info("orphaned object removed", "bucket", bucket, "object_id", id.Hex())
}

// FileChecksum streams the file at path and returns its hex MD5 and length.
func FileChecksum(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()
	return ReaderChecksum(f)
}

// ReaderChecksum consumes r and returns its hex MD5 and length.
func ReaderChecksum(r io.Reader) (string, int64, error) {
	h := md5.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

func localFileError(op, path string, err error) *Error {
	if errors.Is(err, fs.ErrNotExist) {
		return newError(KindNotFound, op, fmt.Sprintf("file not found at '%s'", path), err)
	}
	return newError(KindNotFound, op, fmt.Sprintf("cannot read '%s'", path), err)
}
