package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gffstore/internal/blobstore"
	"gffstore/internal/models"
)

// MetadataService reads metadata records and checks them against the
// stored objects they reference.
type MetadataService struct {
	backend blobstore.Backend
}

// VerifyResult compares a metadata record with the object's actual bytes.
type VerifyResult struct {
	Record     models.MetadataRecord `json:"metadata" yaml:"metadata"`
	ActualMD5  string                `json:"actual_md5" yaml:"actual_md5"`
	ActualSize int64                 `json:"actual_size" yaml:"actual_size"`
	Match      bool                  `json:"match" yaml:"match"`
}

// NewMetadataService constructs a MetadataService.
func NewMetadataService(backend blobstore.Backend) *MetadataService {
	return &MetadataService{backend: backend}
}

// LookupKey accepts either a metadata key or a file name and returns the key.
func LookupKey(keyOrFile string) string {
	return models.DeriveKey(strings.TrimSpace(keyOrFile))
}

// Get loads the record named by keyOrFile.
func (s *MetadataService) Get(ctx context.Context, collection, keyOrFile string) (models.MetadataRecord, error) {
	const op = "show metadata"
	key := LookupKey(keyOrFile)
	if key == "" {
		return models.MetadataRecord{}, newError(KindNotFound, op, fmt.Sprintf("no metadata key in %q", keyOrFile), nil)
	}
	rec, err := s.backend.GetMetadata(ctx, collection, key)
	if err != nil {
		return rec, backendError(op, fmt.Sprintf("metadata %q in collection %q", key, collection), err)
	}
	return rec, nil
}

// Verify re-reads the stored object of a record and compares checksum and size.
func (s *MetadataService) Verify(ctx context.Context, bucket, collection, keyOrFile string) (VerifyResult, error) {
	const op = "verify"
	rec, err := s.Get(ctx, collection, keyOrFile)
	if err != nil {
		var opErr *Error
		if errors.As(err, &opErr) {
			opErr.Op = op
		}
		return VerifyResult{}, err
	}

	rc, err := s.backend.OpenObject(ctx, bucket, rec.FileID)
	if err != nil {
		return VerifyResult{Record: rec}, backendError(op, fmt.Sprintf("object %s in bucket %q", rec.FileID.Hex(), bucket), err)
	}
	defer rc.Close()

	sum, size, err := ReaderChecksum(rc)
	if err != nil {
		return VerifyResult{Record: rec}, backendError(op, fmt.Sprintf("read object %s", rec.FileID.Hex()), err)
	}

	return VerifyResult{
		Record:     rec,
		ActualMD5:  sum,
		ActualSize: size,
		Match:      sum == rec.MD5 && size == rec.FileSize,
	}, nil
}
