package service

import (
	"context"
	"fmt"
	"log/slog"

	"gffstore/internal/blobstore"
	"gffstore/internal/models"
)

// EstimateNote explains the approximation behind every size estimate.
const EstimateNote = "estimate uses the average chunk size of the whole bucket, not of this file"

// SizeService estimates stored object sizes from chunk statistics.
type SizeService struct {
	store  blobstore.ObjectStore
	logger *slog.Logger
}

// NewSizeService constructs a SizeService.
func NewSizeService(store blobstore.ObjectStore) *SizeService {
	return &SizeService{store: store, logger: slog.Default().With("component", "size")}
}

// Estimate returns the chunk count of rawID times the bucket-wide average
// chunk size, in MiB. rawID is validated before the backend is queried.
func (s *SizeService) Estimate(ctx context.Context, bucket, rawID string) (models.SizeEstimate, error) {
	const op = "estimate size"

	id, err := models.ParseObjectID(rawID)
	if err != nil {
		return models.SizeEstimate{}, newError(KindInvalidIdentifier, op, fmt.Sprintf("%q is not a valid object id", rawID), err)
	}

	count, err := s.store.CountChunks(ctx, bucket, id)
	if err != nil {
		return models.SizeEstimate{}, backendError(op, fmt.Sprintf("count chunks of %s", id.Hex()), err)
	}

	stats, err := s.store.ChunkStats(ctx, bucket)
	if err != nil {
		return models.SizeEstimate{}, backendError(op, fmt.Sprintf("chunk statistics of %s", blobstore.ChunksCollection(bucket)), err)
	}

	est := models.NewSizeEstimate(id, count, stats)
	s.logger.Debug("size estimated",
		"object_id", id.Hex(),
		"chunks", count,
		"avg_chunk_bytes", stats.AvgObjSize,
		"bucket_chunks", stats.Count,
		"mib", est.MiB,
	)
	return est, nil
}
