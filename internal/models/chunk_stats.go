package models

const bytesPerMiB = 1024 * 1024

// ChunkStats is a snapshot of a bucket's chunk collection statistics.
type ChunkStats struct {
	Collection string  `json:"collection" yaml:"collection"`
	AvgObjSize float64 `json:"avg_obj_size" yaml:"avg_obj_size"`
	Count      int64   `json:"count" yaml:"count"`
	Size       int64   `json:"size" yaml:"size"`
}

// SizeEstimate is the derived storage estimate for one object.
type SizeEstimate struct {
	ObjectID   ObjectID `json:"object_id" yaml:"object_id"`
	ChunkCount int64    `json:"chunk_count" yaml:"chunk_count"`
	AvgChunk   float64  `json:"avg_chunk_bytes" yaml:"avg_chunk_bytes"`
	Bytes      float64  `json:"estimated_bytes" yaml:"estimated_bytes"`
	MiB        float64  `json:"estimated_mib" yaml:"estimated_mib"`
}

// EstimateMiB multiplies the collection-wide average chunk size by the
// object's chunk count and converts to mebibytes.
func EstimateMiB(avgChunkBytes float64, chunkCount int64) float64 {
	if chunkCount <= 0 || avgChunkBytes <= 0 {
		return 0
	}
	return avgChunkBytes * float64(chunkCount) / 1024 / 1024
}

// NewSizeEstimate builds an estimate from the per-object chunk count and the
// bucket-wide average chunk size.
func NewSizeEstimate(id ObjectID, chunkCount int64, stats ChunkStats) SizeEstimate {
	mib := EstimateMiB(stats.AvgObjSize, chunkCount)
	return SizeEstimate{
		ObjectID:   id,
		ChunkCount: chunkCount,
		AvgChunk:   stats.AvgObjSize,
		Bytes:      mib * bytesPerMiB,
		MiB:        mib,
	}
}
