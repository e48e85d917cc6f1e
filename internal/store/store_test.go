package store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"gffstore/internal/blobstore"
	"gffstore/internal/models"
)

// testStore creates a temporary store for testing.
func testStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { st.Close(context.Background()) })
	return st
}

func TestPutOpenObjectRoundTrip(t *testing.T) {
	st := testStore(t)
	st.SetChunkSize(4)
	ctx := context.Background()

	payload := []byte("abcdefghij")
	id, err := st.PutObject(ctx, "gff3", blobstore.PutObjectInput{Filename: "genes.gff3", Body: bytes.NewReader(payload)})
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	rc, err := st.OpenObject(ctx, "gff3", id)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("expected %q, got %q", payload, got)
	}

	obj, err := st.StatObject(ctx, "gff3", id)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if obj.Length != 10 || obj.Filename != "genes.gff3" || obj.ContentType != models.DefaultContentType || obj.ChunkSize != 4 {
		t.Fatalf("unexpected object row: %#v", obj)
	}

	count, err := st.CountChunks(ctx, "gff3", id)
	if err != nil {
		t.Fatalf("count chunks: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 chunks, got %d", count)
	}
}

func TestPutEmptyObject(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	id, err := st.PutObject(ctx, "gff3", blobstore.PutObjectInput{Filename: "empty.gff3", Body: bytes.NewReader(nil)})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	count, err := st.CountChunks(ctx, "gff3", id)
	if err != nil {
		t.Fatalf("count chunks: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no chunks, got %d", count)
	}
}

func TestChunkStatsIsBucketWide(t *testing.T) {
	st := testStore(t)
	st.SetChunkSize(4)
	ctx := context.Background()

	stats, err := st.ChunkStats(ctx, "gff3")
	if err != nil {
		t.Fatalf("stats on empty bucket: %v", err)
	}
	if stats.Count != 0 || stats.AvgObjSize != 0 {
		t.Fatalf("expected empty stats, got %#v", stats)
	}

	// 8 bytes -> two 4-byte chunks; 2 bytes -> one 2-byte chunk.
	if _, err := st.PutObject(ctx, "gff3", blobstore.PutObjectInput{Filename: "a", Body: bytes.NewReader([]byte("12345678"))}); err != nil {
		t.Fatalf("put a: %v", err)
	}
	if _, err := st.PutObject(ctx, "gff3", blobstore.PutObjectInput{Filename: "b", Body: bytes.NewReader([]byte("xy"))}); err != nil {
		t.Fatalf("put b: %v", err)
	}
	if _, err := st.PutObject(ctx, "other", blobstore.PutObjectInput{Filename: "c", Body: bytes.NewReader([]byte("zzzzzzzz"))}); err != nil {
		t.Fatalf("put c: %v", err)
	}

	stats, err = st.ChunkStats(ctx, "gff3")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Count != 3 || stats.Size != 10 {
		t.Fatalf("unexpected stats: %#v", stats)
	}
	if stats.AvgObjSize != 10.0/3.0 {
		t.Fatalf("expected avg %v, got %v", 10.0/3.0, stats.AvgObjSize)
	}
	if stats.Collection != "gff3.chunks" {
		t.Fatalf("unexpected collection %q", stats.Collection)
	}
}

func TestDeleteObject(t *testing.T) {
	st := testStore(t)
	st.SetChunkSize(2)
	ctx := context.Background()

	id, err := st.PutObject(ctx, "gff3", blobstore.PutObjectInput{Filename: "x", Body: bytes.NewReader([]byte("abcd"))})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := st.DeleteObject(ctx, "gff3", id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	count, err := st.CountChunks(ctx, "gff3", id)
	if err != nil {
		t.Fatalf("count chunks: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected chunks to be removed, got %d", count)
	}
	if err := st.DeleteObject(ctx, "gff3", id); !errors.Is(err, blobstore.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
	if _, err := st.OpenObject(ctx, "gff3", id); !errors.Is(err, blobstore.ErrNotFound) {
		t.Fatalf("expected not found on open, got %v", err)
	}
}

func TestInsertMetadataDuplicate(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	rec := models.MetadataRecord{
		Key:      "GENES",
		FileID:   models.NewObjectID(),
		MD5:      "a925576942e94b2ef57a066101b48876",
		FileSize: 10,
		Filename: "genes.gff3",
	}
	if err := st.InsertMetadata(ctx, "gff3_metadata", rec); err != nil {
		t.Fatalf("insert: %v", err)
	}

	err := st.InsertMetadata(ctx, "gff3_metadata", rec)
	if !errors.Is(err, blobstore.ErrDuplicateKey) {
		t.Fatalf("expected duplicate key, got %v", err)
	}

	// Same key in another collection is independent.
	if err := st.InsertMetadata(ctx, "other_metadata", rec); err != nil {
		t.Fatalf("insert other collection: %v", err)
	}

	got, err := st.GetMetadata(ctx, "gff3_metadata", "GENES")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != rec {
		t.Fatalf("expected %#v, got %#v", rec, got)
	}

	if _, err := st.GetMetadata(ctx, "gff3_metadata", "MISSING"); !errors.Is(err, blobstore.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPathFromAddress(t *testing.T) {
	path, err := PathFromAddress("sqlite:///var/lib/gff3.db")
	if err != nil || path != "/var/lib/gff3.db" {
		t.Fatalf("expected absolute path, got %q (err: %v)", path, err)
	}
	path, err = PathFromAddress("sqlite://data/gff3.db")
	if err != nil || path != "data/gff3.db" {
		t.Fatalf("expected relative path, got %q (err: %v)", path, err)
	}
	if _, err := PathFromAddress("sqlite://"); err == nil {
		t.Fatal("expected error for empty path")
	}
	if _, err := PathFromAddress("mongodb://localhost:27017"); err == nil {
		t.Fatal("expected error for foreign scheme")
	}
}

func TestOpenAddress(t *testing.T) {
	path := filepath.Join(t.TempDir(), "addr.db")
	st, err := OpenAddress(context.Background(), "sqlite://"+path)
	if err != nil {
		t.Fatalf("open address: %v", err)
	}
	defer st.Close(context.Background())

	n, err := st.CountObjects(context.Background(), "gff3")
	if err != nil || n != 0 {
		t.Fatalf("expected empty bucket, got %d (err: %v)", n, err)
	}
}
