package service

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gffstore/internal/blobstore"
	"gffstore/internal/models"
)

// mongoTestURIEnvKey names a MongoDB server for the GridFS tests; they are
// skipped when it is unset.
const mongoTestURIEnvKey = "GFFSTORE_TEST_MONGO_URI"

// testGridFS dials a fresh database that is dropped when the test ends. The
// second return value is a direct handle on it for assertions.
func testGridFS(t *testing.T) (*blobstore.GridFS, *mongo.Database) {
	t.Helper()
	uri := strings.TrimSpace(os.Getenv(mongoTestURIEnvKey))
	if uri == "" {
		t.Skipf("%s not set", mongoTestURIEnvKey)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	dbName := "gffstore_test_" + models.NewObjectID().Hex()

	backend, err := blobstore.DialGridFS(ctx, blobstore.GridFSOptions{
		URI:            uri,
		Database:       dbName,
		ConnectTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("dial gridfs: %v", err)
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	db := client.Database(dbName)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
		_ = backend.Close(ctx)
	})
	return backend, db
}

func TestGridFSIngestRoundTrip(t *testing.T) {
	backend, db := testGridFS(t)
	ctx := context.Background()
	content := "abcdefghij"
	path := writeFile(t, "genes.gff3", content)

	var out bytes.Buffer
	svc := NewIngestService(backend, &out)
	result, err := svc.Ingest(ctx, ingestRequest(path))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if lines := strings.Split(strings.TrimSpace(out.String()), "\n"); len(lines) != 2 {
		t.Fatalf("expected two confirmation lines, got %q", out.String())
	}

	rc, err := backend.OpenObject(ctx, testBucket, result.ObjectID)
	if err != nil {
		t.Fatalf("open object: %v", err)
	}
	stored, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		t.Fatalf("read object: %v", err)
	}
	if string(stored) != content {
		t.Fatalf("expected stored bytes %q, got %q", content, stored)
	}

	digest := md5.Sum([]byte(content))
	if result.Record.MD5 != hex.EncodeToString(digest[:]) || result.Record.MD5 != genesMD5 {
		t.Fatalf("unexpected md5 %q", result.Record.MD5)
	}

	var filesDoc bson.M
	if err := db.Collection(blobstore.FilesCollection(testBucket)).FindOne(ctx, bson.M{"_id": result.ObjectID}).Decode(&filesDoc); err != nil {
		t.Fatalf("find files document: %v", err)
	}
	if filesDoc["contentType"] != models.DefaultContentType || filesDoc["filename"] != "genes.gff3" {
		t.Fatalf("unexpected files document %v", filesDoc)
	}

	var rec models.MetadataRecord
	if err := db.Collection(testCollection).FindOne(ctx, bson.M{"_id": "GENES"}).Decode(&rec); err != nil {
		t.Fatalf("find metadata: %v", err)
	}
	if rec != result.Record || rec.FileSize != 10 {
		t.Fatalf("expected %#v, got %#v", result.Record, rec)
	}

	_, err = svc.Ingest(ctx, ingestRequest(path))
	requireKind(t, err, KindDuplicateKey)
	if !errors.Is(err, blobstore.ErrDuplicateKey) {
		t.Fatalf("expected duplicate key sentinel, got %v", err)
	}

	res, err := NewMetadataService(backend).Verify(ctx, testBucket, testCollection, "genes.gff3")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !res.Match {
		t.Fatalf("expected stored object to match metadata, got %#v", res)
	}
}

func TestGridFSSizeEstimate(t *testing.T) {
	backend, _ := testGridFS(t)
	ctx := context.Background()
	ingest := NewIngestService(backend, io.Discard)

	// 600 KiB spans three default-size chunks.
	large, err := ingest.Ingest(ctx, ingestRequest(writeFile(t, "large.gff3", strings.Repeat("x", 600*1024))))
	if err != nil {
		t.Fatalf("ingest large: %v", err)
	}
	if _, err := ingest.Ingest(ctx, ingestRequest(writeFile(t, "small.gff3", "abcdefghij"))); err != nil {
		t.Fatalf("ingest small: %v", err)
	}

	size := NewSizeService(backend)
	est, err := size.Estimate(ctx, testBucket, large.ObjectID.Hex())
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if est.ChunkCount != 3 {
		t.Fatalf("expected 3 chunks, got %d", est.ChunkCount)
	}

	stats, err := backend.ChunkStats(ctx, testBucket)
	if err != nil {
		t.Fatalf("chunk stats: %v", err)
	}
	if stats.Count != 4 {
		t.Fatalf("expected 4 chunks in the bucket, got %d", stats.Count)
	}
	if stats.AvgObjSize <= 0 || est.AvgChunk != stats.AvgObjSize {
		t.Fatalf("expected bucket-wide average %v, got %v", stats.AvgObjSize, est.AvgChunk)
	}
	if want := models.EstimateMiB(stats.AvgObjSize, 3); est.MiB != want {
		t.Fatalf("expected %v MiB, got %v", want, est.MiB)
	}

	unknown, err := size.Estimate(ctx, testBucket, models.NewObjectID().Hex())
	if err != nil {
		t.Fatalf("estimate unknown id: %v", err)
	}
	if unknown.ChunkCount != 0 || unknown.MiB != 0 {
		t.Fatalf("expected zero estimate, got %#v", unknown)
	}

	_, err = size.Estimate(ctx, testBucket, "not-hex")
	requireKind(t, err, KindInvalidIdentifier)
}
