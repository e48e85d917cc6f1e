package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"

	"gffstore/internal/models"
)

// GridFSOptions configures a MongoDB connection.
type GridFSOptions struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// GridFS stores objects in MongoDB GridFS buckets and metadata in plain
// collections of the same database.
type GridFS struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ Backend = (*GridFS)(nil)

// DialGridFS connects to MongoDB and verifies the server is reachable.
func DialGridFS(ctx context.Context, opts GridFSOptions) (*GridFS, error) {
	uri := strings.TrimSpace(opts.URI)
	if uri == "" {
		return nil, fmt.Errorf("mongodb uri is required")
	}
	if strings.TrimSpace(opts.Database) == "" {
		return nil, fmt.Errorf("database name is required")
	}

	clientOpts := options.Client().ApplyURI(uri)
	if opts.ConnectTimeout > 0 {
		clientOpts.SetConnectTimeout(opts.ConnectTimeout)
		clientOpts.SetServerSelectionTimeout(opts.ConnectTimeout)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", redactURI(uri), errors.Join(ErrUnavailable, err))
	}

	pingCtx := ctx
	if opts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, opts.ConnectTimeout)
		defer cancel()
	}
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping %s: %w", redactURI(uri), errors.Join(ErrUnavailable, err))
	}

	return &GridFS{client: client, db: client.Database(opts.Database)}, nil
}

// Close disconnects the client.
func (g *GridFS) Close(ctx context.Context) error {
	if g == nil || g.client == nil {
		return nil
	}
	return g.client.Disconnect(ctx)
}

// PutObject uploads bytes into the named GridFS bucket.
func (g *GridFS) PutObject(ctx context.Context, bucket string, in PutObjectInput) (models.ObjectID, error) {
	var zero models.ObjectID
	if in.Body == nil {
		return zero, fmt.Errorf("object body is required")
	}
	b, err := g.bucket(ctx, bucket)
	if err != nil {
		return zero, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := b.SetWriteDeadline(deadline); err != nil {
			return zero, err
		}
	}

	contentType := in.ContentType
	if contentType == "" {
		contentType = models.DefaultContentType
	}
	id, err := b.UploadFromStream(in.Filename, in.Body)
	if err != nil {
		return zero, fmt.Errorf("upload %q to %s: %w", in.Filename, bucket, classifyMongoErr(err))
	}

	// The driver has no upload option for the top-level contentType field of
	// the files document, so it is set once the upload is complete.
	files := g.db.Collection(FilesCollection(bucket))
	update := bson.M{"$set": bson.M{"contentType": contentType}}
	if _, err := files.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		_ = b.Delete(id)
		return zero, fmt.Errorf("set content type of %s: %w", id.Hex(), classifyMongoErr(err))
	}
	return id, nil
}

// OpenObject opens a download stream for id.
func (g *GridFS) OpenObject(ctx context.Context, bucket string, id models.ObjectID) (io.ReadCloser, error) {
	b, err := g.bucket(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := b.SetReadDeadline(deadline); err != nil {
			return nil, err
		}
	}
	stream, err := b.OpenDownloadStream(id)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, fmt.Errorf("object %s in %s: %w", id.Hex(), bucket, ErrNotFound)
		}
		return nil, fmt.Errorf("open object %s: %w", id.Hex(), classifyMongoErr(err))
	}
	return stream, nil
}

// DeleteObject removes the file document and all chunks of id.
func (g *GridFS) DeleteObject(ctx context.Context, bucket string, id models.ObjectID) error {
	b, err := g.bucket(ctx, bucket)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := b.SetWriteDeadline(deadline); err != nil {
			return err
		}
	}
	if err := b.Delete(id); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return fmt.Errorf("object %s in %s: %w", id.Hex(), bucket, ErrNotFound)
		}
		return fmt.Errorf("delete object %s: %w", id.Hex(), classifyMongoErr(err))
	}
	return nil
}

// CountChunks counts chunk documents that belong to id.
func (g *GridFS) CountChunks(ctx context.Context, bucket string, id models.ObjectID) (int64, error) {
	name := ChunksCollection(bucket)
	n, err := g.db.Collection(name).CountDocuments(ctx, bson.M{"files_id": id})
	if err != nil {
		return 0, fmt.Errorf("count chunks in %s: %w", name, classifyMongoErr(err))
	}
	return n, nil
}

type collStatsResult struct {
	AvgObjSize float64 `bson:"avgObjSize"`
	Count      int64   `bson:"count"`
	Size       int64   `bson:"size"`
}

// ChunkStats runs collStats on the bucket's chunk collection.
func (g *GridFS) ChunkStats(ctx context.Context, bucket string) (models.ChunkStats, error) {
	name := ChunksCollection(bucket)
	var res collStatsResult
	err := g.db.RunCommand(ctx, bson.D{{Key: "collStats", Value: name}}).Decode(&res)
	if err != nil {
		return models.ChunkStats{}, fmt.Errorf("collStats %s: %w", name, classifyMongoErr(err))
	}
	return models.ChunkStats{
		Collection: name,
		AvgObjSize: res.AvgObjSize,
		Count:      res.Count,
		Size:       res.Size,
	}, nil
}

// InsertMetadata inserts rec; an existing _id yields ErrDuplicateKey.
func (g *GridFS) InsertMetadata(ctx context.Context, collection string, rec models.MetadataRecord) error {
	if _, err := g.db.Collection(collection).InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("insert metadata %q into %s: %w", rec.Key, collection, classifyMongoErr(err))
	}
	return nil
}

// GetMetadata loads one record by key.
func (g *GridFS) GetMetadata(ctx context.Context, collection, key string) (models.MetadataRecord, error) {
	var rec models.MetadataRecord
	err := g.db.Collection(collection).FindOne(ctx, bson.M{"_id": key}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return rec, fmt.Errorf("metadata %q in %s: %w", key, collection, ErrNotFound)
		}
		return rec, fmt.Errorf("get metadata %q: %w", key, classifyMongoErr(err))
	}
	return rec, nil
}

func (g *GridFS) bucket(ctx context.Context, name string) (*gridfs.Bucket, error) {
	if g == nil || g.db == nil {
		return nil, fmt.Errorf("mongodb backend is not connected")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	return gridfs.NewBucket(g.db, options.GridFSBucket().SetName(name))
}

// classifyMongoErr joins driver errors with the matching sentinel so callers
// can test them with errors.Is while the driver cause stays visible.
func classifyMongoErr(err error) error {
	switch {
	case err == nil:
		return nil
	case mongo.IsDuplicateKeyError(err):
		return errors.Join(ErrDuplicateKey, err)
	case mongo.IsNetworkError(err),
		mongo.IsTimeout(err),
		errors.Is(err, topology.ErrServerSelectionTimeout),
		errors.Is(err, mongo.ErrClientDisconnected):
		return errors.Join(ErrUnavailable, err)
	default:
		return err
	}
}

func redactURI(uri string) string {
	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok {
		return uri
	}
	at := strings.LastIndex(rest, "@")
	if at < 0 {
		return uri
	}
	return scheme + "://***@" + rest[at+1:]
}
