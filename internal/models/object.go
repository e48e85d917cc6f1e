package models

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultContentType is the content type recorded for every stored object.
const DefaultContentType = "text/plain"

// ObjectID is the backend-native identifier of a stored object.
type ObjectID = primitive.ObjectID

// StoredObject describes one object in a bucket's files collection.
type StoredObject struct {
	ID          ObjectID `json:"id" yaml:"id"`
	Filename    string   `json:"filename" yaml:"filename"`
	ContentType string   `json:"content_type" yaml:"content_type"`
	Length      int64    `json:"length" yaml:"length"`
	ChunkSize   int32    `json:"chunk_size" yaml:"chunk_size"`
}

// NewObjectID returns a fresh identifier.
func NewObjectID() ObjectID {
	return primitive.NewObjectID()
}

// ParseObjectID parses the 24-character hex form of an object identifier.
func ParseObjectID(raw string) (ObjectID, error) {
	value := strings.TrimSpace(raw)
	id, err := primitive.ObjectIDFromHex(value)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid object id %q: must be 24 hex characters", raw)
	}
	return id, nil
}
