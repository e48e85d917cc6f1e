package models

import (
	"path/filepath"
	"strings"
)

// MetadataRecord is the application-level description of one ingested file.
type MetadataRecord struct {
	Key      string   `bson:"_id" json:"_id" yaml:"_id"`
	FileID   ObjectID `bson:"file_id" json:"file_id" yaml:"file_id"`
	MD5      string   `bson:"md5" json:"md5" yaml:"md5"`
	FileSize int64    `bson:"file_size" json:"file_size" yaml:"file_size"`
	Filename string   `bson:"filename" json:"filename" yaml:"filename"`
}

// DeriveKey returns the metadata key for a source path: the base name up to
// its first '.', upper-cased.
func DeriveKey(path string) string {
	base := filepath.Base(strings.TrimSpace(path))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	stem, _, _ := strings.Cut(base, ".")
	return strings.ToUpper(stem)
}
