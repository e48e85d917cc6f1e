package main

import (
	"github.com/spf13/cobra"

	"gffstore/internal/config"
)

func addConnectionFlags(cmd *cobra.Command, cfg *config.Config) {
	cmd.Flags().StringVar(&cfg.URI, "uri", cfg.URI, "MongoDB connection URI, or sqlite://<path> for a local store (env "+config.URIEnvKey+")")
	cmd.Flags().StringVar(&cfg.Database, "db", cfg.Database, "database name (env "+config.DatabaseEnvKey+")")
}

func addBucketFlag(cmd *cobra.Command, cfg *config.Config) {
	cmd.Flags().StringVar(&cfg.Bucket, "bucket", cfg.Bucket, "GridFS bucket name (env "+config.BucketEnvKey+")")
}

func addMetadataCollectionFlag(cmd *cobra.Command, cfg *config.Config) {
	cmd.Flags().StringVar(&cfg.MetadataCollection, "metadata-coll", cfg.MetadataCollection, "metadata collection name (env "+config.MetadataCollectionEnvKey+")")
}
