package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"gffstore/internal/blobstore"
	"gffstore/internal/config"
	"gffstore/internal/service"
)

func newUploadCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a file to GridFS and record its md5 and size",
		Args:  requireFilePath,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			return withBackend(cmd.Context(), cfg, "ingest", func(ctx context.Context, backend blobstore.Backend) error {
				progress := out
				if opts.structured() {
					progress = io.Discard
				}
				svc := service.NewIngestService(backend, progress)
				svc.SetCleanupOnMetadataFailure(cfg.CleanupOnMetadataFailure)

				result, err := svc.Ingest(ctx, service.IngestRequest{
					Path:               args[0],
					Bucket:             cfg.Bucket,
					MetadataCollection: cfg.MetadataCollection,
				})
				if err != nil {
					return err
				}
				if opts.structured() {
					return opts.writeStructured(out, result)
				}
				return nil
			})
		},
	}

	addConnectionFlags(cmd, cfg)
	addBucketFlag(cmd, cfg)
	addMetadataCollectionFlag(cmd, cfg)
	cmd.Flags().BoolVar(&cfg.CleanupOnMetadataFailure, "cleanup-on-failure", cfg.CleanupOnMetadataFailure, "delete the uploaded object if the metadata insert fails")
	return cmd
}
