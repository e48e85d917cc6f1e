package main

import (
	"context"

	"github.com/spf13/cobra"

	"gffstore/internal/blobstore"
	"gffstore/internal/config"
	"gffstore/internal/format"
	"gffstore/internal/models"
	"gffstore/internal/service"
)

type sizeOutput struct {
	models.SizeEstimate `yaml:",inline"`
	Note                string `json:"note" yaml:"note"`
}

func newSizeCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "size <object-id>",
		Short: "Estimate the stored size of an uploaded file",
		Args:  requireObjectID,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			return withBackend(cmd.Context(), cfg, "estimate size", func(ctx context.Context, backend blobstore.Backend) error {
				est, err := service.NewSizeService(backend).Estimate(ctx, cfg.Bucket, args[0])
				if err != nil {
					return err
				}
				if opts.structured() {
					return opts.writeStructured(out, sizeOutput{SizeEstimate: est, Note: service.EstimateNote})
				}
				if err := writePlain(out, "Estimated storage for file ID '%s': %v Mb\n", est.ObjectID.Hex(), est.MiB); err != nil {
					return err
				}
				return writePlain(out, "note: %d chunks, about %s; %s\n", est.ChunkCount, format.HumanBytes(est.Bytes), service.EstimateNote)
			})
		},
	}

	addConnectionFlags(cmd, cfg)
	addBucketFlag(cmd, cfg)
	return cmd
}
