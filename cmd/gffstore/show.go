package main

import (
	"context"

	"github.com/spf13/cobra"

	"gffstore/internal/blobstore"
	"gffstore/internal/config"
	"gffstore/internal/service"
)

func newShowCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <key-or-file>",
		Short: "Show the metadata record of an uploaded file",
		Args:  requireKeyOrFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			return withBackend(cmd.Context(), cfg, "show metadata", func(ctx context.Context, backend blobstore.Backend) error {
				rec, err := service.NewMetadataService(backend).Get(ctx, cfg.MetadataCollection, args[0])
				if err != nil {
					return err
				}
				if opts.structured() {
					return opts.writeStructured(out, rec)
				}
				return writeMetadataDetail(out, rec)
			})
		},
	}

	addConnectionFlags(cmd, cfg)
	addMetadataCollectionFlag(cmd, cfg)
	return cmd
}
