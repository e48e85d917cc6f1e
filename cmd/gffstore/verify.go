package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"gffstore/internal/blobstore"
	"gffstore/internal/config"
	"gffstore/internal/service"
)

func newVerifyCmd(cfg *config.Config, opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <key-or-file>",
		Short: "Check a stored file against its recorded md5 and size",
		Args:  requireKeyOrFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			return withBackend(cmd.Context(), cfg, "verify", func(ctx context.Context, backend blobstore.Backend) error {
				res, err := service.NewMetadataService(backend).Verify(ctx, cfg.Bucket, cfg.MetadataCollection, args[0])
				if err != nil {
					return err
				}

				if opts.structured() {
					if err := opts.writeStructured(out, res); err != nil {
						return err
					}
				} else if res.Match {
					if err := writePlain(out, "%s: ok (md5 %s, %d bytes)\n", res.Record.Key, res.ActualMD5, res.ActualSize); err != nil {
						return err
					}
				}

				if !res.Match {
					return fmt.Errorf("%s: stored object %s does not match its metadata (md5 %s, %d bytes; recorded md5 %s, %d bytes)",
						res.Record.Key, res.Record.FileID.Hex(), res.ActualMD5, res.ActualSize, res.Record.MD5, res.Record.FileSize)
				}
				return nil
			})
		},
	}

	addConnectionFlags(cmd, cfg)
	addBucketFlag(cmd, cfg)
	addMetadataCollectionFlag(cmd, cfg)
	return cmd
}
