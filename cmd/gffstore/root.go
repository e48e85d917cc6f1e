package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gffstore/internal/config"
	"gffstore/internal/format"
)

// cliOptions holds the persistent flags shared by every subcommand.
type cliOptions struct {
	output   string
	logLevel string
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	opts := &cliOptions{output: format.Text}

	cmd := &cobra.Command{
		Use:           "gffstore",
		Short:         "Store GFF3 files in MongoDB GridFS and estimate their stored size",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := format.ForName(opts.output); err != nil {
				return err
			}
			warning, err := configureLoggerForCLI(opts.logLevel, cfg.LogLevel)
			if err != nil {
				return err
			}
			if warning != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), warning)
			}
			return nil
		},
	}

	cmd.Version = version
	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", format.Text, "output format: text, json or yaml")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")
	cmd.PersistentFlags().Var(&cfg.ConnectTimeout, "connect-timeout", "time allowed to reach the backend (e.g. 10s)")
	cmd.PersistentFlags().Var(&cfg.OperationTimeout, "timeout", "deadline for each backend operation, 0 disables")

	cmd.AddCommand(
		newUploadCmd(cfg, opts),
		newSizeCmd(cfg, opts),
		newShowCmd(cfg, opts),
		newVerifyCmd(cfg, opts),
		newConfigCmd(cfg),
	)

	return cmd
}
