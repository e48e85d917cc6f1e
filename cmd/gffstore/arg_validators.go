package main

import (
	"errors"

	"github.com/spf13/cobra"
)

func requireExactlyArgs(count int, message string) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) != count {
			return errors.New(message)
		}
		return nil
	}
}

func requireFilePath(cmd *cobra.Command, args []string) error {
	return requireExactlyArgs(1, "exactly one file path is required")(cmd, args)
}

func requireObjectID(cmd *cobra.Command, args []string) error {
	return requireExactlyArgs(1, "exactly one object id is required")(cmd, args)
}

func requireKeyOrFile(cmd *cobra.Command, args []string) error {
	return requireExactlyArgs(1, "exactly one metadata key or file name is required")(cmd, args)
}
