package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gffstore/internal/config"
)

func newConfigCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or change gffstore settings",
	}

	cmd.AddCommand(
		newConfigGetCmd(cfg),
		newConfigListCmd(cfg),
		newConfigSetCmd(),
	)
	return cmd
}

func newConfigGetCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print the resolved value of one setting",
		Args:  requireExactlyArgs(1, "exactly one config key is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := resolvedValue(cfg, args[0])
			if err != nil {
				return err
			}
			return writePlain(cmd.OutOrStdout(), "%s\n", value)
		},
	}
}

// newConfigListCmd prints every setting after flags, environment, .env and
// config files have been applied.
func newConfigListCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print all resolved settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, key := range config.AllowedKeys() {
				value, err := cfg.Get(key)
				if err != nil {
					return err
				}
				if err := writePlain(out, "%s = %s\n", key, value); err != nil {
					return err
				}
			}
			if cfg.TrustedProjectConfigPath != "" {
				if err := writePlain(out, "# project config: %s\n", cfg.TrustedProjectConfigPath); err != nil {
					return err
				}
			}
			if cfg.EnvFilePath != "" {
				return writePlain(out, "# env file: %s\n", cfg.EnvFilePath)
			}
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	var project bool

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Persist a setting to the config file",
		Long: "Persist a setting. Writes ~/.gffstore.toml (or $GFFSTORE_CONFIG_DIR/.gffstore.toml) " +
			"unless --project is given. Environment variables and flags still take precedence.",
		Args: requireExactlyArgs(2, "a config key and a value are required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], strings.TrimSpace(args[1])
			if !config.IsAllowedKey(key) {
				return unknownKeyError(key)
			}

			target, err := config.ResolveWriteTarget(project)
			if err != nil {
				return err
			}
			if err := config.SetKey(target.Path, key, value); err != nil {
				return err
			}

			if err := writePlain(cmd.OutOrStdout(), "%s = %s written to %s\n", key, value, target.Path); err != nil {
				return err
			}
			if !target.Loaded {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s is ignored unless %s=true\n", target.Path, config.TrustProjectConfigEnvKey)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&project, "project", false, "write ./.gffstore.toml instead of the global config")
	return cmd
}

func resolvedValue(cfg *config.Config, key string) (string, error) {
	if !config.IsAllowedKey(key) {
		return "", unknownKeyError(key)
	}
	return cfg.Get(key)
}

func unknownKeyError(key string) error {
	return fmt.Errorf("unknown config key %q (allowed: %s)", key, strings.Join(config.AllowedKeys(), ", "))
}
