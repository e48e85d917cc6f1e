package main

import (
	"fmt"
	"io"
	"os"

	"gffstore/internal/config"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUsage)
	}

	if cfg.TrustedProjectConfigPath != "" {
		fmt.Fprintf(os.Stderr, "warning: using trusted project config from %s\n", cfg.TrustedProjectConfigPath)
	}

	os.Exit(run(cfg, os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command line. Results go to stdout; error and hint lines
// go to stderr so stdout stays parseable in json and yaml modes.
func run(cfg *config.Config, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(cfg)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return 0
	}
	logFailure(err)
	for _, line := range formatCLIError(err) {
		fmt.Fprintln(stderr, line)
	}
	return exitCode(err)
}
