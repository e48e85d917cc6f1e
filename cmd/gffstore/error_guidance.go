package main

import (
	"context"
	"errors"

	"gffstore/internal/service"
)

const exitUsage = 1

func formatCLIError(err error) []string {
	if err == nil {
		return nil
	}

	lines := []string{err.Error()}

	var opErr *service.Error
	if errors.As(err, &opErr) {
		switch opErr.Kind {
		case service.KindConnection:
			lines = append(lines,
				"hint: ensure MongoDB is running at MONGO_URI (or pass --uri).",
				"hint: you can increase --connect-timeout for slower environments.",
			)
		case service.KindNotFound:
			if opErr.Op == "ingest" {
				lines = append(lines, "hint: check the file path and its read permissions.")
			} else {
				lines = append(lines, "hint: keys are the upper-cased file name up to the first '.', e.g. GENES for genes.gff3.")
			}
		case service.KindInvalidIdentifier:
			lines = append(lines, "hint: object ids are 24 hexadecimal characters, as printed by upload.")
		case service.KindDuplicateKey:
			lines = append(lines, "hint: a file with the same name stem was already uploaded; inspect it with: gffstore show <file>")
		case service.KindBackend:
			lines = append(lines, "hint: rerun with --log-level debug to see the backend error.")
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		lines = append(lines, "hint: operation timed out; increase --timeout or GFFSTORE_OPERATION_TIMEOUT.")
	}

	return uniqueLines(lines)
}

// exitCode maps err to the process exit status: typed operation errors use
// their kind's code, anything else is a usage or generic failure.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if kind, ok := service.KindOf(err); ok {
		return kind.ExitCode()
	}
	return exitUsage
}

func uniqueLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
