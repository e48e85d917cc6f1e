package service

import (
	"context"
	"errors"
	"fmt"

	"gffstore/internal/blobstore"
)

// Kind is the closed set of failure categories reported by operations.
type Kind int

const (
	KindBackend Kind = iota
	KindConnection
	KindNotFound
	KindInvalidIdentifier
	KindDuplicateKey
)

// Process exit codes, one per Kind. 1 is left for usage and other errors.
const (
	ExitConnection        = 2
	ExitNotFound          = 3
	ExitInvalidIdentifier = 4
	ExitDuplicateKey      = 5
	ExitBackend           = 6
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection error"
	case KindNotFound:
		return "not found"
	case KindInvalidIdentifier:
		return "invalid identifier"
	case KindDuplicateKey:
		return "duplicate key"
	default:
		return "backend error"
	}
}

// ExitCode returns the process exit code for k.
func (k Kind) ExitCode() int {
	switch k {
	case KindConnection:
		return ExitConnection
	case KindNotFound:
		return ExitNotFound
	case KindInvalidIdentifier:
		return ExitInvalidIdentifier
	case KindDuplicateKey:
		return ExitDuplicateKey
	default:
		return ExitBackend
	}
}

// Error is the typed failure of one operation. Message is the terse
// user-facing text; Err keeps the underlying cause for logs.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// KindOf reports the Kind of err and whether err carries one.
func KindOf(err error) (Kind, bool) {
	var opErr *Error
	if errors.As(err, &opErr) {
		return opErr.Kind, true
	}
	return KindBackend, false
}

func newError(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// ConnectionError wraps a failure to reach the backend.
func ConnectionError(op string, err error) *Error {
	return newError(KindConnection, op, "storage backend unreachable", err)
}

// backendError maps a backend-reported failure to its Kind.
func backendError(op, message string, err error) *Error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return newError(KindConnection, op, message+": operation timed out", err)
	case errors.Is(err, blobstore.ErrUnavailable):
		return newError(KindConnection, op, message+": storage backend unreachable", err)
	case errors.Is(err, blobstore.ErrDuplicateKey):
		return newError(KindDuplicateKey, op, message, err)
	case errors.Is(err, blobstore.ErrNotFound):
		return newError(KindNotFound, op, message, err)
	default:
		return newError(KindBackend, op, message, err)
	}
}
