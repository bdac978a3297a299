// Package errs defines the error taxonomy difly uses end to end: a small
// set of Kinds, one per failure class in the specification, wrapped around
// the usual fmt.Errorf-chain errors the rest of the codebase produces. The
// CLI maps Kind to an exit code and prints one "kind: message" line per
// error to stderr; internal packages just wrap errors with New/Wrap as they
// would with plain fmt.Errorf.
package errs

import (
	"errors"
	"fmt"
)

// Kind names one of the failure classes from the specification's error
// taxonomy. It is not a replacement for Go's error values — an *Error still
// wraps a normal error chain — it is a coarse tag used for exit-code
// mapping and stderr formatting.
type Kind string

const (
	Config               Kind = "config"
	Connect              Kind = "connect"
	SchemaIntrospect     Kind = "schema_introspect"
	Fetch                Kind = "fetch"
	DataIntegrity        Kind = "data_integrity"
	SchemaMismatch       Kind = "schema_mismatch"
	SnapshotIncompatible Kind = "snapshot_incompatible"
	SnapshotMismatch     Kind = "snapshot_mismatch"
	Emit                 Kind = "emit"
	Cancelled            Kind = "cancelled"
)

// Error pairs a Kind with a wrapped error chain.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a Kind-tagged error from a message, formatted like fmt.Errorf.
func New(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Wrap tags an existing error with kind, preserving its chain for errors.Is/As.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// KindOf returns the Kind of err (or the first Kind found by unwrapping),
// and false if no *Error is present anywhere in the chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// ExitCode maps a Kind to the process exit code from the specification's
// external interfaces: 0 success, 1 usage/config, 2 data integrity,
// 3 driver/IO, 4 conflict (set directly by the check-conflicts command, not
// derived from a Kind), 5 cancelled.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	kind, ok := KindOf(err)
	if !ok {
		return 1
	}
	switch kind {
	case Config:
		return 1
	case DataIntegrity, SchemaMismatch:
		return 2
	case Connect, SchemaIntrospect, Fetch, Emit:
		return 3
	case SnapshotIncompatible, SnapshotMismatch:
		return 2
	case Cancelled:
		return 5
	default:
		return 1
	}
}
