package core

import (
	"errors"

	"difly/internal/errs"
)

var errNoPkColumns = errs.New(errs.Config, "primary key must declare at least one column")

func newTooManyPkColumnsError(got, max int) error {
	return errs.New(errs.Config, "composite primary key has %d columns, difly supports at most %d", got, max)
}

func newPkColumnNotFoundError(name string) error {
	return errs.New(errs.Config, "primary key column %q not present in row columns", name)
}

func newPkNullError(name string) error {
	return errs.New(errs.DataIntegrity, "primary key column %q is null", name)
}

// ErrDuplicatePk is wrapped with the offending PK description by callers in
// internal/index when two rows of one fetched table share a primary key.
var ErrDuplicatePk = errors.New("duplicate primary key value")

// NewDuplicatePkError reports two rows sharing a primary key, naming both.
func NewDuplicatePkError(pk string, rowA, rowB int) error {
	return errs.New(errs.DataIntegrity, "duplicate primary key %s: rows %d and %d: %w", pk, rowA, rowB, ErrDuplicatePk)
}
