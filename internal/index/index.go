// Package index builds a PK -> Row mapping for one fetched table and
// validates it against the configured primary key and (when diffing two
// tables) against the other side's column list, per the row indexer
// component of the specification.
package index

import (
	"fmt"
	"sort"

	"difly/internal/core"
	"difly/internal/errs"
)

// PkIndex maps a table's primary-key projection to its full row.
type PkIndex map[core.PkValue]core.Row

// Table bundles an indexed table with the metadata diffing needs: its
// columns in declared order and the primary key it was indexed on.
type Table struct {
	Name    string
	Schema  string
	Columns core.Columns
	PK      core.PrimaryKey
	Index   PkIndex
}

// Build validates pk against columns, asserts PK non-nullability and
// uniqueness across rows, and returns the resulting indexed Table.
//
// Build asserts pk is a subset of columns (errs.Config), that no row's PK
// projection contains null (errs.DataIntegrity, via core.NewPkValue), and
// that no two rows share a PK value (errs.DataIntegrity, naming both rows).
func Build(tableName string, columns core.Columns, pk core.PrimaryKey, rows []core.Row) (*Table, error) {
	for _, name := range pk {
		if columns.IndexOf(name) < 0 {
			return nil, errs.New(errs.Config, "table %q: primary key column %q is not among fetched columns", tableName, name)
		}
	}

	idx := make(PkIndex, len(rows))
	seenAt := make(map[core.PkValue]int, len(rows))
	for i, row := range rows {
		pkVal, err := core.NewPkValue(columns, pk, row)
		if err != nil {
			return nil, fmt.Errorf("table %q, row %d: %w", tableName, i, err)
		}
		if prior, dup := seenAt[pkVal]; dup {
			return nil, core.NewDuplicatePkError(fmt.Sprintf("%s(%v)", tableName, pk), prior, i)
		}
		seenAt[pkVal] = i
		idx[pkVal] = row
	}

	return &Table{Name: tableName, Columns: columns, PK: pk, Index: idx}, nil
}

// SchemaAlignment is the result of comparing two tables' column lists: the
// columns usable for comparison and the "phantom" columns present on only
// one side.
type SchemaAlignment struct {
	Common  []string
	OnlyA   []string
	OnlyB   []string
}

// AlignSchemas computes the comparable column set between two tables'
// column lists, in ordinal order of a.
func AlignSchemas(a, b core.Columns) SchemaAlignment {
	common, onlyA, onlyB := a.Intersect(b)
	sort.Strings(onlyA)
	sort.Strings(onlyB)
	return SchemaAlignment{Common: common, OnlyA: onlyA, OnlyB: onlyB}
}

// HasMismatch reports whether the two sides disagree on any column.
func (a SchemaAlignment) HasMismatch() bool {
	return len(a.OnlyA) > 0 || len(a.OnlyB) > 0
}

// Warning renders a human-readable SchemaMismatch description, or "" if
// there is no mismatch.
func (a SchemaAlignment) Warning(table string) string {
	if !a.HasMismatch() {
		return ""
	}
	return fmt.Sprintf("table %q: columns only on source: %v; columns only on target: %v", table, a.OnlyA, a.OnlyB)
}
