// Package diff implements the two-way row comparator: given two indexed
// tables (source, target) sharing a primary key, it classifies every row as
// Insert, Update, Delete, or Unchanged, the way the teacher's internal/diff
// classified table-level DDL differences — same shape, new subject.
package diff

import (
	"sort"

	"difly/internal/core"
	"difly/internal/errs"
	"difly/internal/index"
)

// Kind identifies the kind of a row-level Change.
type Kind int

const (
	Insert Kind = iota
	Update
	Delete
)

func (k Kind) String() string {
	switch k {
	case Insert:
		return "insert"
	case Update:
		return "update"
	case Delete:
		return "delete"
	default:
		return "unknown"
	}
}

// Change is one row-level difference. Before/After hold the full row on
// their respective side; for Insert, Before is nil; for Delete, After is
// nil. ChangedColumns is populated only for Update and is ordered by
// declared column ordinal, never containing a PK column.
type Change struct {
	Kind           Kind
	PK             core.PkValue
	Before         core.Row
	After          core.Row
	ChangedColumns []string
}

// TableDiff is the result of comparing one table between source and target.
type TableDiff struct {
	TableName string
	Schema    string
	PKColumns core.PrimaryKey
	Columns   core.Columns
	Changes   []Change
	Unchanged int
	Mismatch  index.SchemaAlignment
}

// Diff compares a source and target index.Table sharing the same primary
// key and returns the resulting TableDiff. Columns present on only one side
// (per index.AlignSchemas) are excluded from comparison and reported via
// Mismatch; they do not by themselves cause an Insert/Update/Delete.
func Diff(source, target *index.Table) (*TableDiff, error) {
	if source.Name != target.Name {
		return nil, errs.New(errs.Config, "diff: source table %q and target table %q do not match", source.Name, target.Name)
	}
	if len(source.PK) == 0 || len(target.PK) == 0 {
		return nil, errs.New(errs.Config, "diff: table %q: primary key must be configured on both sides", source.Name)
	}

	alignment := index.AlignSchemas(source.Columns, target.Columns)
	compareCols := comparableColumns(source.Columns, alignment.Common, source.PK)

	td := &TableDiff{
		TableName: source.Name,
		Schema:    source.Schema,
		PKColumns: source.PK,
		Columns:   source.Columns,
		Mismatch:  alignment,
	}

	pks := unionPKs(source.Index, target.Index)
	for _, pk := range pks {
		sRow, inSource := source.Index[pk]
		tRow, inTarget := target.Index[pk]

		switch {
		case inSource && !inTarget:
			td.Changes = append(td.Changes, Change{Kind: Insert, PK: pk, After: sRow})
		case !inSource && inTarget:
			td.Changes = append(td.Changes, Change{Kind: Delete, PK: pk, Before: tRow})
		default:
			changed := changedColumns(compareCols, source.Columns, sRow, tRow)
			if len(changed) == 0 {
				td.Unchanged++
				continue
			}
			td.Changes = append(td.Changes, Change{
				Kind:           Update,
				PK:             pk,
				Before:         tRow,
				After:          sRow,
				ChangedColumns: changed,
			})
		}
	}

	sortChanges(td.Changes)
	return td, nil
}

// comparableColumns returns source's columns restricted to the common set,
// excluding PK columns, in declared ordinal order.
func comparableColumns(cols core.Columns, common []string, pk core.PrimaryKey) core.Columns {
	commonSet := make(map[string]bool, len(common))
	for _, c := range common {
		commonSet[c] = true
	}
	for _, name := range pk {
		delete(commonSet, name)
	}
	out := make(core.Columns, 0, len(cols))
	for _, c := range cols {
		if commonSet[c.Name] {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ordinal < out[j].Ordinal })
	return out
}

// changedColumns compares sRow against tRow over cols (already PK-excluded,
// ordinal-ordered) and returns the names that differ, preserving order.
func changedColumns(cols core.Columns, allColumns core.Columns, sRow, tRow core.Row) []string {
	var out []string
	for _, c := range cols {
		i := allColumns.IndexOf(c.Name)
		if i < 0 || i >= len(sRow) || i >= len(tRow) {
			continue
		}
		a, b := index.NormalizePair(sRow[i], tRow[i])
		if !a.Equals(b) {
			out = append(out, c.Name)
		}
	}
	return out
}

func unionPKs(a, b index.PkIndex) []core.PkValue {
	seen := make(map[core.PkValue]bool, len(a)+len(b))
	out := make([]core.PkValue, 0, len(a)+len(b))
	for pk := range a {
		if !seen[pk] {
			seen[pk] = true
			out = append(out, pk)
		}
	}
	for pk := range b {
		if !seen[pk] {
			seen[pk] = true
			out = append(out, pk)
		}
	}
	return out
}

// kindOrder fixes the emission order: Delete < Update < Insert.
func kindOrder(k Kind) int {
	switch k {
	case Delete:
		return 0
	case Update:
		return 1
	case Insert:
		return 2
	default:
		return 3
	}
}

func sortChanges(changes []Change) {
	sort.SliceStable(changes, func(i, j int) bool {
		oi, oj := kindOrder(changes[i].Kind), kindOrder(changes[j].Kind)
		if oi != oj {
			return oi < oj
		}
		return changes[i].PK.Compare(changes[j].PK) < 0
	})
}

// Stats summarizes a TableDiff's change counts.
type Stats struct {
	Inserts   int
	Updates   int
	Deletes   int
	Unchanged int
}

// Summarize counts a TableDiff's changes by kind.
func Summarize(td *TableDiff) Stats {
	s := Stats{Unchanged: td.Unchanged}
	for _, c := range td.Changes {
		switch c.Kind {
		case Insert:
			s.Inserts++
		case Update:
			s.Updates++
		case Delete:
			s.Deletes++
		}
	}
	return s
}
