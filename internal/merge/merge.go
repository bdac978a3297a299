// Package merge implements the three-way row merger: given source, target,
// and ancestor indexes for the same table, it classifies every row's
// resolution against the ancestor snapshot and flags conflicts, the way
// internal/diff's table comparator classifies a two-sided difference —
// extended here to three sides.
package merge

import (
	"sort"

	"difly/internal/core"
	"difly/internal/errs"
	"difly/internal/index"
)

// Resolution identifies how a row's source-vs-ancestor and target-vs-ancestor
// changes reconcile.
type Resolution int

const (
	Unchanged Resolution = iota
	SourceOnly
	TargetOnly
	BothAgree
	Conflict
)

func (r Resolution) String() string {
	switch r {
	case Unchanged:
		return "unchanged"
	case SourceOnly:
		return "source_only"
	case TargetOnly:
		return "target_only"
	case BothAgree:
		return "both_agree"
	case Conflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// SideChange is the kind of change one side made relative to the ancestor.
type SideChange int

const (
	None SideChange = iota
	SideInsert
	SideUpdate
	SideDelete
)

// RowMerge is the classification for one primary key.
type RowMerge struct {
	PK                core.PkValue
	SourceChange       SideChange
	TargetChange       SideChange
	Resolution         Resolution
	Ancestor           core.Row
	Source             core.Row
	Target             core.Row
	ConflictingColumns []string
}

// TableMerge is the merge result for one table: every row that is not
// Unchanged, in stable PK order.
type TableMerge struct {
	TableName string
	PKColumns core.PrimaryKey
	Columns   core.Columns
	Rows      []RowMerge
	Unchanged int
	Mismatch  index.SchemaAlignment
}

// Merge classifies every row in source ∪ target ∪ ancestor per the
// three-way resolution table.
func Merge(source, target, ancestor *index.Table) (*TableMerge, error) {
	if source.Name != target.Name || source.Name != ancestor.Name {
		return nil, errs.New(errs.Config, "merge: table name mismatch among source %q, target %q, ancestor %q", source.Name, target.Name, ancestor.Name)
	}

	alignment := index.AlignSchemas(source.Columns, target.Columns)
	compareCols := comparableColumns(source.Columns, alignment.Common)

	tm := &TableMerge{
		TableName: source.Name,
		PKColumns: source.PK,
		Columns:   source.Columns,
		Mismatch:  alignment,
	}

	for _, pk := range unionPKs(source.Index, target.Index, ancestor.Index) {
		aRow, inAncestor := ancestor.Index[pk]
		sRow, inSource := source.Index[pk]
		tRow, inTarget := target.Index[pk]

		sourceChange := classify(inAncestor, inSource, aRow, sRow, source.Columns, compareCols)
		targetChange := classify(inAncestor, inTarget, aRow, tRow, source.Columns, compareCols)

		if sourceChange == None && targetChange == None {
			tm.Unchanged++
			continue
		}

		rm := RowMerge{PK: pk, SourceChange: sourceChange, TargetChange: targetChange, Ancestor: aRow, Source: sRow, Target: tRow}
		rm.Resolution, rm.ConflictingColumns = resolve(sourceChange, targetChange, source.Columns, compareCols, aRow, sRow, tRow)

		if rm.Resolution == Unchanged {
			tm.Unchanged++
			continue
		}
		tm.Rows = append(tm.Rows, rm)
	}

	sortRows(tm.Rows)
	return tm, nil
}

// classify determines how one side changed relative to the ancestor.
func classify(inAncestor, inSide bool, ancestorRow, sideRow core.Row, allColumns, compareCols core.Columns) SideChange {
	switch {
	case !inAncestor && inSide:
		return SideInsert
	case inAncestor && !inSide:
		return SideDelete
	case inAncestor && inSide:
		if rowsEqual(compareCols, allColumns, ancestorRow, sideRow) {
			return None
		}
		return SideUpdate
	default:
		return None
	}
}

// resolve applies the three-way resolution table from the specification.
func resolve(sourceChange, targetChange SideChange, allColumns, compareCols core.Columns, ancestorRow, sourceRow, targetRow core.Row) (Resolution, []string) {
	switch {
	case sourceChange == SideInsert && targetChange == None:
		return SourceOnly, nil
	case sourceChange == SideInsert && targetChange == SideInsert:
		if rowsEqual(compareCols, allColumns, sourceRow, targetRow) {
			return BothAgree, nil
		}
		return Conflict, conflictingColumns(compareCols, allColumns, sourceRow, targetRow)
	case sourceChange == None && targetChange == SideDelete:
		return TargetOnly, nil
	case sourceChange == None && targetChange == SideUpdate:
		return TargetOnly, nil
	case sourceChange == None && targetChange == None:
		return Unchanged, nil
	case sourceChange == SideUpdate && targetChange == SideDelete:
		return Conflict, nil
	case sourceChange == SideUpdate && targetChange == None:
		return SourceOnly, nil
	case sourceChange == SideUpdate && targetChange == SideUpdate:
		if rowsEqual(compareCols, allColumns, sourceRow, targetRow) {
			return BothAgree, nil
		}
		return Conflict, conflictingColumnsThreeWay(compareCols, allColumns, ancestorRow, sourceRow, targetRow)
	case sourceChange == None && targetChange == SideInsert:
		return TargetOnly, nil
	// The remaining cases mirror the table above for a row source deleted:
	// absent from A in none of these (the row was present in ancestor), so
	// they are the Delete-side counterparts the resolution table covers by
	// symmetry (TargetOnly(Delete)/Conflict(UpdateDelete) mirrored).
	case sourceChange == SideDelete && targetChange == None:
		return SourceOnly, nil
	case sourceChange == SideDelete && targetChange == SideDelete:
		return BothAgree, nil
	case sourceChange == SideDelete && targetChange == SideUpdate:
		return Conflict, nil
	default:
		return Unchanged, nil
	}
}

// conflictingColumns reports which compared columns differ between a and b.
func conflictingColumns(compareCols, allColumns core.Columns, a, b core.Row) []string {
	var out []string
	for _, c := range compareCols {
		i := allColumns.IndexOf(c.Name)
		if i < 0 || i >= len(a) || i >= len(b) {
			continue
		}
		av, bv := index.NormalizePair(a[i], b[i])
		if !av.Equals(bv) {
			out = append(out, c.Name)
		}
	}
	return out
}

// conflictingColumnsThreeWay reports, per column, which ones both source and
// target changed away from the ancestor to different values — a column both
// sides changed identically is not a conflict, and a column only one side
// touched is not included.
func conflictingColumnsThreeWay(compareCols, allColumns core.Columns, ancestorRow, sourceRow, targetRow core.Row) []string {
	var out []string
	for _, c := range compareCols {
		i := allColumns.IndexOf(c.Name)
		if i < 0 || i >= len(ancestorRow) || i >= len(sourceRow) || i >= len(targetRow) {
			continue
		}
		anc, src := index.NormalizePair(ancestorRow[i], sourceRow[i])
		_, tgt := index.NormalizePair(ancestorRow[i], targetRow[i])
		sourceChanged := !anc.Equals(src)
		targetChanged := !anc.Equals(tgt)
		if sourceChanged && targetChanged && !src.Equals(tgt) {
			out = append(out, c.Name)
		}
	}
	return out
}

func rowsEqual(compareCols, allColumns core.Columns, a, b core.Row) bool {
	return len(conflictingColumns(compareCols, allColumns, a, b)) == 0
}

func comparableColumns(cols core.Columns, common []string) core.Columns {
	commonSet := make(map[string]bool, len(common))
	for _, c := range common {
		commonSet[c] = true
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

func unionPKs(indexes ...index.PkIndex) []core.PkValue {
	seen := make(map[core.PkValue]bool)
	var out []core.PkValue
	for _, idx := range indexes {
		for pk := range idx {
			if !seen[pk] {
				seen[pk] = true
				out = append(out, pk)
			}
		}
	}
	return out
}

func sortRows(rows []RowMerge) {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].PK.Compare(rows[j].PK) < 0 })
}
