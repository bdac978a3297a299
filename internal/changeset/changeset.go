// Package changeset assembles the canonical structured result consumed by
// the emitters: the two-way TableDiffs or three-way TableMerges from a run,
// aggregated into one top-level artifact, serialized with the per-table
// summary-struct pattern the teacher's internal/output/json.go uses for its
// own diff/migration payloads.
package changeset

import (
	"time"

	"difly/internal/core"
	"difly/internal/diff"
	"difly/internal/merge"
	"difly/internal/perf"
)

// Descriptor identifies one side of a comparison without leaking
// credentials: dialect plus host/database/schema, password always redacted.
type Descriptor struct {
	Dialect  core.Dialect `json:"dialect"`
	Host     string       `json:"host"`
	Database string       `json:"database"`
	Schema   string       `json:"schema,omitempty"`
}

// Summary is the aggregate change counts, per-table and global.
type Summary struct {
	Inserts   int `json:"inserts"`
	Updates   int `json:"updates"`
	Deletes   int `json:"deletes"`
	Unchanged int `json:"unchanged"`
	Tables    int `json:"tables"`
}

// Changeset is the top-level artifact produced by a diff or merge run.
type Changeset struct {
	GeneratedAt time.Time           `json:"generated_at"`
	Source      Descriptor          `json:"source"`
	Target      Descriptor          `json:"target"`
	TableDiffs  []*diff.TableDiff   `json:"table_diffs,omitempty"`
	TableMerges []*merge.TableMerge `json:"table_merges,omitempty"`
	Summary     Summary             `json:"summary"`
	Perf        perf.Report         `json:"perf"`
	Warnings    []string            `json:"warnings,omitempty"`
}

// FromDiffs aggregates a set of two-way TableDiffs into a Changeset.
func FromDiffs(source, target Descriptor, diffs []*diff.TableDiff, p perf.Report) Changeset {
	cs := Changeset{
		GeneratedAt: now(),
		Source:      source,
		Target:      target,
		TableDiffs:  diffs,
		Perf:        p,
	}
	cs.Summary.Tables = len(diffs)
	for _, td := range diffs {
		stats := diff.Summarize(td)
		cs.Summary.Inserts += stats.Inserts
		cs.Summary.Updates += stats.Updates
		cs.Summary.Deletes += stats.Deletes
		cs.Summary.Unchanged += stats.Unchanged
		if warning := td.Mismatch.Warning(td.TableName); warning != "" {
			cs.Warnings = append(cs.Warnings, warning)
		}
	}
	return cs
}

// FromMerges aggregates a set of three-way TableMerges into a Changeset.
// Every row that is not unchanged, conflicts included, is counted once:
// under Inserts if either side inserted it, otherwise under Deletes if
// either side deleted it, otherwise under Updates. No row is dropped from
// the summary.
func FromMerges(source, target Descriptor, merges []*merge.TableMerge, p perf.Report) Changeset {
	cs := Changeset{
		GeneratedAt: now(),
		Source:      source,
		Target:      target,
		TableMerges: merges,
		Perf:        p,
	}
	cs.Summary.Tables = len(merges)
	for _, tm := range merges {
		cs.Summary.Unchanged += tm.Unchanged
		if warning := tm.Mismatch.Warning(tm.TableName); warning != "" {
			cs.Warnings = append(cs.Warnings, warning)
		}
		for _, row := range tm.Rows {
			switch {
			case row.SourceChange == merge.SideInsert || row.TargetChange == merge.SideInsert:
				cs.Summary.Inserts++
			case row.SourceChange == merge.SideDelete || row.TargetChange == merge.SideDelete:
				cs.Summary.Deletes++
			default:
				cs.Summary.Updates++
			}
		}
	}
	return cs
}

// HasConflicts reports whether any TableMerge in cs carries an unresolved
// Conflict row.
func (cs Changeset) HasConflicts() bool {
	for _, tm := range cs.TableMerges {
		for _, row := range tm.Rows {
			if row.Resolution == merge.Conflict {
				return true
			}
		}
	}
	return false
}

// now is overridable in tests that need deterministic GeneratedAt values.
var now = time.Now
