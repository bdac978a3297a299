package output

import (
	"encoding/json"
	"time"

	"difly/internal/changeset"
	"difly/internal/core"
	"difly/internal/diff"
	"difly/internal/errs"
	"difly/internal/merge"
	"difly/internal/perf"
)

type jsonFormatter struct{}

// wireChangeset mirrors changeset.Changeset for JSON encoding. Value needs
// its own marshaling (core.Value.ToJSON), the same reason snapshot's wire
// types exist, so rows here are rendered cell-by-cell rather than relying
// on encoding/json's defaults over an unexported Value.
type wireChangeset struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Source      changeset.Descriptor `json:"source"`
	Target      changeset.Descriptor `json:"target"`
	Summary     changeset.Summary    `json:"summary"`
	Perf        perf.Report          `json:"perf"`
	TableDiffs  []wireTableDiff      `json:"table_diffs,omitempty"`
	TableMerges []wireTableMerge     `json:"table_merges,omitempty"`
	Warnings    []string             `json:"warnings,omitempty"`
}

type wireTableDiff struct {
	TableName string       `json:"table_name"`
	Schema    string       `json:"schema,omitempty"`
	PKColumns []string     `json:"pk_columns"`
	Unchanged int          `json:"unchanged"`
	Changes   []wireChange `json:"changes"`
}

type wireChange struct {
	Kind           string              `json:"kind"`
	PK             []json.RawMessage   `json:"pk"`
	Before         []json.RawMessage   `json:"before,omitempty"`
	After          []json.RawMessage   `json:"after,omitempty"`
	ChangedColumns []string            `json:"changed_columns,omitempty"`
}

type wireTableMerge struct {
	TableName string          `json:"table_name"`
	PKColumns []string        `json:"pk_columns"`
	Unchanged int             `json:"unchanged"`
	Rows      []wireRowMerge  `json:"rows"`
}

type wireRowMerge struct {
	PK                 []json.RawMessage `json:"pk"`
	SourceChange       string            `json:"source_change"`
	TargetChange       string            `json:"target_change"`
	Resolution         string            `json:"resolution"`
	Ancestor           []json.RawMessage `json:"ancestor,omitempty"`
	Source             []json.RawMessage `json:"source,omitempty"`
	Target             []json.RawMessage `json:"target,omitempty"`
	ConflictingColumns []string          `json:"conflicting_columns,omitempty"`
}

func (jsonFormatter) Format(cs *changeset.Changeset) (string, error) {
	w := wireChangeset{
		Summary: changeset.Summary{},
		Perf:    perf.Report{},
	}
	if cs != nil {
		w.GeneratedAt = cs.GeneratedAt
		w.Source = cs.Source
		w.Target = cs.Target
		w.Summary = cs.Summary
		w.Perf = cs.Perf
		w.Warnings = cs.Warnings

		for _, td := range cs.TableDiffs {
			wtd, err := encodeTableDiff(td)
			if err != nil {
				return "", err
			}
			w.TableDiffs = append(w.TableDiffs, wtd)
		}
		for _, tm := range cs.TableMerges {
			wtm, err := encodeTableMerge(tm)
			if err != nil {
				return "", err
			}
			w.TableMerges = append(w.TableMerges, wtm)
		}
	}

	b, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return "", errs.Wrap(errs.Emit, err)
	}
	return string(b) + "\n", nil
}

func encodeTableDiff(td *diff.TableDiff) (wireTableDiff, error) {
	wtd := wireTableDiff{
		TableName: td.TableName,
		Schema:    td.Schema,
		PKColumns: []string(td.PKColumns),
		Unchanged: td.Unchanged,
	}
	for _, c := range td.Changes {
		pk, err := encodeValues(c.PK.Values())
		if err != nil {
			return wireTableDiff{}, err
		}
		before, err := encodeRow(c.Before)
		if err != nil {
			return wireTableDiff{}, err
		}
		after, err := encodeRow(c.After)
		if err != nil {
			return wireTableDiff{}, err
		}
		wtd.Changes = append(wtd.Changes, wireChange{
			Kind:           c.Kind.String(),
			PK:             pk,
			Before:         before,
			After:          after,
			ChangedColumns: c.ChangedColumns,
		})
	}
	return wtd, nil
}

func encodeTableMerge(tm *merge.TableMerge) (wireTableMerge, error) {
	wtm := wireTableMerge{
		TableName: tm.TableName,
		PKColumns: []string(tm.PKColumns),
		Unchanged: tm.Unchanged,
	}
	for _, row := range tm.Rows {
		pk, err := encodeValues(row.PK.Values())
		if err != nil {
			return wireTableMerge{}, err
		}
		ancestor, err := encodeRow(row.Ancestor)
		if err != nil {
			return wireTableMerge{}, err
		}
		source, err := encodeRow(row.Source)
		if err != nil {
			return wireTableMerge{}, err
		}
		target, err := encodeRow(row.Target)
		if err != nil {
			return wireTableMerge{}, err
		}
		wtm.Rows = append(wtm.Rows, wireRowMerge{
			PK:                 pk,
			SourceChange:       sideChangeLabel(row.SourceChange),
			TargetChange:       sideChangeLabel(row.TargetChange),
			Resolution:         row.Resolution.String(),
			Ancestor:           ancestor,
			Source:             source,
			Target:             target,
			ConflictingColumns: row.ConflictingColumns,
		})
	}
	return wtm, nil
}

func encodeRow(row core.Row) ([]json.RawMessage, error) {
	if row == nil {
		return nil, nil
	}
	return encodeValues(row)
}

func encodeValues(values []core.Value) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, len(values))
	for i, v := range values {
		raw, err := v.ToJSON()
		if err != nil {
			return nil, errs.Wrap(errs.Emit, err)
		}
		out[i] = raw
	}
	return out, nil
}

func sideChangeLabel(c merge.SideChange) string {
	switch c {
	case merge.SideInsert:
		return "insert"
	case merge.SideUpdate:
		return "update"
	case merge.SideDelete:
		return "delete"
	default:
		return "none"
	}
}
