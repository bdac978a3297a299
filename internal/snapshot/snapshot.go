// Package snapshot serializes and deserializes a complete materialization of
// a set of tables' rows at capture time, the durable artifact the three-way
// merger compares source and target against. Encoding follows the teacher's
// internal/output/json.go convention of keeping a private wire shape
// separate from the domain type, via encoding/json struct tags.
package snapshot

import (
	"encoding/json"
	"sort"
	"time"

	"difly/internal/core"
	"difly/internal/errs"
)

// CurrentVersion is the format version written by Encode.
const CurrentVersion = 1

// MinSupportedVersion is the oldest version Decode will accept.
const MinSupportedVersion = 1

// Snapshot is a full-table materialization of one or more tables.
type Snapshot struct {
	Version    int
	CapturedAt time.Time
	Dialect    core.Dialect
	Schema     string
	Tables     []TableSnapshot
}

// TableSnapshot is one table's full row set, PK-sorted.
type TableSnapshot struct {
	TableName string
	PKColumns core.PrimaryKey
	Columns   core.Columns
	Rows      []core.Row
}

// wire mirrors Snapshot for JSON encoding; Value needs its own marshaling so
// it goes through core.Value.ToJSON rather than encoding/json's defaults.
type wireSnapshot struct {
	Version    int         `json:"version"`
	CapturedAt time.Time   `json:"captured_at"`
	Dialect    string      `json:"dialect"`
	Schema     string      `json:"schema,omitempty"`
	Tables     []wireTable `json:"tables"`
}

type wireTable struct {
	TableName string              `json:"table_name"`
	PKColumns []string            `json:"pk_columns"`
	Columns   []wireColumn        `json:"columns"`
	Rows      [][]json.RawMessage `json:"rows"`
}

type wireColumn struct {
	Name         string `json:"name"`
	Ordinal      int    `json:"ordinal"`
	DeclaredType string `json:"declared_type"`
	Nullable     bool   `json:"nullable"`
}

// Encode renders a Snapshot as canonical JSON, rows sorted ascending by PK.
func Encode(s Snapshot) ([]byte, error) {
	w := wireSnapshot{
		Version:    CurrentVersion,
		CapturedAt: s.CapturedAt,
		Dialect:    string(s.Dialect),
		Schema:     s.Schema,
	}
	for _, t := range s.Tables {
		wt, err := encodeTable(t)
		if err != nil {
			return nil, errs.Wrap(errs.SnapshotMismatch, err)
		}
		w.Tables = append(w.Tables, wt)
	}
	return json.MarshalIndent(w, "", "  ")
}

func encodeTable(t TableSnapshot) (wireTable, error) {
	sorted := sortedByPK(t.Columns, t.PKColumns, t.Rows)

	wt := wireTable{
		TableName: t.TableName,
		PKColumns: []string(t.PKColumns),
	}
	for _, c := range t.Columns {
		wt.Columns = append(wt.Columns, wireColumn{
			Name:         c.Name,
			Ordinal:      c.Ordinal,
			DeclaredType: c.DeclaredType,
			Nullable:     c.Nullable,
		})
	}
	for _, row := range sorted {
		wireRow := make([]json.RawMessage, len(row))
		for i, v := range row {
			var (
				raw json.RawMessage
				err error
			)
			if v.Kind() == core.KindTimestamp {
				raw, err = encodeTimestamp(v)
			} else {
				raw, err = v.ToJSON()
			}
			if err != nil {
				return wireTable{}, err
			}
			wireRow[i] = raw
		}
		wt.Rows = append(wt.Rows, wireRow)
	}
	return wt, nil
}

func sortedByPK(columns core.Columns, pk core.PrimaryKey, rows []core.Row) []core.Row {
	out := make([]core.Row, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		pi, erri := core.NewPkValue(columns, pk, out[i])
		pj, errj := core.NewPkValue(columns, pk, out[j])
		if erri != nil || errj != nil {
			return false
		}
		return pi.Compare(pj) < 0
	})
	return out
}

// Decode parses a snapshot previously written by Encode. It enforces version
// compatibility and, when expectedPK is non-empty, that the snapshot's
// recorded PK for each table matches it exactly.
func Decode(data []byte, expectedPK core.PrimaryKey) (Snapshot, error) {
	var w wireSnapshot
	if err := json.Unmarshal(data, &w); err != nil {
		return Snapshot{}, errs.Wrap(errs.SnapshotIncompatible, err)
	}
	if w.Version < MinSupportedVersion {
		return Snapshot{}, errs.New(errs.SnapshotIncompatible, "snapshot version %d older than minimum supported %d", w.Version, MinSupportedVersion)
	}

	dialect, err := core.ParseDialect(w.Dialect)
	if err != nil {
		return Snapshot{}, errs.Wrap(errs.SnapshotIncompatible, err)
	}

	s := Snapshot{
		Version:    w.Version,
		CapturedAt: w.CapturedAt,
		Dialect:    dialect,
		Schema:     w.Schema,
	}

	for _, wt := range w.Tables {
		ts, err := decodeTable(wt, expectedPK)
		if err != nil {
			return Snapshot{}, err
		}
		s.Tables = append(s.Tables, ts)
	}
	return s, nil
}

func decodeTable(wt wireTable, expectedPK core.PrimaryKey) (TableSnapshot, error) {
	pk := core.PrimaryKey(wt.PKColumns)
	if len(expectedPK) > 0 && !pkEqual(pk, expectedPK) {
		return TableSnapshot{}, errs.New(errs.SnapshotMismatch, "table %q: snapshot primary key %v does not match configured primary key %v", wt.TableName, pk, expectedPK)
	}

	var columns core.Columns
	for _, wc := range wt.Columns {
		columns = append(columns, core.Column{
			Name:         wc.Name,
			Ordinal:      wc.Ordinal,
			DeclaredType: wc.DeclaredType,
			Nullable:     wc.Nullable,
		})
	}

	rows := make([]core.Row, 0, len(wt.Rows))
	for _, wireRow := range wt.Rows {
		if len(wireRow) != len(columns) {
			return TableSnapshot{}, errs.New(errs.SnapshotIncompatible, "table %q: row has %d cells, expected %d", wt.TableName, len(wireRow), len(columns))
		}
		row := make(core.Row, len(wireRow))
		for i, raw := range wireRow {
			v, err := valueFromJSON(raw, columns[i])
			if err != nil {
				return TableSnapshot{}, errs.Wrap(errs.SnapshotIncompatible, err)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}

	rows = sortedByPK(columns, pk, rows)

	return TableSnapshot{
		TableName: wt.TableName,
		PKColumns: pk,
		Columns:   columns,
		Rows:      rows,
	}, nil
}

func pkEqual(a, b core.PrimaryKey) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
