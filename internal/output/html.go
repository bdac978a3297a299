package output

import (
	"html/template"
	"strings"

	"difly/internal/changeset"
	"difly/internal/core"
	"difly/internal/diff"
	"difly/internal/errs"
	"difly/internal/merge"
)

type htmlFormatter struct{}

func (htmlFormatter) Format(cs *changeset.Changeset) (string, error) {
	data := htmlData{Changeset: cs}
	if cs != nil {
		for _, td := range cs.TableDiffs {
			data.DiffRows = append(data.DiffRows, diffRowsFor(td)...)
		}
		for _, tm := range cs.TableMerges {
			data.MergeRows = append(data.MergeRows, mergeRowsFor(tm)...)
		}
	}

	var sb strings.Builder
	if err := reportTemplate.Execute(&sb, data); err != nil {
		return "", errs.Wrap(errs.Emit, err)
	}
	return sb.String(), nil
}

type htmlData struct {
	Changeset *changeset.Changeset
	DiffRows  []htmlDiffRow
	MergeRows []htmlMergeRow
}

type htmlDiffRow struct {
	Table          string
	Kind           string
	PK             string
	ChangedColumns string
}

type htmlMergeRow struct {
	Table      string
	PK         string
	Resolution string
	Columns    string
}

func diffRowsFor(td *diff.TableDiff) []htmlDiffRow {
	out := make([]htmlDiffRow, 0, len(td.Changes))
	for _, c := range td.Changes {
		out = append(out, htmlDiffRow{
			Table:          td.TableName,
			Kind:           c.Kind.String(),
			PK:             pkString(c.PK.Values()),
			ChangedColumns: strings.Join(c.ChangedColumns, ", "),
		})
	}
	return out
}

func mergeRowsFor(tm *merge.TableMerge) []htmlMergeRow {
	out := make([]htmlMergeRow, 0, len(tm.Rows))
	for _, row := range tm.Rows {
		if row.Resolution != merge.Conflict {
			continue
		}
		out = append(out, htmlMergeRow{
			Table:      tm.TableName,
			PK:         pkString(row.PK.Values()),
			Resolution: row.Resolution.String(),
			Columns:    strings.Join(row.ConflictingColumns, ", "),
		})
	}
	return out
}

func pkString(values []core.Value) string {
	parts := make([]string, len(values))
	for i, v := range values {
		raw, err := v.ToJSON()
		if err != nil {
			parts[i] = "?"
			continue
		}
		parts[i] = strings.Trim(string(raw), `"`)
	}
	return strings.Join(parts, ", ")
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>difly changeset report</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
table { border-collapse: collapse; margin-bottom: 2rem; }
th, td { border: 1px solid #ccc; padding: 0.35rem 0.6rem; text-align: left; }
th { background: #f4f4f4; }
.conflict { background: #fee; }
</style>
</head>
<body>
<h1>difly changeset report</h1>
{{with .Changeset}}
<p>Generated: {{.GeneratedAt}}</p>
<p>Source: {{.Source.Dialect}} {{.Source.Database}}</p>
<p>Target: {{.Target.Dialect}} {{.Target.Database}}</p>
<table>
<tr><th>Tables</th><th>Inserts</th><th>Updates</th><th>Deletes</th><th>Unchanged</th></tr>
<tr><td>{{.Summary.Tables}}</td><td>{{.Summary.Inserts}}</td><td>{{.Summary.Updates}}</td><td>{{.Summary.Deletes}}</td><td>{{.Summary.Unchanged}}</td></tr>
</table>
{{end}}

{{if .DiffRows}}
<h2>Row changes</h2>
<table>
<tr><th>Table</th><th>Kind</th><th>PK</th><th>Changed columns</th></tr>
{{range .DiffRows}}
<tr><td>{{.Table}}</td><td>{{.Kind}}</td><td>{{.PK}}</td><td>{{.ChangedColumns}}</td></tr>
{{end}}
</table>
{{end}}

{{if .MergeRows}}
<h2>Conflicts</h2>
<table>
{{range .MergeRows}}
<tr class="conflict"><td>{{.Table}}</td><td>{{.PK}}</td><td>{{.Resolution}}</td><td>{{.Columns}}</td></tr>
{{end}}
</table>
{{end}}
</body>
</html>
`))
