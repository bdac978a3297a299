// Package output renders a Changeset into one of the artifact formats a run
// produces: a machine-readable JSON document, a SQL migration script, a
// browsable HTML report, or a compact ASCII summary for a terminal. The
// four-formatter, name-switch
// shape follows the teacher's internal/output/formatter.go; the subject is
// a Changeset instead of a SchemaDiff/Migration pair.
package output

import (
	"fmt"
	"strings"

	"difly/internal/changeset"
)

// Format is an enum type representing the available output formats.
type Format string

const (
	FormatJSON    Format = "json"
	FormatSQL     Format = "sql"
	FormatHTML    Format = "html"
	FormatSummary Format = "summary"
)

// Formatter renders a Changeset as text in one artifact format.
type Formatter interface {
	Format(*changeset.Changeset) (string, error)
}

// NewFormatter creates a Formatter for name. An empty name selects JSON.
func NewFormatter(name string) (Formatter, error) {
	format := Format(strings.ToLower(strings.TrimSpace(name)))
	switch format {
	case "", FormatJSON:
		return jsonFormatter{}, nil
	case FormatSQL:
		return sqlFormatter{}, nil
	case FormatHTML:
		return htmlFormatter{}, nil
	case FormatSummary:
		return summaryFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s; use 'json', 'sql', 'html', or 'summary'", name)
	}
}
