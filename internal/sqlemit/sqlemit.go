// Package sqlemit renders a set of TableDiffs as a single
// dialect-correct, atomic SQL transaction — DELETE, then UPDATE, then
// INSERT — built with strings.Builder the way the teacher's
// internal/output/sql.go assembles migration text.
package sqlemit

import (
	"strings"

	"difly/internal/core"
	"difly/internal/diff"
	"difly/internal/errs"
)

// Emit renders diffs as one atomic transaction against dialect: all
// statements wrapped in BEGIN/COMMIT, DELETEs first, then UPDATEs, then
// INSERTs, matching the orientation of two-way diff ("transform target to
// match source").
func Emit(dialect core.Dialect, diffs []*diff.TableDiff) (string, error) {
	var sb strings.Builder
	sb.WriteString("-- difly changeset migration\n")
	sb.WriteString("-- Apply as a single transaction; review before running in production.\n\n")
	sb.WriteString(beginStatement(dialect) + "\n\n")

	wroteAny := false
	for _, td := range diffs {
		stmts, err := tableStatements(dialect, td)
		if err != nil {
			return "", err
		}
		if len(stmts) == 0 {
			continue
		}
		wroteAny = true
		sb.WriteString("-- table: " + td.TableName + "\n")
		for _, s := range stmts {
			sb.WriteString(s)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	if !wroteAny {
		sb.WriteString("-- no changes to apply\n\n")
	}

	sb.WriteString("COMMIT;\n")
	return sb.String(), nil
}

// tableStatements renders one table's changes, preserving the
// Delete-then-Update-then-Insert order TableDiff.Changes already carries.
func tableStatements(dialect core.Dialect, td *diff.TableDiff) ([]string, error) {
	var out []string
	for _, c := range td.Changes {
		switch c.Kind {
		case diff.Delete:
			out = append(out, deleteStatement(dialect, td, c))
		case diff.Update:
			stmt, err := updateStatement(dialect, td, c)
			if err != nil {
				return nil, err
			}
			out = append(out, stmt)
		case diff.Insert:
			stmt, err := insertStatement(dialect, td, c)
			if err != nil {
				return nil, err
			}
			out = append(out, stmt)
		}
	}
	return out, nil
}

func deleteStatement(dialect core.Dialect, td *diff.TableDiff, c diff.Change) string {
	var sb strings.Builder
	sb.WriteString("DELETE FROM ")
	sb.WriteString(qualifiedTableName(dialect, td))
	sb.WriteString(" WHERE ")
	sb.WriteString(pkPredicate(dialect, td, c.PK))
	sb.WriteString(";")
	return sb.String()
}

func insertStatement(dialect core.Dialect, td *diff.TableDiff, c diff.Change) (string, error) {
	var cols, vals strings.Builder
	for i, col := range td.Columns {
		if i > 0 {
			cols.WriteString(", ")
			vals.WriteString(", ")
		}
		cols.WriteString(quoteIdentifier(dialect, col.Name))
		idx := td.Columns.IndexOf(col.Name)
		if idx < 0 || idx >= len(c.After) {
			return "", errs.New(errs.Emit, "table %q: insert missing value for column %q", td.TableName, col.Name)
		}
		vals.WriteString(c.After[idx].ToSQLLiteral(dialect))
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(qualifiedTableName(dialect, td))
	sb.WriteString(" (")
	sb.WriteString(cols.String())
	sb.WriteString(") VALUES (")
	sb.WriteString(vals.String())
	sb.WriteString(");")
	return sb.String(), nil
}

func updateStatement(dialect core.Dialect, td *diff.TableDiff, c diff.Change) (string, error) {
	if len(c.ChangedColumns) == 0 {
		return "", errs.New(errs.Emit, "table %q: update with no changed columns for pk %v", td.TableName, c.PK)
	}

	var set strings.Builder
	for i, name := range c.ChangedColumns {
		if i > 0 {
			set.WriteString(", ")
		}
		idx := td.Columns.IndexOf(name)
		if idx < 0 || idx >= len(c.After) {
			return "", errs.New(errs.Emit, "table %q: update missing value for column %q", td.TableName, name)
		}
		set.WriteString(quoteIdentifier(dialect, name))
		set.WriteString(" = ")
		set.WriteString(c.After[idx].ToSQLLiteral(dialect))
	}

	var sb strings.Builder
	sb.WriteString("UPDATE ")
	sb.WriteString(qualifiedTableName(dialect, td))
	sb.WriteString(" SET ")
	sb.WriteString(set.String())
	sb.WriteString(" WHERE ")
	sb.WriteString(pkPredicate(dialect, td, c.PK))
	sb.WriteString(";")
	return sb.String(), nil
}

func pkPredicate(dialect core.Dialect, td *diff.TableDiff, pk core.PkValue) string {
	values := pk.Values()
	var sb strings.Builder
	for i, name := range td.PKColumns {
		if i > 0 {
			sb.WriteString(" AND ")
		}
		sb.WriteString(quoteIdentifier(dialect, name))
		sb.WriteString(" = ")
		if i < len(values) {
			sb.WriteString(values[i].ToSQLLiteral(dialect))
		}
	}
	return sb.String()
}

// qualifiedTableName prefixes the table name with its schema, except for
// SQLite where schema is always ignored.
func qualifiedTableName(dialect core.Dialect, td *diff.TableDiff) string {
	if !dialect.SchemaQualified() || td.Schema == "" {
		return quoteIdentifier(dialect, td.TableName)
	}
	return quoteIdentifier(dialect, td.Schema) + "." + quoteIdentifier(dialect, td.TableName)
}

// beginStatement returns the dialect-appropriate transaction-start
// statement: PostgreSQL/SQLite use the literal BEGIN; MySQL/MariaDB require
// START TRANSACTION.
func beginStatement(dialect core.Dialect) string {
	if dialect.IsMySQLFamily() {
		return "START TRANSACTION;"
	}
	return "BEGIN;"
}

// quoteIdentifier quotes an identifier per dialect: PostgreSQL/SQLite use
// double quotes with the quote character doubled; MySQL/MariaDB use
// backticks, doubled the same way.
func quoteIdentifier(dialect core.Dialect, name string) string {
	quote := byte('"')
	if dialect.IsMySQLFamily() {
		quote = '`'
	}
	var sb strings.Builder
	sb.WriteByte(quote)
	for i := 0; i < len(name); i++ {
		if name[i] == quote {
			sb.WriteByte(quote)
		}
		sb.WriteByte(name[i])
	}
	sb.WriteByte(quote)
	return sb.String()
}
