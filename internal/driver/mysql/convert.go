package mysql

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"difly/internal/core"
)

type rowIterator struct {
	rows    *sql.Rows
	columns core.Columns
}

func (it *rowIterator) Next() bool { return it.rows.Next() }

func (it *rowIterator) Row() (core.Row, error) {
	raw := make([]sql.RawBytes, len(it.columns))
	ptrs := make([]any, len(it.columns))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := it.rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	row := make(core.Row, len(it.columns))
	for i, col := range it.columns {
		v, err := toValue(raw[i], col.DeclaredType)
		if err != nil {
			return nil, fmt.Errorf("mysql: column %q: %w", col.Name, err)
		}
		row[i] = v
	}
	return row, nil
}

func (it *rowIterator) Close() error {
	if err := it.rows.Err(); err != nil {
		it.rows.Close()
		return err
	}
	return it.rows.Close()
}

// toValue maps a raw MySQL/MariaDB text-protocol cell to a core.Value based
// on the declared column_type. A NULL sql.RawBytes (nil slice, as opposed to
// an empty non-nil one) maps to core.Null; MySQL's text protocol otherwise
// hands every value back as bytes regardless of declared type.
//
// Per the row indexer's normalization table: TINYINT(1) — MySQL's
// conventional boolean encoding — is left as Integer here, never implicitly
// promoted to Bool; internal/index does not promote it to Bool either.
func toValue(raw sql.RawBytes, declaredType string) (core.Value, error) {
	if raw == nil {
		return core.Null, nil
	}
	s := string(raw)
	lower := strings.ToLower(declaredType)

	switch {
	case strings.HasPrefix(lower, "decimal") || strings.HasPrefix(lower, "numeric"):
		return core.NewDecimal(s), nil
	case strings.HasPrefix(lower, "json"):
		return core.NewJSON(s)
	case lower == "date":
		return core.NewDate(s), nil
	case strings.HasPrefix(lower, "time") && !strings.HasPrefix(lower, "timestamp"):
		return core.NewTime(s), nil
	case strings.HasPrefix(lower, "datetime") || strings.HasPrefix(lower, "timestamp"):
		return core.NewTimestamp(strings.Replace(s, " ", "T", 1), false, 0), nil
	case strings.HasPrefix(lower, "tinyint(1)"):
		return core.NewInteger(mustParseInt(s)), nil
	case strings.HasPrefix(lower, "tinyint") || strings.HasPrefix(lower, "smallint") ||
		strings.HasPrefix(lower, "mediumint") || strings.HasPrefix(lower, "int") ||
		strings.HasPrefix(lower, "bigint") || strings.HasPrefix(lower, "year"):
		return core.NewInteger(mustParseInt(s)), nil
	case strings.HasPrefix(lower, "float") || strings.HasPrefix(lower, "double"):
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return core.Null, err
		}
		return core.NewFloat(f), nil
	case strings.HasPrefix(lower, "blob") || strings.HasPrefix(lower, "binary") || strings.HasPrefix(lower, "varbinary"):
		return core.NewBytes(raw), nil
	case lower == "uuid" || lower == "char(36)":
		return core.NewUUID(s), nil
	default:
		return core.NewText(s), nil
	}
}

func mustParseInt(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
