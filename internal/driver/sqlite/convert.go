package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"difly/internal/core"
)

type rowIterator struct {
	rows    *sql.Rows
	columns core.Columns
	mutex   *sync.Mutex
}

func (it *rowIterator) Next() bool { return it.rows.Next() }

func (it *rowIterator) Row() (core.Row, error) {
	raw := make([]any, len(it.columns))
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
			return nil, fmt.Errorf("sqlite: column %q: %w", col.Name, err)
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

// toValue maps a cell returned by SQLite's dynamic type system to a
// core.Value. Per the specification's SQLite normalization rule, an integer
// column backing a boolean (0/1) is left as Integer, and the row indexer
// never promotes it to Bool either (see index.NormalizePair). declaredType is
// the column's declared affinity text, used only to disambiguate text
// representations SQLite itself leaves untyped (NUMERIC/DECIMAL, JSON,
// UUID, dates) — SQLite does not enforce these at the storage layer, so a
// column declared DECIMAL can still arrive as a float if it was inserted
// without type affinity coercion; toValue trusts the declared type over the
// storage class for these cases, matching how the rest of the pipeline
// reasons about columns.
func toValue(raw any, declaredType string) (core.Value, error) {
	if raw == nil {
		return core.Null, nil
	}
	lower := strings.ToLower(declaredType)

	switch v := raw.(type) {
	case int64:
		return core.NewInteger(v), nil
	case float64:
		if strings.HasPrefix(lower, "decimal") || strings.HasPrefix(lower, "numeric") {
			return core.NewDecimal(formatFloatExact(v)), nil
		}
		return core.NewFloat(v), nil
	case []byte:
		return bytesOrText(v, lower)
	case string:
		return textByDeclaredType(v, lower)
	default:
		return core.Null, fmt.Errorf("unsupported sqlite scanned type %T", raw)
	}
}

func bytesOrText(b []byte, lower string) (core.Value, error) {
	if strings.HasPrefix(lower, "blob") {
		return core.NewBytes(b), nil
	}
	return textByDeclaredType(string(b), lower)
}

func textByDeclaredType(s string, lower string) (core.Value, error) {
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
		return core.NewTimestamp(s, strings.Contains(s, "+") || strings.Contains(s, "Z"), 0), nil
	case lower == "uuid":
		return core.NewUUID(s), nil
	default:
		return core.NewText(s), nil
	}
}

func formatFloatExact(f float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.17f", f), "0"), ".")
}
