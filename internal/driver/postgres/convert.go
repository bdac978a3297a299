package postgres

import (
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"difly/internal/core"
	"difly/internal/driver"
)

// buildDSN percent-encodes the user, password, and database components of
// ep into a libpq connection URI, grounded on xataio-pgroll's
// internal/connstr percent-encoding approach.
func buildDSN(ep driver.Endpoint) string {
	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", ep.Host, ep.Port),
		Path:   "/" + ep.Database,
	}
	if ep.User != "" {
		if ep.Password != "" {
			u.User = url.UserPassword(ep.User, ep.Password)
		} else {
			u.User = url.User(ep.User)
		}
	}
	q := u.Query()
	q.Set("sslmode", "disable")
	u.RawQuery = q.Encode()
	return u.String()
}

type rowIterator struct {
	rows    *sql.Rows
	columns core.Columns
	err     error
}

func (it *rowIterator) Next() bool {
	return it.rows.Next()
}

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
			return nil, fmt.Errorf("postgres: column %q: %w", col.Name, err)
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

// toValue maps a driver-scanned Go value to a core.Value, using the
// declared Postgres type to disambiguate numeric/text representations the
// way the value model's spec requires (e.g. numeric columns must stay
// Decimal text, never a binary float).
func toValue(raw any, declaredType string) (core.Value, error) {
	if raw == nil {
		return core.Null, nil
	}
	declaredType = strings.ToLower(declaredType)

	switch v := raw.(type) {
	case bool:
		return core.NewBool(v), nil
	case int64:
		return core.NewInteger(v), nil
	case float64:
		return core.NewFloat(v), nil
	case time.Time:
		switch {
		case declaredType == "date":
			return core.NewDate(v.Format("2006-01-02")), nil
		case declaredType == "time without time zone" || declaredType == "time with time zone":
			return core.NewTime(v.Format("15:04:05.999999")), nil
		default:
			_, offset := v.Zone()
			hasOffset := declaredType == "timestamp with time zone"
			return core.NewTimestamp(v.UTC().Format(time.RFC3339Nano), hasOffset, offset/60), nil
		}
	case []byte:
		return bytesToValue(v, declaredType)
	case string:
		return stringToValue(v, declaredType)
	default:
		return core.Null, fmt.Errorf("unsupported scanned type %T", raw)
	}
}

func bytesToValue(b []byte, declaredType string) (core.Value, error) {
	switch declaredType {
	case "bytea":
		return core.NewBytes(b), nil
	default:
		return stringToValue(string(b), declaredType)
	}
}

func stringToValue(s string, declaredType string) (core.Value, error) {
	switch declaredType {
	case "numeric", "decimal":
		return core.NewDecimal(s), nil
	case "json", "jsonb":
		return core.NewJSON(s)
	case "uuid":
		return core.NewUUID(s), nil
	case "bytea":
		return core.NewBytes([]byte(s)), nil
	case "boolean":
		b, err := strconv.ParseBool(s)
		if err != nil {
			return core.Null, err
		}
		return core.NewBool(b), nil
	default:
		return core.NewText(s), nil
	}
}
