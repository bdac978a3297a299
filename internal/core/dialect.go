// Package core contains the dialect-neutral data model the diff engine
// operates on: SQL cell values, columns, rows, primary keys, and the
// dialect identifiers used to render literals and quote identifiers.
package core

import "fmt"

// Dialect identifies one of the four SQL engines difly speaks to.
type Dialect string

const (
	DialectPostgreSQL Dialect = "postgres"
	DialectMySQL      Dialect = "mysql"
	DialectMariaDB    Dialect = "mariadb"
	DialectSQLite     Dialect = "sqlite"
)

// SupportedDialects returns every dialect difly can drive.
func SupportedDialects() []Dialect {
	return []Dialect{DialectPostgreSQL, DialectMySQL, DialectMariaDB, DialectSQLite}
}

// ValidDialect reports whether d names a recognized dialect.
func ValidDialect(d string) bool {
	for _, supported := range SupportedDialects() {
		if string(supported) == d {
			return true
		}
	}
	return false
}

// ParseDialect validates and converts a raw driver string into a Dialect.
func ParseDialect(d string) (Dialect, error) {
	if !ValidDialect(d) {
		return "", fmt.Errorf("unsupported dialect %q; supported dialects: %v", d, SupportedDialects())
	}
	return Dialect(d), nil
}

// IsMySQLFamily reports whether the dialect shares MySQL's quoting, literal,
// and transaction-statement rules (MySQL and MariaDB do; TiDB would too, but
// difly does not target it).
func (d Dialect) IsMySQLFamily() bool {
	return d == DialectMySQL || d == DialectMariaDB
}

// SchemaQualified reports whether identifiers in this dialect are qualified
// with a schema/database prefix. SQLite ignores schema entirely: source and
// target are distinct files, not namespaces within one server.
func (d Dialect) SchemaQualified() bool {
	return d != DialectSQLite
}
