// Package postgres implements the driver.Driver contract for PostgreSQL
// using lib/pq, grounded on xataio-pgroll's pkg/db connection-wrapping
// style (plain *sql.DB, context-aware calls, no ORM).
package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"

	"difly/internal/core"
	"difly/internal/driver"
	"difly/internal/errs"
)

func init() {
	driver.Register(core.DialectPostgreSQL, New)
}

type pgDriver struct{}

// New constructs the PostgreSQL driver.Driver implementation.
func New() driver.Driver { return &pgDriver{} }

func (pgDriver) Dialect() core.Dialect { return core.DialectPostgreSQL }

func (pgDriver) Connect(ctx context.Context, ep driver.Endpoint, timeout time.Duration) (*driver.Handle, error) {
	dsn := dsn(ep)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errs.New(errs.Connect, "postgres: open %s@%s: %w", ep.User, ep.Host, err)
	}

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(cctx); err != nil {
		_ = db.Close()
		return nil, errs.New(errs.Connect, "postgres: ping %s@%s: %w", ep.User, ep.Host, err)
	}
	return driver.NewHandle(db, core.DialectPostgreSQL, nil), nil
}

// dsn builds a libpq URL-form connection string with percent-encoded user,
// password and database components, as PostgreSQL's URI connection format
// requires.
func dsn(ep driver.Endpoint) string {
	return buildDSN(ep)
}

func (pgDriver) ListColumns(ctx context.Context, h *driver.Handle, schema, table string) (core.Columns, error) {
	if schema == "" {
		schema = "public"
	}
	const q = `
		SELECT column_name, ordinal_position, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`

	rows, err := h.DB.QueryContext(ctx, q, schema, table)
	if err != nil {
		return nil, errs.New(errs.SchemaIntrospect, "postgres: list columns %s.%s: %w", schema, table, err)
	}
	defer rows.Close()

	var cols core.Columns
	for rows.Next() {
		var name, dataType, nullable string
		var ordinal int
		if err := rows.Scan(&name, &ordinal, &dataType, &nullable); err != nil {
			return nil, errs.New(errs.SchemaIntrospect, "postgres: scan column metadata: %w", err)
		}
		cols = append(cols, core.Column{
			Name:         name,
			Ordinal:      ordinal,
			DeclaredType: dataType,
			Nullable:     nullable == "YES",
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errs.New(errs.SchemaIntrospect, "postgres: iterate column metadata: %w", err)
	}
	if len(cols) == 0 {
		return nil, errs.New(errs.SchemaIntrospect, "postgres: table %s.%s not found", schema, table)
	}
	return cols, nil
}

func (pgDriver) FetchRows(ctx context.Context, h *driver.Handle, schema, table string, columns core.Columns) (driver.RowIterator, error) {
	quoted := quoteIdent(schema) + "." + quoteIdent(table)
	if schema == "" {
		quoted = quoteIdent(table)
	}
	q := "SELECT " + selectList(columns) + " FROM " + quoted
	rows, err := h.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, errs.New(errs.Fetch, "postgres: fetch rows from %s: %w", quoted, err)
	}
	return &rowIterator{rows: rows, columns: columns}, nil
}

func selectList(columns core.Columns) string {
	s := ""
	for i, c := range columns {
		if i > 0 {
			s += ", "
		}
		s += quoteIdent(c.Name)
	}
	return s
}

func quoteIdent(name string) string {
	out := "\""
	for _, r := range name {
		if r == '"' {
			out += "\"\""
			continue
		}
		out += string(r)
	}
	return out + "\""
}
