// Package sqlite implements driver.Driver for SQLite using modernc.org/sqlite,
// a pure-Go driver (no cgo), the way the sqldef example repo drives SQLite.
// Per the specification, schema is ignored for SQLite — source and target
// are distinct database files rather than namespaces on one server — and
// queries are serialized through a per-endpoint mutex, since SQLite permits
// only one writer (and, practically, one busy connection) at a time.
package sqlite

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"difly/internal/core"
	"difly/internal/driver"
	"difly/internal/errs"
)

func init() {
	driver.Register(core.DialectSQLite, New)
}

type sqliteDriver struct{}

// New constructs the SQLite driver.Driver implementation.
func New() driver.Driver { return &sqliteDriver{} }

func (sqliteDriver) Dialect() core.Dialect { return core.DialectSQLite }

func (sqliteDriver) Connect(ctx context.Context, ep driver.Endpoint, timeout time.Duration) (*driver.Handle, error) {
	db, err := sql.Open("sqlite", ep.Database)
	if err != nil {
		return nil, errs.New(errs.Connect, "sqlite: open %s: %w", ep.Database, err)
	}
	db.SetMaxOpenConns(1)

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(cctx); err != nil {
		_ = db.Close()
		return nil, errs.New(errs.Connect, "sqlite: open %s: %w", ep.Database, err)
	}
	return driver.NewHandle(db, core.DialectSQLite, &sync.Mutex{}), nil
}

func (sqliteDriver) ListColumns(ctx context.Context, h *driver.Handle, schema, table string) (core.Columns, error) {
	var cols core.Columns
	err := driver.WithLock(h, func() error {
		rows, err := h.DB.QueryContext(ctx, "PRAGMA table_info("+quoteIdent(table)+")")
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var cid int
			var name, colType string
			var notNull int
			var dfltValue any
			var pk int
			if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
				return err
			}
			cols = append(cols, core.Column{
				Name:         name,
				Ordinal:      cid + 1,
				DeclaredType: colType,
				Nullable:     notNull == 0,
			})
		}
		return rows.Err()
	})
	if err != nil {
		return nil, errs.New(errs.SchemaIntrospect, "sqlite: list columns %s: %w", table, err)
	}
	if len(cols) == 0 {
		return nil, errs.New(errs.SchemaIntrospect, "sqlite: table %s not found", table)
	}
	return cols, nil
}

func (sqliteDriver) FetchRows(ctx context.Context, h *driver.Handle, schema, table string, columns core.Columns) (driver.RowIterator, error) {
	q := "SELECT " + selectList(columns) + " FROM " + quoteIdent(table)

	var rows *sql.Rows
	err := driver.WithLock(h, func() error {
		var qerr error
		rows, qerr = h.DB.QueryContext(ctx, q)
		return qerr
	})
	if err != nil {
		return nil, errs.New(errs.Fetch, "sqlite: fetch rows from %s: %w", table, err)
	}
	return &rowIterator{rows: rows, columns: columns, mutex: h.Mutex}, nil
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

// quoteIdent quotes a SQLite identifier with double quotes, per spec
// identical to PostgreSQL's rule, doubling any embedded quote.
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
