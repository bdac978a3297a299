// Package mysql implements driver.Driver for the MySQL wire protocol family.
// MySQL and MariaDB share the same client/server protocol and column
// metadata views, so one implementation registers for both dialects —
// mirroring the teacher's internal/introspect/mysql package, which
// registers a single introspecter for MySQL, MariaDB, and TiDB.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"

	"difly/internal/core"
	"difly/internal/driver"
	"difly/internal/errs"
)

func init() {
	driver.Register(core.DialectMySQL, func() driver.Driver { return &mysqlFamilyDriver{dialect: core.DialectMySQL} })
	driver.Register(core.DialectMariaDB, func() driver.Driver { return &mysqlFamilyDriver{dialect: core.DialectMariaDB} })
}

type mysqlFamilyDriver struct {
	dialect core.Dialect
}

func (d *mysqlFamilyDriver) Dialect() core.Dialect { return d.dialect }

func (d *mysqlFamilyDriver) Connect(ctx context.Context, ep driver.Endpoint, timeout time.Duration) (*driver.Handle, error) {
	dsn, err := buildDSN(ep)
	if err != nil {
		return nil, errs.New(errs.Config, "mysql: build dsn: %w", err)
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, errs.New(errs.Connect, "mysql: open %s@%s: %w", ep.User, ep.Host, err)
	}

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(cctx); err != nil {
		_ = db.Close()
		return nil, errs.New(errs.Connect, "mysql: ping %s@%s: %w", ep.User, ep.Host, err)
	}
	return driver.NewHandle(db, d.dialect, nil), nil
}

// buildDSN uses the go-sql-driver/mysql Config type so user/password are
// escaped exactly the way the driver itself expects (its DSN format is not
// a generic URL; percent-encoding happens via Config.FormatDSN).
func buildDSN(ep driver.Endpoint) (string, error) {
	cfg := mysqldriver.NewConfig()
	cfg.User = ep.User
	cfg.Passwd = ep.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", ep.Host, ep.Port)
	cfg.DBName = url.PathEscape(ep.Database)
	cfg.ParseTime = false
	return cfg.FormatDSN(), nil
}

func (d *mysqlFamilyDriver) ListColumns(ctx context.Context, h *driver.Handle, schema, table string) (core.Columns, error) {
	if schema == "" {
		return nil, errs.New(errs.Config, "mysql: schema (database) is required")
	}
	const q = `
		SELECT column_name, ordinal_position, column_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position`

	var cols core.Columns
	err := driver.WithLock(h, func() error {
		rows, err := h.DB.QueryContext(ctx, q, schema, table)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var name, colType, nullable string
			var ordinal int
			if err := rows.Scan(&name, &ordinal, &colType, &nullable); err != nil {
				return err
			}
			cols = append(cols, core.Column{
				Name:         name,
				Ordinal:      ordinal,
				DeclaredType: colType,
				Nullable:     nullable == "YES",
			})
		}
		return rows.Err()
	})
	if err != nil {
		return nil, errs.New(errs.SchemaIntrospect, "mysql: list columns %s.%s: %w", schema, table, err)
	}
	if len(cols) == 0 {
		return nil, errs.New(errs.SchemaIntrospect, "mysql: table %s.%s not found", schema, table)
	}
	return cols, nil
}

func (d *mysqlFamilyDriver) FetchRows(ctx context.Context, h *driver.Handle, schema, table string, columns core.Columns) (driver.RowIterator, error) {
	quoted := quoteIdent(schema) + "." + quoteIdent(table)
	q := "SELECT " + selectList(columns) + " FROM " + quoted

	var rows *sql.Rows
	err := driver.WithLock(h, func() error {
		var qerr error
		rows, qerr = h.DB.QueryContext(ctx, q)
		return qerr
	})
	if err != nil {
		return nil, errs.New(errs.Fetch, "mysql: fetch rows from %s: %w", quoted, err)
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

// quoteIdent quotes a MySQL/MariaDB identifier with backticks, doubling any
// embedded backtick.
func quoteIdent(name string) string {
	out := "`"
	for _, r := range name {
		if r == '`' {
			out += "``"
			continue
		}
		out += string(r)
	}
	return out + "`"
}
