// Package driver defines the dialect-abstracted data-access contract the
// diff engine fetches primary-key metadata and row contents through, plus a
// dialect-keyed registry so concrete drivers (postgres, mysql, mariadb,
// sqlite) can register themselves by import side effect, mirroring the
// teacher's introspecter registry.
package driver

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"sync"
	"time"

	"difly/internal/core"
	"difly/internal/errs"
)

// Endpoint describes one side (source or target) of a diff run.
type Endpoint struct {
	Driver   core.Dialect
	Host     string
	Port     int
	Database string
	User     string
	Password string
	Schema   string // ignored for SQLite; Database holds the file path there.
}

// Redacted returns a copy of ep with Password cleared, for inclusion in the
// changeset's source/target descriptors.
func (ep Endpoint) Redacted() Endpoint {
	ep.Password = ""
	return ep
}

// dsnURL percent-encodes the user, password, and database components and
// assembles a URL-form connection string for scheme. The concrete drivers
// build their own connection strings (postgres.buildDSN, mysql.buildDSN,
// and the SQLite file path) rather than calling this helper.
func (ep Endpoint) dsnURL(scheme string) string {
	u := &url.URL{
		Scheme: scheme,
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
	return u.String()
}

// Handle is a live connection to one endpoint. Mutex is non-nil for
// dialects that cannot safely multiplex queries over one connection (a
// deliberate correctness-over-throughput trade per the concurrency model);
// callers must acquire it before issuing a query when it is set.
type Handle struct {
	DB      *sql.DB
	Dialect core.Dialect
	Mutex   *sync.Mutex
}

// Close releases the handle's connection. Safe to call once per Connect.
func (h *Handle) Close() error {
	if h == nil || h.DB == nil {
		return nil
	}
	return h.DB.Close()
}

// NewHandle is used by concrete drivers to construct a Handle, keeping
// scoped-acquisition-with-guaranteed-release a property every driver shares.
func NewHandle(db *sql.DB, dialect core.Dialect, mutex *sync.Mutex) *Handle {
	return &Handle{DB: db, Dialect: dialect, Mutex: mutex}
}

// RowIterator streams a table's rows. Implementations wrap *sql.Rows;
// ordering is not guaranteed (the row indexer sorts by PK).
type RowIterator interface {
	Next() bool
	Row() (core.Row, error)
	Close() error
}

// Driver is the capability set every dialect implementation provides.
type Driver interface {
	Dialect() core.Dialect
	// Connect acquires a handle to ep, honoring timeout; it fails with
	// errs.Connect on I/O or auth failure.
	Connect(ctx context.Context, ep Endpoint, timeout time.Duration) (*Handle, error)
	// ListColumns returns the table's columns ordered by catalog ordinal
	// position; it fails with errs.SchemaIntrospect if the table is absent.
	ListColumns(ctx context.Context, h *Handle, schema, table string) (core.Columns, error)
	// FetchRows returns every row of the table; it fails with errs.Fetch on
	// query error. For SQLite, schema is ignored.
	FetchRows(ctx context.Context, h *Handle, schema, table string, columns core.Columns) (RowIterator, error)
}

var (
	registryMu sync.RWMutex
	registry   = map[core.Dialect]func() Driver{}
)

// Register adds a constructor for dialect to the registry. Concrete driver
// packages call this from an init() func, the same pattern the teacher's
// introspect package uses for per-dialect registration.
func Register(dialect core.Dialect, ctor func() Driver) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[dialect] = ctor
}

// New constructs the registered Driver for dialect.
func New(dialect core.Dialect) (Driver, error) {
	registryMu.RLock()
	ctor, ok := registry[dialect]
	registryMu.RUnlock()
	if !ok {
		return nil, errs.New(errs.Config, "no driver registered for dialect %q; is the driver package imported for its side effect?", dialect)
	}
	return ctor(), nil
}

// WithLock runs fn while holding h's mutex, if it has one; otherwise it runs
// fn unsynchronized. The mysql and sqlite drivers use this around their
// queries; the postgres driver does not.
func WithLock(h *Handle, fn func() error) error {
	if h.Mutex == nil {
		return fn()
	}
	h.Mutex.Lock()
	defer h.Mutex.Unlock()
	return fn()
}
