// Package mariadb exists as its own import path so callers can opt into
// MariaDB support explicitly (mirroring the per-dialect subpackage layout of
// internal/driver's sibling packages), but the implementation is the
// MySQL-family driver: MariaDB speaks the same wire protocol and exposes
// the same information_schema views as MySQL, exactly as the teacher's
// internal/introspect/mysql registers one introspecter for both dialects.
package mariadb

import (
	_ "difly/internal/driver/mysql"
)
