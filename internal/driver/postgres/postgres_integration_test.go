package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"difly/internal/core"
	"difly/internal/driver"
)

// TestPostgresDriverIntegration exercises Connect/ListColumns/FetchRows
// against a real PostgreSQL server, grounded on the teacher's testcontainers
// setup style in internal/apply/apply_connector_test.go, adapted to the
// postgres module instead of mysql.
func TestPostgresDriverIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("difly_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("testpass"),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	setup, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = setup.Close() })

	_, err = setup.ExecContext(ctx, `CREATE TABLE widgets (
		id INT PRIMARY KEY,
		name TEXT NOT NULL,
		price NUMERIC(10,2)
	)`)
	require.NoError(t, err)
	_, err = setup.ExecContext(ctx, `INSERT INTO widgets (id, name, price) VALUES (1, 'bolt', 1.50), (2, 'nut', 0.25)`)
	require.NoError(t, err)

	d := New()
	ep := driver.Endpoint{
		Driver: core.DialectPostgreSQL, Host: host, Port: port.Int(),
		Database: "difly_test", User: "postgres", Password: "testpass",
		Schema: "public",
	}

	handle, err := d.Connect(ctx, ep, 10*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = handle.Close() })

	cols, err := d.ListColumns(ctx, handle, "public", "widgets")
	require.NoError(t, err)
	require.Len(t, cols, 3)
	assert.Equal(t, "id", cols[0].Name)

	iter, err := d.FetchRows(ctx, handle, "public", "widgets", cols)
	require.NoError(t, err)
	defer iter.Close()

	var rows []core.Row
	for iter.Next() {
		row, err := iter.Row()
		require.NoError(t, err)
		rows = append(rows, row)
	}
	require.NoError(t, iter.Close())
	assert.Len(t, rows, 2)
}
