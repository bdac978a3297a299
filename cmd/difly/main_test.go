package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"difly/internal/changeset"
	"difly/internal/core"
	"difly/internal/errs"
	"difly/internal/snapshot"
)

func TestExitCodeForConflictError(t *testing.T) {
	assert.Equal(t, 4, exitCodeFor(&conflictError{}))
}

func TestExitCodeForKindedError(t *testing.T) {
	assert.Equal(t, 1, exitCodeFor(errs.New(errs.Config, "bad config")))
	assert.Equal(t, 2, exitCodeFor(errs.New(errs.DataIntegrity, "dup pk")))
	assert.Equal(t, 5, exitCodeFor(errs.New(errs.Cancelled, "timed out")))
}

func TestExitCodeForUnkindedErrorDefaultsToOne(t *testing.T) {
	assert.Equal(t, 1, exitCodeFor(assert.AnError))
}

func TestWriteChangesetWritesOneFilePerFormat(t *testing.T) {
	dir := t.TempDir()
	cs := &changeset.Changeset{Source: changeset.Descriptor{Dialect: core.DialectPostgreSQL}}

	require.NoError(t, writeChangeset(cs, dir, []string{"json", "sql", "summary"}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var exts []string
	for _, e := range entries {
		exts = append(exts, filepath.Ext(e.Name()))
	}
	assert.Contains(t, exts, ".json")
	assert.Contains(t, exts, ".sql")
	assert.Contains(t, exts, ".summary")
}

func TestWriteAndReadSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	snap := snapshot.Snapshot{
		Version: snapshot.CurrentVersion,
		Dialect: core.DialectSQLite,
		Tables: []snapshot.TableSnapshot{
			{
				TableName: "items",
				PKColumns: core.PrimaryKey{"id"},
				Columns:   core.Columns{{Name: "id", Ordinal: 1, DeclaredType: "integer"}},
				Rows:      []core.Row{{core.NewInteger(1)}},
			},
		},
	}

	require.NoError(t, writeSnapshot(snap, dir))
	assert.FileExists(t, filepath.Join(dir, "snapshot.json"))
	assert.FileExists(t, filepath.Join(dir, "items.rows.json"))

	loaded, err := readSnapshot(dir)
	require.NoError(t, err)
	require.Len(t, loaded.Tables, 1)
	assert.Equal(t, "items", loaded.Tables[0].TableName)
}
