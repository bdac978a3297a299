package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"difly/internal/core"
)

func ordersColumns() core.Columns {
	return core.Columns{
		{Name: "id", Ordinal: 1},
		{Name: "customer", Ordinal: 2},
	}
}

func TestBuildIndexesRowsByPrimaryKey(t *testing.T) {
	cols := ordersColumns()
	rows := []core.Row{
		{core.NewInteger(1), core.NewText("alice")},
		{core.NewInteger(2), core.NewText("bob")},
	}

	tbl, err := Build("orders", cols, core.PrimaryKey{"id"}, rows)
	require.NoError(t, err)
	assert.Len(t, tbl.Index, 2)

	pk, err := core.NewPkValue(cols, core.PrimaryKey{"id"}, rows[0])
	require.NoError(t, err)
	assert.Equal(t, rows[0], tbl.Index[pk])
}

func TestBuildRejectsPkNotAmongColumns(t *testing.T) {
	cols := ordersColumns()
	_, err := Build("orders", cols, core.PrimaryKey{"missing"}, []core.Row{
		{core.NewInteger(1), core.NewText("alice")},
	})
	assert.Error(t, err)
}

func TestBuildRejectsDuplicatePrimaryKey(t *testing.T) {
	cols := ordersColumns()
	rows := []core.Row{
		{core.NewInteger(1), core.NewText("alice")},
		{core.NewInteger(1), core.NewText("alice-dup")},
	}
	_, err := Build("orders", cols, core.PrimaryKey{"id"}, rows)
	assert.Error(t, err)
}

func TestBuildRejectsNullPrimaryKey(t *testing.T) {
	cols := ordersColumns()
	rows := []core.Row{{core.Null, core.NewText("alice")}}
	_, err := Build("orders", cols, core.PrimaryKey{"id"}, rows)
	assert.Error(t, err)
}

func TestAlignSchemasFindsCommonAndPhantomColumns(t *testing.T) {
	a := core.Columns{{Name: "id"}, {Name: "email"}, {Name: "legacy"}}
	b := core.Columns{{Name: "id"}, {Name: "email"}, {Name: "new_col"}}

	align := AlignSchemas(a, b)
	assert.Equal(t, []string{"id", "email"}, align.Common)
	assert.Equal(t, []string{"legacy"}, align.OnlyA)
	assert.Equal(t, []string{"new_col"}, align.OnlyB)
	assert.True(t, align.HasMismatch())
}

func TestAlignSchemasNoMismatchWhenIdentical(t *testing.T) {
	a := core.Columns{{Name: "id"}, {Name: "email"}}
	b := core.Columns{{Name: "id"}, {Name: "email"}}

	align := AlignSchemas(a, b)
	assert.False(t, align.HasMismatch())
	assert.Empty(t, align.Warning("orders"))
}

func TestSchemaAlignmentWarningNamesTableAndPhantomColumns(t *testing.T) {
	align := AlignSchemas(
		core.Columns{{Name: "id"}, {Name: "legacy"}},
		core.Columns{{Name: "id"}, {Name: "new_col"}},
	)
	warning := align.Warning("orders")
	assert.Contains(t, warning, "orders")
	assert.Contains(t, warning, "legacy")
	assert.Contains(t, warning, "new_col")
}
