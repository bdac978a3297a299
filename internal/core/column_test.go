package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColumnsIndexOf(t *testing.T) {
	cols := Columns{
		{Name: "id", Ordinal: 1},
		{Name: "email", Ordinal: 2},
	}
	assert.Equal(t, 0, cols.IndexOf("id"))
	assert.Equal(t, 1, cols.IndexOf("email"))
	assert.Equal(t, -1, cols.IndexOf("missing"))
}

func TestColumnsNames(t *testing.T) {
	cols := Columns{{Name: "id"}, {Name: "email"}}
	assert.Equal(t, []string{"id", "email"}, cols.Names())
}

func TestColumnsIntersectSplitsCommonAndPhantom(t *testing.T) {
	a := Columns{{Name: "id"}, {Name: "email"}, {Name: "legacy_flag"}}
	b := Columns{{Name: "id"}, {Name: "email"}, {Name: "new_col"}}

	common, onlyA, onlyB := a.Intersect(b)
	assert.Equal(t, []string{"id", "email"}, common)
	assert.Equal(t, []string{"legacy_flag"}, onlyA)
	assert.Equal(t, []string{"new_col"}, onlyB)
}

func TestColumnsIntersectIdenticalSchemasHaveNoPhantoms(t *testing.T) {
	a := Columns{{Name: "id"}, {Name: "email"}}
	b := Columns{{Name: "id"}, {Name: "email"}}

	common, onlyA, onlyB := a.Intersect(b)
	assert.Equal(t, []string{"id", "email"}, common)
	assert.Empty(t, onlyA)
	assert.Empty(t, onlyB)
}
