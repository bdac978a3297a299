package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func customerColumns() Columns {
	return Columns{
		{Name: "id", Ordinal: 1},
		{Name: "region", Ordinal: 2},
		{Name: "email", Ordinal: 3},
	}
}

func TestNewPkValueProjectsSingleColumn(t *testing.T) {
	cols := customerColumns()
	row := Row{NewInteger(7), NewText("eu"), NewText("a@b.com")}

	pk, err := NewPkValue(cols, PrimaryKey{"id"}, row)
	require.NoError(t, err)
	assert.Equal(t, []Value{NewInteger(7)}, pk.Values())
}

func TestNewPkValueProjectsCompositeKeyInDeclaredOrder(t *testing.T) {
	cols := customerColumns()
	row := Row{NewInteger(7), NewText("eu"), NewText("a@b.com")}

	pk, err := NewPkValue(cols, PrimaryKey{"region", "id"}, row)
	require.NoError(t, err)
	assert.Equal(t, []Value{NewText("eu"), NewInteger(7)}, pk.Values())
}

func TestNewPkValueRejectsEmptyKey(t *testing.T) {
	_, err := NewPkValue(customerColumns(), PrimaryKey{}, Row{NewInteger(1)})
	assert.Error(t, err)
}

func TestNewPkValueRejectsTooManyColumns(t *testing.T) {
	cols := Columns{{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "d"}, {Name: "e"}}
	row := Row{NewInteger(1), NewInteger(2), NewInteger(3), NewInteger(4), NewInteger(5)}

	_, err := NewPkValue(cols, PrimaryKey{"a", "b", "c", "d", "e"}, row)
	assert.Error(t, err)
}

func TestNewPkValueRejectsUnknownColumn(t *testing.T) {
	_, err := NewPkValue(customerColumns(), PrimaryKey{"missing"}, Row{NewInteger(1), NewText(""), NewText("")})
	assert.Error(t, err)
}

func TestNewPkValueRejectsNullPkColumn(t *testing.T) {
	cols := customerColumns()
	row := Row{Null, NewText("eu"), NewText("a@b.com")}

	_, err := NewPkValue(cols, PrimaryKey{"id"}, row)
	assert.Error(t, err)
}

func TestPkValueCompareOrdersLexicallyByDeclaredColumns(t *testing.T) {
	cols := customerColumns()
	low, err := NewPkValue(cols, PrimaryKey{"region", "id"}, Row{NewInteger(1), NewText("eu"), NewText("")})
	require.NoError(t, err)
	high, err := NewPkValue(cols, PrimaryKey{"region", "id"}, Row{NewInteger(2), NewText("eu"), NewText("")})
	require.NoError(t, err)

	assert.Negative(t, low.Compare(high))
	assert.Positive(t, high.Compare(low))
	assert.Zero(t, low.Compare(low))
}

func TestPkValueIsUsableAsMapKey(t *testing.T) {
	cols := Columns{{Name: "id", Ordinal: 1}}
	pk1, err := NewPkValue(cols, PrimaryKey{"id"}, Row{NewInteger(1)})
	require.NoError(t, err)
	pk1Again, err := NewPkValue(cols, PrimaryKey{"id"}, Row{NewInteger(1)})
	require.NoError(t, err)
	pk2, err := NewPkValue(cols, PrimaryKey{"id"}, Row{NewInteger(2)})
	require.NoError(t, err)

	m := map[PkValue]string{pk1: "first"}
	m[pk2] = "second"

	assert.Equal(t, "first", m[pk1Again])
	assert.Equal(t, "second", m[pk2])
	assert.Len(t, m, 2)
}

func TestPkValueIsUsableAsMapKeyWithBytesColumn(t *testing.T) {
	cols := Columns{{Name: "id", Ordinal: 1}}
	pkA, err := NewPkValue(cols, PrimaryKey{"id"}, Row{NewBytes([]byte{1, 2, 3})})
	require.NoError(t, err)
	pkAAgain, err := NewPkValue(cols, PrimaryKey{"id"}, Row{NewBytes([]byte{1, 2, 3})})
	require.NoError(t, err)
	pkB, err := NewPkValue(cols, PrimaryKey{"id"}, Row{NewBytes([]byte{4, 5, 6})})
	require.NoError(t, err)

	m := map[PkValue]int{pkA: 1, pkB: 2}
	assert.Equal(t, 1, m[pkAAgain])
	assert.Len(t, m, 2)
}

func TestPrimaryKeyStringJoinsColumns(t *testing.T) {
	assert.Equal(t, "region,id", PrimaryKey{"region", "id"}.String())
}
