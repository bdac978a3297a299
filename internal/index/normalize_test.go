package index

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"difly/internal/core"
)

func TestNormalizePairPromotesIntegerToDecimalWhenOtherSideIsDecimal(t *testing.T) {
	a := core.NewDecimal("100")
	b := core.NewInteger(100)

	na, nb := NormalizePair(a, b)
	assert.Equal(t, core.KindDecimal, na.Kind())
	assert.Equal(t, core.KindDecimal, nb.Kind())
	assert.True(t, na.Equals(nb))
}

func TestNormalizePairIsSymmetric(t *testing.T) {
	a := core.NewInteger(100)
	b := core.NewDecimal("100")

	na, nb := NormalizePair(a, b)
	assert.True(t, na.Equals(nb))
}

func TestNormalizePairLeavesOtherKindsUntouched(t *testing.T) {
	a := core.NewText("100")
	b := core.NewInteger(100)

	na, nb := NormalizePair(a, b)
	assert.Equal(t, a, na)
	assert.Equal(t, b, nb)
	assert.False(t, na.Equals(nb))
}

func TestNormalizePairHandlesNegativeIntegers(t *testing.T) {
	a := core.NewDecimal("-42")
	b := core.NewInteger(-42)

	na, nb := NormalizePair(a, b)
	assert.True(t, na.Equals(nb))
}

func TestDialectQuirksReturnsDocumentedTable(t *testing.T) {
	quirks := DialectQuirks()
	assert.NotEmpty(t, quirks)
}
