package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"difly/internal/core"
)

func TestToValueNilIsNull(t *testing.T) {
	v, err := toValue(nil, "integer")
	require.NoError(t, err)
	assert.True(t, v.IsNull())
}

func TestToValueIntegerStaysIntegerNeverBool(t *testing.T) {
	v, err := toValue(int64(1), "boolean")
	require.NoError(t, err)
	assert.Equal(t, core.KindInteger, v.Kind())
}

func TestToValueFloatDeclaredDecimalIsNormalizedToDecimalText(t *testing.T) {
	v, err := toValue(1.5, "decimal(10,2)")
	require.NoError(t, err)
	assert.Equal(t, core.KindDecimal, v.Kind())
	s, _ := v.AsText()
	assert.Equal(t, "1.5", s)
}

func TestToValueFloatDeclaredOtherwiseStaysFloat(t *testing.T) {
	v, err := toValue(1.5, "real")
	require.NoError(t, err)
	assert.Equal(t, core.KindFloat, v.Kind())
}

func TestToValueBlobBytesAsBytes(t *testing.T) {
	v, err := toValue([]byte{0x01, 0x02}, "blob")
	require.NoError(t, err)
	b, ok := v.AsBytes()
	require.True(t, ok)
	assert.Equal(t, []byte{0x01, 0x02}, b)
}

func TestToValueTextDeclaredJSONCanonicalizes(t *testing.T) {
	v, err := toValue(`{"b":1,"a":2}`, "json")
	require.NoError(t, err)
	assert.Equal(t, core.KindJSON, v.Kind())
}

func TestToValueTextDeclaredUUIDLowercased(t *testing.T) {
	v, err := toValue("ABCD", "uuid")
	require.NoError(t, err)
	s, _ := v.AsText()
	assert.Equal(t, "abcd", s)
}

func TestToValueTimestampDetectsOffsetFromSuffix(t *testing.T) {
	v, err := toValue("2024-03-15T10:00:00Z", "timestamp")
	require.NoError(t, err)
	assert.Equal(t, core.KindTimestamp, v.Kind())
	hasOffset, _ := v.TimestampOffset()
	assert.True(t, hasOffset)
}

func TestToValueDefaultIsText(t *testing.T) {
	v, err := toValue("hello", "varchar(255)")
	require.NoError(t, err)
	assert.Equal(t, core.KindText, v.Kind())
}
