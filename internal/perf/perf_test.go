package perf

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackRecordsPhaseAndPropagatesError(t *testing.T) {
	r := NewReport()
	boom := errors.New("boom")

	err := r.Track("fetch:orders", func() error { return boom })
	require.ErrorIs(t, err, boom)

	snap := r.Finish()
	require.Len(t, snap.Phases, 1)
	assert.Equal(t, "fetch:orders", snap.Phases[0].Name)
}

func TestAddRowsAndBytesAccumulate(t *testing.T) {
	r := NewReport()
	r.AddRows(10)
	r.AddRows(5)
	r.AddBytes(100)

	snap := r.Finish()
	assert.Equal(t, int64(15), snap.RowsRead)
	assert.Equal(t, int64(100), snap.BytesRead)
}

func TestFinishSortsPhasesByName(t *testing.T) {
	r := NewReport()
	_ = r.Track("diff:z", func() error { return nil })
	_ = r.Track("diff:a", func() error { return nil })

	snap := r.Finish()
	require.Len(t, snap.Phases, 2)
	assert.Equal(t, "diff:a", snap.Phases[0].Name)
	assert.Equal(t, "diff:z", snap.Phases[1].Name)
}
