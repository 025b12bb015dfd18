package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pgsdf/drawfs/internal/constants"
)

func TestAccumulatorAppendWithinLimitGrows(t *testing.T) {
	a := NewAccumulator()
	require.True(t, a.Append([]byte{1, 2, 3, 4}))
	require.Equal(t, 4, a.Len())
	require.True(t, a.Append([]byte{5, 6}))
	require.Equal(t, 6, a.Len())
}

func TestAccumulatorAppendOverflowResetsBuffer(t *testing.T) {
	a := NewAccumulator()
	require.True(t, a.Append([]byte{1, 2, 3, 4}))
	require.Equal(t, 4, a.Len())

	oversized := make([]byte, constants.MaxFrameBytes)
	require.False(t, a.Append(oversized))
	require.Equal(t, 0, a.Len(), "overflow must discard the previously buffered bytes too, matching drawfs_ingest_bytes's in_len = 0 reset")

	require.True(t, a.Append([]byte{9, 9}))
	require.Equal(t, 2, a.Len())
}
