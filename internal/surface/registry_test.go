package surface

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pgsdf/drawfs/internal/constants"
	"github.com/pgsdf/drawfs/internal/memobj"
)

func TestCreate_AllocatesStrictlyIncreasingIDs(t *testing.T) {
	r := NewRegistry()

	s1, code := r.Create(4, 2, constants.PixelFormatXRGB8888)
	require.Equal(t, constants.ErrOK, code)
	require.Equal(t, uint32(1), s1.ID)
	require.Equal(t, uint32(16), s1.Stride)
	require.Equal(t, uint32(32), s1.Total)

	s2, code := r.Create(4, 2, constants.PixelFormatXRGB8888)
	require.Equal(t, constants.ErrOK, code)
	require.Equal(t, uint32(2), s2.ID)
}

func TestCreate_RejectsZeroDimensions(t *testing.T) {
	r := NewRegistry()
	_, code := r.Create(0, 2, constants.PixelFormatXRGB8888)
	require.Equal(t, constants.ErrInvalidArg, code)
}

func TestCreate_RejectsUnsupportedFormat(t *testing.T) {
	r := NewRegistry()
	_, code := r.Create(4, 2, constants.PixelFormat(99))
	require.Equal(t, constants.ErrUnsupportedCap, code)
}

func TestCreate_CapsAt64Surfaces(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < constants.MaxSurfaces; i++ {
		_, code := r.Create(1, 1, constants.PixelFormatXRGB8888)
		require.Equal(t, constants.ErrOK, code)
	}
	_, code := r.Create(1, 1, constants.PixelFormatXRGB8888)
	require.Equal(t, constants.ErrNoMemory, code)
	require.Equal(t, constants.MaxSurfaces, r.Count())
}

func TestCreate_RejectsOversizedSurface(t *testing.T) {
	r := NewRegistry()
	// width*4*height must exceed 64MiB.
	_, code := r.Create(1<<16, 1<<10, constants.PixelFormatXRGB8888)
	require.Equal(t, constants.ErrInvalidArg, code)
}

func TestCreate_RejectsOverSessionBudget(t *testing.T) {
	r := NewRegistry()
	// width=4096 -> stride=16384; height=4096 -> total=16384*4096=64MiB exactly,
	// the per-surface cap. Four of these exactly fill the 256MiB session cap.
	const width, height = 4096, 4096
	for i := 0; i < 4; i++ {
		s, code := r.Create(width, height, constants.PixelFormatXRGB8888)
		require.Equal(t, constants.ErrOK, code)
		require.Equal(t, uint32(64<<20), s.Total)
	}
	require.Equal(t, int64(256<<20), r.LiveBytes())

	_, code := r.Create(width, height, constants.PixelFormatXRGB8888)
	require.Equal(t, constants.ErrNoMemory, code)
}

func TestDestroy_RemovesAndFreesBudget(t *testing.T) {
	r := NewRegistry()
	s, _ := r.Create(4, 2, constants.PixelFormatXRGB8888)
	require.Equal(t, int64(32), r.LiveBytes())

	got, code := r.Destroy(s.ID)
	require.Equal(t, constants.ErrOK, code)
	require.Equal(t, s.ID, got.ID)
	require.Equal(t, int64(0), r.LiveBytes())

	_, code = r.Destroy(s.ID)
	require.Equal(t, constants.ErrNotFound, code)
}

func TestEnsureObject_LazyAllocAndRefcount(t *testing.T) {
	r := NewRegistry()
	s, _ := r.Create(4, 2, constants.PixelFormatXRGB8888)

	alloc := memobj.NewTestAllocator()
	obj1, err := s.EnsureObject(alloc)
	require.NoError(t, err)
	require.Equal(t, int32(2), obj1.RefCount())

	obj2, err := s.EnsureObject(alloc)
	require.NoError(t, err)
	require.Same(t, obj1, obj2)
	require.Equal(t, int32(3), obj1.RefCount())
}
