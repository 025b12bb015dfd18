// Package surface implements the per-session surface registry: allocation,
// lookup, and deletion of rectangular pixel-buffer descriptions, with the
// byte and count caps this protocol layers on top of the reference
// implementation (which enforces none of them).
package surface

import (
	"github.com/pgsdf/drawfs/internal/constants"
	"github.com/pgsdf/drawfs/internal/memobj"
)

// Surface is one session-scoped rectangular pixel buffer description.
type Surface struct {
	ID       uint32
	WidthPx  uint32
	HeightPx uint32
	Format   constants.PixelFormat
	Stride   uint32
	Total    uint32

	// obj is nil until the surface is first selected and mapped; once
	// allocated it is independent of this record's own lifetime (it may
	// outlive the surface if a mapping is still active).
	obj *memobj.Object
}

// ReleaseOwnerRef releases the reference this surface record itself holds
// on its memory object, if one was ever allocated (i.e. the surface was
// mapped at least once). Called from SURFACE_DESTROY; the object persists
// if any mapping still holds a reference of its own.
func (s *Surface) ReleaseOwnerRef() bool {
	if s.obj == nil {
		return false
	}
	s.obj.Unref()
	return true
}

// EnsureObject returns the surface's backing memory object, lazily
// allocating it on first call. On allocation the surface record takes its
// own reference (released by ReleaseOwnerRef); every call then adds one
// more reference for the new active mapping.
func (s *Surface) EnsureObject(alloc memobj.Allocator) (*memobj.Object, error) {
	if s.obj == nil {
		obj, err := alloc.Allocate(int64(s.Total))
		if err != nil {
			return nil, err
		}
		obj.Ref()
		s.obj = obj
	}
	s.obj.Ref()
	return s.obj, nil
}

// Registry owns the set of live surfaces for one session. Callers must
// hold the owning session's lock around every method; Registry itself
// does no locking of its own so the caller can batch registry mutations
// with other session-state changes under a single critical section.
type Registry struct {
	surfaces  map[uint32]*Surface
	nextID    uint32
	liveBytes int64
}

// NewRegistry returns an empty registry with surface id allocation
// starting at 1 (id 0 is reserved).
func NewRegistry() *Registry {
	return &Registry{
		surfaces: make(map[uint32]*Surface),
		nextID:   1,
	}
}

// Create validates and allocates a new surface record. The returned
// ErrCode is constants.ErrOK on success.
func (r *Registry) Create(width, height uint32, format constants.PixelFormat) (*Surface, constants.ErrCode) {
	if width == 0 || height == 0 {
		return nil, constants.ErrInvalidArg
	}
	if format != constants.PixelFormatXRGB8888 {
		return nil, constants.ErrUnsupportedCap
	}
	if len(r.surfaces) >= constants.MaxSurfaces {
		return nil, constants.ErrNoMemory
	}

	stride := width * 4
	total := uint64(stride) * uint64(height)
	if total == 0 || total > constants.MaxSurfaceBytes {
		return nil, constants.ErrInvalidArg
	}
	if r.liveBytes+int64(total) > constants.MaxSessionSurfaceBytes {
		return nil, constants.ErrNoMemory
	}

	s := &Surface{
		ID:       r.nextID,
		WidthPx:  width,
		HeightPx: height,
		Format:   format,
		Stride:   stride,
		Total:    uint32(total),
	}
	r.nextID++
	r.surfaces[s.ID] = s
	r.liveBytes += int64(total)
	return s, constants.ErrOK
}

// Get looks up a live surface by id.
func (r *Registry) Get(id uint32) (*Surface, bool) {
	s, ok := r.surfaces[id]
	return s, ok
}

// Destroy removes a surface from the registry. It does not touch the
// surface's memory object reference count: the caller (the session,
// which knows whether this id is the current map selection) is
// responsible for releasing its own reference to obj, if any. This keeps
// the registry's bookkeeping lock independent of unmap, per design.
func (r *Registry) Destroy(id uint32) (*Surface, constants.ErrCode) {
	s, ok := r.surfaces[id]
	if !ok {
		return nil, constants.ErrNotFound
	}
	delete(r.surfaces, id)
	r.liveBytes -= int64(s.Total)
	return s, constants.ErrOK
}

// Count returns the number of live surfaces.
func (r *Registry) Count() int { return len(r.surfaces) }

// LiveBytes returns the sum of live surfaces' total byte size.
func (r *Registry) LiveBytes() int64 { return r.liveBytes }
