// Package memobj models the host's page-backed buffer-object allocator as
// an abstract factory producing a refcounted, swap-backed anonymous memory
// object of a requested byte length. The real kernel-level allocator is an
// out-of-scope collaborator; this package gives it a concrete, testable
// shape: one reference per owner (the surface record, each active mapping),
// released independently of the surface's own lifetime.
package memobj

import "sync/atomic"

// Object is a refcounted block of swap-backed anonymous memory. The
// surface record holds one reference from the object's allocation (on the
// surface's first mapping) until SURFACE_DESTROY; every active mapping
// holds one more. The backing storage is freed only
// once every reference has been released, which may outlive the surface
// record itself.
type Object struct {
	buf  []byte
	refs int32
	free func()
}

// Bytes returns the object's backing storage. Callers must not retain the
// slice past their own Unref call.
func (o *Object) Bytes() []byte { return o.buf }

// Size returns the object's length in bytes.
func (o *Object) Size() int64 { return int64(len(o.buf)) }

// Ref increments the reference count. Call once per new owner (a mapping).
func (o *Object) Ref() {
	atomic.AddInt32(&o.refs, 1)
}

// Unref decrements the reference count, releasing the backing storage when
// it reaches zero. Returns the count after the decrement.
func (o *Object) Unref() int32 {
	n := atomic.AddInt32(&o.refs, -1)
	if n == 0 && o.free != nil {
		o.free()
	}
	return n
}

// RefCount returns the current reference count, for tests and stats.
func (o *Object) RefCount() int32 {
	return atomic.LoadInt32(&o.refs)
}

// Allocator produces Objects on demand. Allocate is called lazily, on the
// first successful mapping of a surface, not at surface-create time.
type Allocator interface {
	Allocate(size int64) (*Object, error)
}
