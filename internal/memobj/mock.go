package memobj

import "fmt"

// TestAllocator is a plain heap-backed Allocator available on every
// platform, independent of the build-tagged default. Session tests use
// this instead of the real memfd-backed allocator so they never need
// elevated privileges or a Linux host.
type TestAllocator struct{}

func NewTestAllocator() Allocator { return TestAllocator{} }

func (TestAllocator) Allocate(size int64) (*Object, error) {
	if size <= 0 {
		return nil, fmt.Errorf("memobj: invalid size %d", size)
	}
	return &Object{buf: make([]byte, size), refs: 0}, nil
}
