//go:build !linux

package memobj

import "fmt"

// StubAllocator backs each Object with a plain heap allocation. It is the
// platform allocator on non-Linux builds; tests use TestAllocator instead.
type StubAllocator struct{}

// NewAllocator returns the platform allocator for this build.
func NewAllocator() Allocator {
	return StubAllocator{}
}

func (StubAllocator) Allocate(size int64) (*Object, error) {
	if size <= 0 {
		return nil, fmt.Errorf("memobj: invalid size %d", size)
	}
	buf := make([]byte, size)
	return &Object{buf: buf, refs: 0}, nil
}
