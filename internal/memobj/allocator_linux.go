//go:build linux

package memobj

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// LinuxAllocator backs each Object with a memfd-backed shared mapping (no
// seals are applied):
// memfd_create for swap-backed anonymous storage, ftruncate to size, mmap
// to get a process-visible []byte. This is the real-kernel rendering of
// the source's vm_pager_allocate(OBJT_SWAP, ...) call.
type LinuxAllocator struct{}

// NewAllocator returns the platform allocator for this build.
func NewAllocator() Allocator {
	return LinuxAllocator{}
}

func (LinuxAllocator) Allocate(size int64) (*Object, error) {
	if size <= 0 {
		return nil, fmt.Errorf("memobj: invalid size %d", size)
	}

	fd, err := unix.MemfdCreate("drawfs-surface", 0)
	if err != nil {
		return nil, fmt.Errorf("memobj: memfd_create: %w", err)
	}
	defer unix.Close(fd)

	if err := unix.Ftruncate(fd, size); err != nil {
		return nil, fmt.Errorf("memobj: ftruncate: %w", err)
	}

	buf, err := unix.Mmap(fd, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("memobj: mmap: %w", err)
	}

	obj := &Object{buf: buf, refs: 0}
	obj.free = func() {
		_ = unix.Munmap(buf)
	}
	return obj, nil
}
