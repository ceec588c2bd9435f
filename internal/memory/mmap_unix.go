//go:build linux || darwin || freebsd

package memory

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"golang.org/x/sys/unix"
)

// MmapAllocator serves each buffer from its own anonymous private mapping.
// Buffers live outside the Go heap and come back zeroed from the kernel.
type MmapAllocator struct{}

// NewMmapAllocator returns the mmap backend.
func NewMmapAllocator() memory.Allocator {
	return MmapAllocator{}
}

func (MmapAllocator) Allocate(size int) []byte {
	b, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		panic(fmt.Errorf("%w: mmap %d bytes: %v", ErrOutOfMemory, size, err))
	}
	return b
}

func (m MmapAllocator) Reallocate(size int, b []byte) []byte {
	nb := m.Allocate(size)
	copy(nb, b)
	m.Free(b)
	return nb
}

func (MmapAllocator) Free(b []byte) {
	if cap(b) == 0 {
		return
	}
	// Munmap wants the slice exactly as mapped.
	_ = unix.Munmap(b[:cap(b)])
}
