//go:build !(linux || darwin || freebsd)

package memory

import "github.com/apache/arrow-go/v18/arrow/memory"

// NewMmapAllocator falls back to the Go heap where anonymous mappings are unavailable.
func NewMmapAllocator() memory.Allocator {
	return memory.NewGoAllocator()
}
