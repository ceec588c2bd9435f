//go:build cgo

package memory

import (
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/arrow/memory/mallocator"
)

// NewMallocAllocator returns a backend on the C heap.
func NewMallocAllocator() (memory.Allocator, error) {
	return mallocator.NewMallocator(), nil
}
