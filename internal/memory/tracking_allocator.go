package memory

import (
	"sync/atomic"

	"github.com/23skdu/ugrid/internal/metrics"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// TrackingAllocator wraps a base memory.Allocator and updates Prometheus metrics
type TrackingAllocator struct {
	memory.Allocator
	BytesAllocated atomic.Int64
	BytesFreed     atomic.Int64
	Live           atomic.Int64
}

// NewTrackingAllocator creates a new allocator that wraps the given base allocator.
// If base is nil, it uses memory.DefaultAllocator.
func NewTrackingAllocator(base memory.Allocator) *TrackingAllocator {
	if base == nil {
		base = memory.DefaultAllocator
	}
	return &TrackingAllocator{Allocator: base}
}

// Allocate counts only requests the base satisfied; a panicking base leaves
// the counters untouched.
func (a *TrackingAllocator) Allocate(size int) []byte {
	b := a.Allocator.Allocate(size)
	a.BytesAllocated.Add(int64(len(b)))
	a.Live.Add(1)
	metrics.AllocatorBytesAllocatedTotal.Add(float64(len(b)))
	metrics.AllocatorAllocationsActive.Inc()
	return b
}

func (a *TrackingAllocator) Reallocate(size int, b []byte) []byte {
	old := len(b)
	nb := a.Allocator.Reallocate(size, b)
	a.BytesAllocated.Add(int64(len(nb)))
	a.BytesFreed.Add(int64(old))
	metrics.AllocatorBytesAllocatedTotal.Add(float64(len(nb)))
	metrics.AllocatorBytesFreedTotal.Add(float64(old))
	return nb
}

func (a *TrackingAllocator) Free(b []byte) {
	a.BytesFreed.Add(int64(len(b)))
	a.Live.Add(-1)
	metrics.AllocatorBytesFreedTotal.Add(float64(len(b)))
	metrics.AllocatorAllocationsActive.Dec()
	a.Allocator.Free(b)
}

var _ memory.Allocator = (*TrackingAllocator)(nil)
