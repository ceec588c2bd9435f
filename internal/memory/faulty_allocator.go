package memory

import (
	"errors"
	"sync/atomic"

	"github.com/apache/arrow-go/v18/arrow/memory"
)

// ErrInjectedFault is the panic value raised by FaultyAllocator.
var ErrInjectedFault = errors.New("injected allocation fault")

// FaultyAllocator fails the failAt-th allocation (1-based) the way an
// exhausted backend does, by panicking. Other calls pass through.
type FaultyAllocator struct {
	memory.Allocator
	failAt int64
	calls  atomic.Int64
}

// NewFaultyAllocator fails allocation number failAt; 0 never fails.
func NewFaultyAllocator(base memory.Allocator, failAt int) *FaultyAllocator {
	if base == nil {
		base = memory.DefaultAllocator
	}
	return &FaultyAllocator{Allocator: base, failAt: int64(failAt)}
}

func (f *FaultyAllocator) Allocate(size int) []byte {
	if f.calls.Add(1) == f.failAt {
		panic(ErrInjectedFault)
	}
	return f.Allocator.Allocate(size)
}

// Calls returns the number of Allocate calls seen.
func (f *FaultyAllocator) Calls() int {
	return int(f.calls.Load())
}

var _ memory.Allocator = (*FaultyAllocator)(nil)
