package memory

import (
	"errors"
	"fmt"
	"sync"

	"github.com/23skdu/ugrid/internal/metrics"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// GuardPattern fills the canary bytes placed after each buffer.
const GuardPattern byte = 0xFD

// ErrGuardViolation is recorded when a buffer's canary bytes were overwritten.
var ErrGuardViolation = errors.New("guard bytes overwritten")

// GuardAllocator places n canary bytes after every buffer and checks them when
// the buffer is freed. Violations are counted and collected, not panicked on.
type GuardAllocator struct {
	base memory.Allocator
	n    int

	mu         sync.Mutex
	violations []error
}

// NewGuardAllocator wraps base with n guard bytes per buffer.
func NewGuardAllocator(base memory.Allocator, n int) *GuardAllocator {
	if base == nil {
		base = memory.DefaultAllocator
	}
	return &GuardAllocator{base: base, n: n}
}

func (g *GuardAllocator) Allocate(size int) []byte {
	raw := g.base.Allocate(size + g.n)
	memory.Set(raw[size:size+g.n], GuardPattern)
	return raw[:size]
}

func (g *GuardAllocator) Reallocate(size int, b []byte) []byte {
	nb := g.Allocate(size)
	copy(nb, b)
	g.Free(b)
	return nb
}

func (g *GuardAllocator) Free(b []byte) {
	raw := b[:len(b)+g.n]
	for i, c := range raw[len(b):] {
		if c != GuardPattern {
			metrics.AllocatorGuardViolationsTotal.Inc()
			g.mu.Lock()
			g.violations = append(g.violations,
				fmt.Errorf("%w: buffer of %d bytes, guard byte %d is %#x", ErrGuardViolation, len(b), i, c))
			g.mu.Unlock()
			break
		}
	}
	g.base.Free(raw)
}

// Violations returns the guard violations seen so far.
func (g *GuardAllocator) Violations() []error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]error(nil), g.violations...)
}

var _ memory.Allocator = (*GuardAllocator)(nil)
