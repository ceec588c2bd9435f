package memory

import (
	"errors"
	"fmt"
	"sync/atomic"

	ugerrors "github.com/23skdu/ugrid/internal/errors"
	"github.com/23skdu/ugrid/internal/metrics"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/rs/zerolog"
)

var (
	// ErrInvalidSize is returned for requests of zero or negative bytes.
	ErrInvalidSize = errors.New("byte size must be greater than zero")
	// ErrBudgetExceeded is returned when a request would exceed the configured limit.
	ErrBudgetExceeded = errors.New("allocation budget exceeded")
	// ErrOutOfMemory is reported when the backend gives up on a request.
	ErrOutOfMemory = errors.New("out of memory")
	// ErrShortBuffer is reported when the backend returns fewer bytes than requested.
	ErrShortBuffer = errors.New("backend returned a short buffer")
	// ErrForeignHandle is returned when a handle is freed by an allocator that did not issue it.
	ErrForeignHandle = errors.New("handle was not issued by this allocator")
)

// Allocator is the single choke point for raw buffer allocation and release.
// It validates requests, enforces the optional byte budget, converts backend
// panics into errors and issues Handles. It is safe for concurrent use when
// the backend is.
type Allocator struct {
	base   memory.Allocator
	limit  int64
	zeroed bool
	inUse  atomic.Int64
	logger zerolog.Logger
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithLimit caps the bytes held at once; 0 disables the cap.
func WithLimit(bytes int64) Option {
	return func(a *Allocator) { a.limit = bytes }
}

// WithZeroed zero-fills every buffer before it is handed out.
func WithZeroed(zeroed bool) Option {
	return func(a *Allocator) { a.zeroed = zeroed }
}

// WithLogger sets the logger used for release diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(a *Allocator) { a.logger = logger }
}

// NewAllocator creates an allocator over base. If base is nil, it uses
// memory.DefaultAllocator. Byte counts are tracked in Prometheus.
func NewAllocator(base memory.Allocator, opts ...Option) *Allocator {
	a := &Allocator{
		base:   NewTrackingAllocator(base),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Allocate returns a handle to size bytes. The memory is uninitialized unless
// the allocator was built WithZeroed.
func (a *Allocator) Allocate(size int) (Handle, error) {
	if size <= 0 {
		metrics.AllocatorFailuresTotal.WithLabelValues("invalid_size").Inc()
		return Handle{}, ugerrors.WrapInvalidArgument(ErrInvalidSize, "memory.Allocate",
			fmt.Sprintf("requested %d bytes", size))
	}
	if a.limit > 0 && a.inUse.Load()+int64(size) > a.limit {
		metrics.AllocatorFailuresTotal.WithLabelValues("budget").Inc()
		return Handle{}, ugerrors.WrapAllocationError(ErrBudgetExceeded, "memory.Allocate",
			fmt.Sprintf("requested %d bytes with %d of %d in use", size, a.inUse.Load(), a.limit))
	}

	buf, err := a.allocateBase(size)
	if err != nil {
		metrics.AllocatorFailuresTotal.WithLabelValues("backend").Inc()
		return Handle{}, ugerrors.WrapAllocationError(err, "memory.Allocate",
			fmt.Sprintf("requested %d bytes", size))
	}
	if len(buf) != size {
		if len(buf) > 0 {
			a.base.Free(buf)
		}
		metrics.AllocatorFailuresTotal.WithLabelValues("short_buffer").Inc()
		return Handle{}, ugerrors.WrapAllocationError(ErrShortBuffer, "memory.Allocate",
			fmt.Sprintf("requested %d bytes, got %d", size, len(buf)))
	}
	if a.zeroed {
		memory.Set(buf, 0)
	}

	a.inUse.Add(int64(size))
	return Handle{b: &block{buf: buf, owner: a}}, nil
}

// allocateBase calls the backend, turning a panic (the arrow allocators'
// out-of-memory signal) into an error.
func (a *Allocator) allocateBase(size int) (buf []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			err = fmt.Errorf("%w: %v", ErrOutOfMemory, r)
		}
	}()
	return a.base.Allocate(size), nil
}

// Free releases the buffer behind h and resets h to the empty sentinel.
// Freeing an empty handle is a no-op.
func (a *Allocator) Free(h *Handle) error {
	if h == nil {
		return nil
	}
	if h.IsEmpty() {
		h.b = nil
		return nil
	}
	if h.b.owner != a {
		return ugerrors.WrapInvalidArgument(ErrForeignHandle, "memory.Free", "refusing to release buffer")
	}

	buf := h.b.buf
	h.b.buf = nil
	h.b = nil

	a.base.Free(buf)
	a.inUse.Add(-int64(len(buf)))
	return nil
}

// InUse returns the bytes currently held by live handles.
func (a *Allocator) InUse() int64 {
	return a.inUse.Load()
}

// Backend returns a raw memory.Allocator by name: "go" (Go heap), "malloc"
// (C heap, cgo builds only) or "mmap" (anonymous mappings).
func Backend(name string) (memory.Allocator, error) {
	switch name {
	case "", "go":
		return memory.NewGoAllocator(), nil
	case "malloc":
		return NewMallocAllocator()
	case "mmap":
		return NewMmapAllocator(), nil
	default:
		return nil, ugerrors.NewInvalidArgument("memory.Backend", fmt.Sprintf("unknown allocator backend %q", name))
	}
}
