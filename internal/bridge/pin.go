package bridge

import (
	"runtime"
	"unsafe"

	"github.com/23skdu/ugrid/internal/metrics"
)

// Pins keeps Go slices at a fixed address for the duration of a native call.
// A Pins value is used by one goroutine; separate calls use separate Pins.
type Pins struct {
	pinner runtime.Pinner
	held   map[unsafe.Pointer]struct{}
}

// NewPins returns an empty pin set.
func NewPins() *Pins {
	return &Pins{held: make(map[unsafe.Pointer]struct{})}
}

// Pin pins the backing array of s and returns its address, nil for an empty
// slice. Pinning an array that is already held returns the same address
// without pinning it again.
func Pin[T Element](p *Pins, s []T) unsafe.Pointer {
	if len(s) == 0 {
		return nil
	}
	addr := unsafe.Pointer(unsafe.SliceData(s))
	if _, ok := p.held[addr]; ok {
		return addr
	}
	p.pinner.Pin(&s[0])
	p.held[addr] = struct{}{}
	metrics.PinsActive.Inc()
	return addr
}

// Len returns the number of arrays currently pinned.
func (p *Pins) Len() int {
	return len(p.held)
}

// Release unpins everything. It is idempotent and the set can be reused.
func (p *Pins) Release() {
	if len(p.held) == 0 {
		return
	}
	p.pinner.Unpin()
	metrics.PinsActive.Sub(float64(len(p.held)))
	clear(p.held)
}
