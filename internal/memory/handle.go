package memory

import "unsafe"

// block is the allocation record shared by every copy of a Handle.
type block struct {
	buf   []byte
	owner *Allocator
}

// Handle refers to one raw buffer issued by an Allocator. The zero Handle is
// the empty sentinel.
//
// Handles can only be produced by Allocator.Allocate. Copies of a Handle
// share release state: once any copy is freed every copy reports IsEmpty, so
// a stale copy can never reach released memory.
type Handle struct {
	b *block
}

// IsEmpty reports whether h is the sentinel or has been freed.
func (h Handle) IsEmpty() bool {
	return h.b == nil || h.b.buf == nil
}

// Len returns the buffer size in bytes, 0 when empty.
func (h Handle) Len() int {
	if h.IsEmpty() {
		return 0
	}
	return len(h.b.buf)
}

// Bytes returns the raw buffer, nil when empty. The slice must not be
// retained past the owner's release of h.
func (h Handle) Bytes() []byte {
	if h.IsEmpty() {
		return nil
	}
	return h.b.buf
}

// Pointer returns the address of the first byte, nil when empty.
func (h Handle) Pointer() unsafe.Pointer {
	if h.IsEmpty() {
		return nil
	}
	return unsafe.Pointer(unsafe.SliceData(h.b.buf))
}
