// Package bridge moves data between raw native buffers and typed Go slices
// and keeps Go memory stable while a native call holds its address.
package bridge

import (
	"errors"
	"fmt"
	"unsafe"

	ugerrors "github.com/23skdu/ugrid/internal/errors"
	"github.com/23skdu/ugrid/internal/memory"
	"github.com/23skdu/ugrid/internal/topology"
)

// Element is the set of element types that cross the native boundary.
type Element interface {
	~int32 | ~float64 | ~byte
}

// Copy and view errors, each wrapped in an invalid argument error.
var (
	ErrNullSource             = errors.New("source buffer is empty")
	ErrNullTarget             = errors.New("target buffer is empty")
	ErrInvalidLength          = errors.New("element count must be greater than zero")
	ErrEmptySource            = errors.New("source slice is empty")
	ErrUnsupportedElementType = errors.New("unsupported element type")
	ErrBufferOverrun          = errors.New("element count exceeds buffer size")
)

func width[T Element]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

// CopyOut copies n elements from the buffer behind h into a new slice.
func CopyOut[T Element](h memory.Handle, n int) ([]T, error) {
	const op = "bridge.CopyOut"
	if h.IsEmpty() {
		return nil, ugerrors.WrapInvalidArgument(ErrNullSource, op, "cannot read from an empty handle")
	}
	if n <= 0 {
		return nil, ugerrors.WrapInvalidArgument(ErrInvalidLength, op, fmt.Sprintf("requested %d elements", n))
	}
	if n*width[T]() > h.Len() {
		return nil, ugerrors.WrapInvalidArgument(ErrBufferOverrun, op,
			fmt.Sprintf("%d elements of %d bytes from a %d byte buffer", n, width[T](), h.Len()))
	}
	out := make([]T, n)
	copy(out, View[T](h.Pointer(), n))
	return out, nil
}

// CopyOutAs is CopyOut with the element type chosen at run time. The result
// is a []int32, []float64 or []byte.
func CopyOutAs(h memory.Handle, t topology.ElementType, n int) (any, error) {
	switch t {
	case topology.Int32:
		return CopyOut[int32](h, n)
	case topology.Float64:
		return CopyOut[float64](h, n)
	case topology.Byte:
		return CopyOut[byte](h, n)
	default:
		return nil, ugerrors.WrapInvalidArgument(ErrUnsupportedElementType, "bridge.CopyOutAs", t.String())
	}
}

// CopyIn overwrites the first len(src) elements of the buffer behind h.
func CopyIn[T Element](h memory.Handle, src []T) error {
	const op = "bridge.CopyIn"
	if h.IsEmpty() {
		return ugerrors.WrapInvalidArgument(ErrNullTarget, op, "cannot write to an empty handle")
	}
	if len(src) == 0 {
		return ugerrors.WrapInvalidArgument(ErrEmptySource, op, "nothing to copy")
	}
	if len(src)*width[T]() > h.Len() {
		return ugerrors.WrapInvalidArgument(ErrBufferOverrun, op,
			fmt.Sprintf("%d elements of %d bytes into a %d byte buffer", len(src), width[T](), h.Len()))
	}
	copy(View[T](h.Pointer(), len(src)), src)
	return nil
}

// View returns a slice aliasing n elements at p, nil when p is nil or n is
// not positive. The caller guarantees the memory holds n elements and stays
// valid while the slice is used.
func View[T Element](p unsafe.Pointer, n int) []T {
	if p == nil || n <= 0 {
		return nil
	}
	return unsafe.Slice((*T)(p), n)
}
