package bridge

import (
	"testing"

	ugerrors "github.com/23skdu/ugrid/internal/errors"
	"github.com/23skdu/ugrid/internal/memory"
	"github.com/23skdu/ugrid/internal/topology"
	arrowmem "github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyInCopyOut(t *testing.T) {
	checked := arrowmem.NewCheckedAllocator(arrowmem.NewGoAllocator())
	alloc := memory.NewAllocator(checked)
	defer checked.AssertSize(t, 0)

	h, err := alloc.Allocate(4 * 8)
	require.NoError(t, err)
	defer alloc.Free(&h) //nolint:errcheck

	src := []float64{0, 1, 1, 0}
	require.NoError(t, CopyIn(h, src))

	out, err := CopyOut[float64](h, 4)
	require.NoError(t, err)
	assert.Equal(t, src, out)

	src[0] = 42
	assert.Equal(t, 0.0, out[0], "copy-out does not alias the source")

	ints := []int32{0, 1, 1, 2, 2, 3, 3, 0}
	require.NoError(t, CopyIn(h, ints))
	got, err := CopyOutAs(h, topology.Int32, len(ints))
	require.NoError(t, err)
	assert.Equal(t, ints, got)
}

func TestCopyOutErrors(t *testing.T) {
	alloc := memory.NewAllocator(nil)
	h, err := alloc.Allocate(16)
	require.NoError(t, err)

	_, err = CopyOut[int32](memory.Handle{}, 4)
	assert.ErrorIs(t, err, ErrNullSource)
	assert.ErrorIs(t, err, ugerrors.ErrInvalidArgument)

	_, err = CopyOut[int32](h, 0)
	assert.ErrorIs(t, err, ErrInvalidLength)

	_, err = CopyOut[float64](h, 3)
	assert.ErrorIs(t, err, ErrBufferOverrun)

	_, err = CopyOutAs(h, topology.ElementType(42), 1)
	assert.ErrorIs(t, err, ErrUnsupportedElementType)

	require.NoError(t, alloc.Free(&h))
	_, err = CopyOut[byte](h, 1)
	assert.ErrorIs(t, err, ErrNullSource, "freed handles are never read")
}

func TestCopyInErrors(t *testing.T) {
	alloc := memory.NewAllocator(nil)
	h, err := alloc.Allocate(8)
	require.NoError(t, err)
	defer alloc.Free(&h) //nolint:errcheck

	assert.ErrorIs(t, CopyIn(memory.Handle{}, []int32{1}), ErrNullTarget)
	assert.ErrorIs(t, CopyIn[int32](h, nil), ErrEmptySource)
	assert.ErrorIs(t, CopyIn(h, []byte{}), ErrEmptySource)
	assert.ErrorIs(t, CopyIn(h, []float64{1, 2}), ErrBufferOverrun)
}

func TestView(t *testing.T) {
	assert.Nil(t, View[int32](nil, 3))

	pins := NewPins()
	defer pins.Release()

	data := []int32{7, 8, 9}
	v := View[int32](Pin(pins, data), 3)
	v[1] = 80
	assert.Equal(t, int32(80), data[1])
}
