package topology

import (
	"testing"

	ugerrors "github.com/23skdu/ugrid/internal/errors"
	"github.com/23skdu/ugrid/internal/memory"
	arrowmem "github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCounts = Counts{
	NumNodes:         5,
	NumEdges:         4,
	NumFaces:         2,
	NumFaceNodesMax:  4,
	NumContacts:      3,
	NumGeometryNodes: 7,
}

func TestBufferSetSizesWithGuardBytes(t *testing.T) {
	for _, kind := range Kinds {
		t.Run(kind.String(), func(t *testing.T) {
			checked := arrowmem.NewCheckedAllocator(arrowmem.NewGoAllocator())
			guard := memory.NewGuardAllocator(checked, 16)
			set := NewBufferSet(memory.NewAllocator(guard), kind, testCounts)

			require.NoError(t, set.Allocate())
			assert.Equal(t, StateAllocated, set.State())

			for i, fs := range set.Sizes() {
				h, err := set.Handle(i)
				require.NoError(t, err)
				require.Equal(t, fs.Bytes, h.Len(), fs.Name)
				buf := h.Bytes()
				for j := range buf {
					buf[j] = 0xA5
				}
			}

			require.NoError(t, set.Free())
			assert.Empty(t, guard.Violations())
			checked.AssertSize(t, 0)
		})
	}
}

func TestBufferSetFreeTwice(t *testing.T) {
	for _, kind := range Kinds {
		checked := arrowmem.NewCheckedAllocator(arrowmem.NewGoAllocator())
		set := NewBufferSet(memory.NewAllocator(checked), kind, testCounts)

		require.NoError(t, set.Allocate())
		require.NoError(t, set.Free())
		require.NoError(t, set.Free())

		assert.Equal(t, StateReleased, set.State())
		for _, h := range set.handles {
			assert.True(t, h.IsEmpty())
		}
		checked.AssertSize(t, 0)
	}
}

func TestBufferSetFreeNeverAllocated(t *testing.T) {
	set := NewBufferSet(memory.NewAllocator(nil), Mesh2DKind, testCounts)
	require.NoError(t, set.Free())
	assert.Equal(t, StateEmpty, set.State())
}

func TestBufferSetRollbackAtEveryField(t *testing.T) {
	for _, kind := range Kinds {
		n := len(Fields(kind))
		for k := 1; k <= n; k++ {
			checked := arrowmem.NewCheckedAllocator(arrowmem.NewGoAllocator())
			faulty := memory.NewFaultyAllocator(checked, k)
			set := NewBufferSet(memory.NewAllocator(faulty), kind, testCounts)

			err := set.Allocate()
			require.Error(t, err, "%s k=%d", kind, k)
			assert.ErrorIs(t, err, ugerrors.ErrAllocationFailed)
			assert.ErrorIs(t, err, memory.ErrInjectedFault)
			assert.Equal(t, k, faulty.Calls())
			assert.Equal(t, StateEmpty, set.State())
			for i, h := range set.handles {
				assert.True(t, h.IsEmpty(), "%s k=%d field %d", kind, k, i)
			}
			checked.AssertSize(t, 0)

			rec := NewRecord(kind)
			assert.Error(t, set.Bind(rec))
			for _, slot := range rec.Slots() {
				assert.Nil(t, *slot)
			}
		}
	}
}

func TestBufferSetRejectsNonPositiveCounts(t *testing.T) {
	checked := arrowmem.NewCheckedAllocator(arrowmem.NewGoAllocator())
	faulty := memory.NewFaultyAllocator(checked, 0)

	for _, c := range []Counts{
		{NumNodes: 4, NumEdges: 4, NumFaces: 0, NumFaceNodesMax: 4},
		{NumNodes: 4, NumEdges: -1, NumFaces: 1, NumFaceNodesMax: 4},
		{NumNodes: 4, NumEdges: 4, NumFaces: 1, NumFaceNodesMax: 0},
	} {
		set := NewBufferSet(memory.NewAllocator(faulty), Mesh2DKind, c)
		err := set.Allocate()
		assert.ErrorIs(t, err, ErrNonPositiveCount)
		assert.ErrorIs(t, err, ugerrors.ErrInvalidArgument)
	}
	assert.Equal(t, 0, faulty.Calls())
	checked.AssertSize(t, 0)
}

func TestBufferSetBudgetRollback(t *testing.T) {
	checked := arrowmem.NewCheckedAllocator(arrowmem.NewGoAllocator())
	alloc := memory.NewAllocator(checked, memory.WithLimit(256))
	set := NewBufferSet(alloc, Mesh2DKind, testCounts)

	err := set.Allocate()
	assert.ErrorIs(t, err, memory.ErrBudgetExceeded)
	assert.Equal(t, int64(0), alloc.InUse())
	checked.AssertSize(t, 0)
}

func TestBufferSetBind(t *testing.T) {
	set := NewBufferSet(memory.NewAllocator(nil), Mesh2DKind, testCounts)
	require.NoError(t, set.Allocate())
	defer set.Free() //nolint:errcheck

	rec := &Mesh2D{}
	require.NoError(t, set.Bind(rec))
	assert.Equal(t, Mask(Mesh2DKind, testCounts), rec.Counts())

	nodeX, err := set.HandleByName("node_x")
	require.NoError(t, err)
	assert.Equal(t, nodeX.Pointer(), rec.NodeX)
	for _, slot := range rec.Slots() {
		assert.NotNil(t, *slot)
	}

	assert.ErrorIs(t, set.Bind(&Contacts{}), ErrKindMismatch)
	_, err = set.HandleByName("layer_zs")
	assert.ErrorIs(t, err, ugerrors.ErrInvalidArgument)
}

func TestBufferSetAfterFree(t *testing.T) {
	set := NewBufferSet(memory.NewAllocator(nil), ContactsKind, testCounts)
	require.NoError(t, set.Allocate())
	h, err := set.Handle(0)
	require.NoError(t, err)
	require.NoError(t, set.Free())

	assert.True(t, h.IsEmpty(), "copies of a freed handle are empty")
	_, err = set.Handle(0)
	assert.ErrorIs(t, err, ErrNotAllocated)
	assert.ErrorIs(t, err, ugerrors.ErrClosed)
	assert.ErrorIs(t, set.Bind(&Contacts{}), ErrNotAllocated)
	assert.ErrorIs(t, set.Allocate(), ugerrors.ErrClosed)
}
