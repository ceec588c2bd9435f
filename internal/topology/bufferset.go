package topology

import (
	"errors"
	"fmt"

	ugerrors "github.com/23skdu/ugrid/internal/errors"
	"github.com/23skdu/ugrid/internal/memory"
	"github.com/23skdu/ugrid/internal/metrics"
)

// State is the lifecycle state of a BufferSet.
type State int

const (
	StateEmpty State = iota
	StateAllocated
	StateReleased
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateAllocated:
		return "allocated"
	case StateReleased:
		return "released"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrNotAllocated is returned when buffers are requested from a set that
	// does not hold them.
	ErrNotAllocated = errors.New("buffer set is not allocated")
	// ErrNonPositiveCount is returned when a field would be sized zero or less.
	ErrNonPositiveCount = errors.New("element count must be greater than zero")
	// ErrKindMismatch is returned when binding a record of another kind.
	ErrKindMismatch = errors.New("record kind does not match buffer set")
)

// BufferSet owns the raw buffers backing the variable-length fields of one
// topology record. It is not safe for concurrent use.
type BufferSet struct {
	alloc   *memory.Allocator
	kind    Kind
	counts  Counts
	sizes   []FieldSize
	handles []memory.Handle
	state   State
}

// NewBufferSet returns an empty buffer set for a record of kind with counts c.
// Counts not relevant to kind are ignored.
func NewBufferSet(alloc *memory.Allocator, kind Kind, c Counts) *BufferSet {
	c = Mask(kind, c)
	sizes := Sizes(kind, c)
	return &BufferSet{
		alloc:   alloc,
		kind:    kind,
		counts:  c,
		sizes:   sizes,
		handles: make([]memory.Handle, len(sizes)),
	}
}

// Kind returns the topology kind the set was built for.
func (s *BufferSet) Kind() Kind { return s.kind }

// Counts returns the masked counts the sizes were computed from.
func (s *BufferSet) Counts() Counts { return s.counts }

// State returns the lifecycle state.
func (s *BufferSet) State() State { return s.state }

// Sizes returns the resolved field sizes in table order.
func (s *BufferSet) Sizes() []FieldSize { return s.sizes }

// Allocate allocates every field in table order. Counts are validated before
// anything is allocated. If a field fails, the fields allocated before it are
// freed and the set is left empty.
func (s *BufferSet) Allocate() error {
	const op = "topology.BufferSet.Allocate"
	if !s.kind.Valid() {
		return ugerrors.NewInvalidArgument(op, fmt.Sprintf("unknown topology kind %s", s.kind))
	}
	if s.state != StateEmpty {
		return ugerrors.NewStateError(op, fmt.Sprintf("%s buffer set is %s", s.kind, s.state))
	}
	for _, fs := range s.sizes {
		if fs.Elements <= 0 {
			return ugerrors.WrapInvalidArgument(ErrNonPositiveCount, op,
				fmt.Sprintf("%s field %s has %d elements", s.kind, fs.Name, fs.Elements))
		}
	}

	for i, fs := range s.sizes {
		h, err := s.alloc.Allocate(fs.Bytes)
		if err != nil {
			s.rollback(i)
			metrics.BufferSetRollbacksTotal.WithLabelValues(s.kind.String()).Inc()
			return ugerrors.WrapAllocationError(err, op,
				fmt.Sprintf("%s field %s (%d bytes)", s.kind, fs.Name, fs.Bytes))
		}
		s.handles[i] = h
	}

	s.state = StateAllocated
	metrics.BufferSetsLive.WithLabelValues(s.kind.String()).Inc()
	return nil
}

// rollback frees the first n handles. Free cannot fail for handles this set
// obtained from its own allocator.
func (s *BufferSet) rollback(n int) {
	for i := 0; i < n; i++ {
		_ = s.alloc.Free(&s.handles[i])
	}
}

// Free releases every held buffer and resets its handle to empty. It is safe
// to call repeatedly and on a set that was never allocated.
func (s *BufferSet) Free() error {
	var errs []error
	for i := range s.handles {
		if err := s.alloc.Free(&s.handles[i]); err != nil {
			errs = append(errs, err)
		}
	}
	if s.state == StateAllocated {
		s.state = StateReleased
		metrics.BufferSetsLive.WithLabelValues(s.kind.String()).Dec()
	}
	return errors.Join(errs...)
}

// Bind points rec's field slots at the held buffers and copies the counts.
// The record wraps the buffers; it must not outlive the set's allocation.
func (s *BufferSet) Bind(rec Record) error {
	const op = "topology.BufferSet.Bind"
	if rec == nil || rec.Kind() != s.kind {
		return ugerrors.WrapInvalidArgument(ErrKindMismatch, op, fmt.Sprintf("expected %s record", s.kind))
	}
	if s.state != StateAllocated {
		return ugerrors.Wrap(ErrNotAllocated, ugerrors.ErrorTypeState, op, s.state.String())
	}
	slots := rec.Slots()
	for i := range slots {
		*slots[i] = s.handles[i].Pointer()
	}
	rec.SetCounts(s.counts)
	return nil
}

// Handle returns the buffer of field i.
func (s *BufferSet) Handle(i int) (memory.Handle, error) {
	const op = "topology.BufferSet.Handle"
	if i < 0 || i >= len(s.handles) {
		return memory.Handle{}, ugerrors.NewInvalidArgument(op, fmt.Sprintf("%s has no field %d", s.kind, i))
	}
	if s.state != StateAllocated {
		return memory.Handle{}, ugerrors.Wrap(ErrNotAllocated, ugerrors.ErrorTypeState, op, s.state.String())
	}
	return s.handles[i], nil
}

// HandleByName returns the buffer of the named field.
func (s *BufferSet) HandleByName(field string) (memory.Handle, error) {
	i := FieldIndex(s.kind, field)
	if i < 0 {
		return memory.Handle{}, ugerrors.NewInvalidArgument("topology.BufferSet.HandleByName",
			fmt.Sprintf("%s has no field %q", s.kind, field))
	}
	return s.Handle(i)
}
