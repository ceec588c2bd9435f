package ugrid

import (
	"errors"
	"fmt"

	"github.com/23skdu/ugrid/internal/bridge"
	ugerrors "github.com/23skdu/ugrid/internal/errors"
	"github.com/23skdu/ugrid/internal/metrics"
	"github.com/23skdu/ugrid/internal/topology"
)

// Reader holds every topology of a UGrid file in native buffers. It is not
// safe for concurrent use; independent Readers may be used from different
// goroutines.
type Reader struct {
	session
	sets map[topology.Kind][]*topology.BufferSet
}

// OpenReader opens path and reads all its topologies, in the order Mesh1D,
// Mesh2D, Contacts, Network1D. On failure everything acquired so far is
// released before the error is returned.
func OpenReader(path string, opts ...Option) (*Reader, error) {
	e, err := newOptions(opts).build()
	if err != nil {
		return nil, err
	}
	r := &Reader{
		session: newSession(e, path, "read"),
		sets:    make(map[topology.Kind][]*topology.BufferSet, len(topology.Kinds)),
	}
	if err := r.open(modeRead); err != nil {
		return nil, err
	}
	if err := r.populate(); err != nil {
		return nil, errors.Join(err, r.Close())
	}
	r.logger.Debug().Int("mesh1d", r.Count(Mesh1DKind)).Int("mesh2d", r.Count(Mesh2DKind)).
		Int("contacts", r.Count(ContactsKind)).Int("network1d", r.Count(Network1DKind)).
		Msg("topologies loaded")
	return r, nil
}

func (r *Reader) populate() error {
	for _, kind := range topology.Kinds {
		n, err := r.count(kind)
		if err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			if err := r.load(kind, i); err != nil {
				return err
			}
		}
	}
	return nil
}

// load reads topology i of kind into a new buffer set. The set is kept only
// when every step succeeds.
func (r *Reader) load(kind topology.Kind, i int) error {
	rec := topology.NewRecord(kind)
	if err := r.inquire(i, rec); err != nil {
		return err
	}

	bs := topology.NewBufferSet(r.alloc, kind, rec.Counts())
	if err := bs.Allocate(); err != nil {
		return err
	}
	err := bs.Bind(rec)
	if err == nil {
		err = r.get(i, rec)
	}
	if err != nil {
		return errors.Join(err, bs.Free())
	}

	r.sets[kind] = append(r.sets[kind], bs)
	metrics.TopologiesLoadedTotal.WithLabelValues(kind.String()).Inc()
	return nil
}

// Close frees every buffer set and closes the file. It is safe to call more
// than once.
func (r *Reader) Close() error {
	if r.state != stateOpen {
		return nil
	}
	var errs []error
	for _, kind := range topology.Kinds {
		for _, bs := range r.sets[kind] {
			if err := bs.Free(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	clear(r.sets)
	errs = append(errs, r.closeFile(), r.checkGuards())
	return errors.Join(errs...)
}

// Count returns the number of topologies of kind held.
func (r *Reader) Count(kind TopologyKind) int { return len(r.sets[kind]) }

func (r *Reader) HasMesh1D() bool    { return r.Count(Mesh1DKind) > 0 }
func (r *Reader) HasMesh2D() bool    { return r.Count(Mesh2DKind) > 0 }
func (r *Reader) HasContacts() bool  { return r.Count(ContactsKind) > 0 }
func (r *Reader) HasNetwork1D() bool { return r.Count(Network1DKind) > 0 }

// BufferSet returns the native buffers of topology i of kind.
func (r *Reader) BufferSet(kind TopologyKind, i int) (*BufferSet, error) {
	const op = "ugrid.Reader.BufferSet"
	if err := r.checkOpen(op); err != nil {
		return nil, err
	}
	sets := r.sets[kind]
	if i < 0 || i >= len(sets) {
		return nil, ugerrors.NewNotFound(op, fmt.Sprintf("no %s with index %d, %d held", kind, i, len(sets)))
	}
	return sets[i], nil
}

func (r *Reader) copyOut(i int, dst record) error {
	bs, err := r.BufferSet(dst.Kind(), i)
	if err != nil {
		return err
	}
	return extract(bs, dst)
}

// Mesh1D returns a copy of 1D mesh i.
func (r *Reader) Mesh1D(i int) (*Mesh1D, error) {
	m := &Mesh1D{}
	if err := r.copyOut(i, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Mesh2D returns a copy of 2D mesh i.
func (r *Reader) Mesh2D(i int) (*Mesh2D, error) {
	m := &Mesh2D{}
	if err := r.copyOut(i, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Contacts returns a copy of contact set i.
func (r *Reader) Contacts(i int) (*Contacts, error) {
	c := &Contacts{}
	if err := r.copyOut(i, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Network1D returns a copy of network i.
func (r *Reader) Network1D(i int) (*Network1D, error) {
	n := &Network1D{}
	if err := r.copyOut(i, n); err != nil {
		return nil, err
	}
	return n, nil
}

// FindTopology returns the index of the topology of kind with the given name.
func (r *Reader) FindTopology(kind TopologyKind, name string) (int, error) {
	const op = "ugrid.Reader.FindTopology"
	if err := r.checkOpen(op); err != nil {
		return -1, err
	}
	for i, bs := range r.sets[kind] {
		n, err := nameOf(bs)
		if err != nil {
			return -1, err
		}
		if n == name {
			return i, nil
		}
	}
	return -1, ugerrors.NewNotFound(op, fmt.Sprintf("no %s named %q", kind, name))
}

// Variable reads a whole variable by name and returns its data with its
// shape. T selects the native read: int32, float64 or byte.
func Variable[T int32 | float64 | byte](r *Reader, name string) ([]T, []int, error) {
	const op = "ugrid.Variable"
	if err := r.checkOpen(op); err != nil {
		return nil, nil, err
	}
	vn, err := longName(name)
	if err != nil {
		return nil, nil, err
	}

	var rank int32
	if err := r.invoke("ug_variable_count_dimensions", func() int32 {
		return r.lib.VariableCountDimensions(r.fileID, vn, &rank)
	}); err != nil {
		return nil, nil, err
	}
	if rank == 0 {
		return []T{}, []int{}, nil
	}
	dims := make([]int32, rank)
	if err := r.invoke("ug_variable_get_data_dimensions", func() int32 {
		return r.lib.VariableGetDataDimensions(r.fileID, vn, dims)
	}); err != nil {
		return nil, nil, err
	}

	shape := make([]int, rank)
	total := 1
	for i, d := range dims {
		shape[i] = int(d)
		total *= int(d)
	}
	if total <= 0 {
		return []T{}, shape, nil
	}

	data := make([]T, total)
	pins := bridge.NewPins()
	defer pins.Release()
	p := bridge.Pin(pins, data)

	var call func() int32
	var dataOp string
	switch any(data).(type) {
	case []int32:
		dataOp = "ug_variable_get_data_int"
		call = func() int32 { return r.lib.VariableGetDataInt(r.fileID, vn, p) }
	case []float64:
		dataOp = "ug_variable_get_data_double"
		call = func() int32 { return r.lib.VariableGetDataDouble(r.fileID, vn, p) }
	default:
		dataOp = "ug_variable_get_data_char"
		call = func() int32 { return r.lib.VariableGetDataChar(r.fileID, vn, p) }
	}
	if err := r.invoke(dataOp, call); err != nil {
		return nil, nil, err
	}
	return data, shape, nil
}

// VariableAttributes returns the attributes of a variable as text.
func (r *Reader) VariableAttributes(name string) (map[string]string, error) {
	return r.variableAttributes(name, r.invoke)
}

// variableAttributes reads the attributes of name. invoke runs the call that
// finds out whether the variable exists.
func (r *Reader) variableAttributes(name string, invoke func(op string, call func() int32) error) (map[string]string, error) {
	const op = "ugrid.Reader.VariableAttributes"
	if err := r.checkOpen(op); err != nil {
		return nil, err
	}
	vn, err := longName(name)
	if err != nil {
		return nil, err
	}

	var count int32
	if err := invoke("ug_variable_count_attributes", func() int32 {
		return r.lib.VariableCountAttributes(r.fileID, vn, &count)
	}); err != nil {
		return nil, err
	}
	if count <= 0 {
		return map[string]string{}, nil
	}

	size := int(count)*topology.NameLongLength + 1
	names := make([]byte, size)
	values := make([]byte, size)
	if err := r.invoke("ug_variable_get_attributes_names", func() int32 {
		return r.lib.VariableGetAttributesNames(r.fileID, vn, names)
	}); err != nil {
		return nil, err
	}
	if err := r.invoke("ug_variable_get_attributes_values", func() int32 {
		return r.lib.VariableGetAttributesValues(r.fileID, vn, values)
	}); err != nil {
		return nil, err
	}
	return bridge.ZipAttributes(names, values, int(count), topology.NameLongLength)
}

// TopologyAttributes returns the attributes of the topology variable of
// topology i of kind.
func (r *Reader) TopologyAttributes(kind TopologyKind, i int) (map[string]string, error) {
	bs, err := r.BufferSet(kind, i)
	if err != nil {
		return nil, err
	}
	name, err := nameOf(bs)
	if err != nil {
		return nil, err
	}
	return r.VariableAttributes(name)
}

// TopologyAttributesByName is TopologyAttributes for the topology with the
// given name.
func (r *Reader) TopologyAttributesByName(kind TopologyKind, name string) (map[string]string, error) {
	i, err := r.FindTopology(kind, name)
	if err != nil {
		return nil, err
	}
	return r.TopologyAttributes(kind, i)
}

// Conventions returns the file's Conventions global attribute.
func (r *Reader) Conventions() (string, error) {
	const op = "ugrid.Reader.Conventions"
	if err := r.checkOpen(op); err != nil {
		return "", err
	}
	an, err := longName("Conventions")
	if err != nil {
		return "", err
	}
	value := make([]byte, topology.NameLongLength)
	if err := r.invoke("ug_attribute_global_char_get", func() int32 {
		return r.lib.AttributeGlobalCharGet(r.fileID, an, value)
	}); err != nil {
		return "", err
	}
	return cstring(value), nil
}
