package ugridapi

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"github.com/23skdu/ugrid/internal/bridge"
	"github.com/23skdu/ugrid/internal/storage"
	"github.com/23skdu/ugrid/internal/topology"
)

var (
	errMissingName    = errors.New("topology name is empty")
	errCountsMismatch = errors.New("record counts differ from the defined topology")
	errLengthMismatch = errors.New("stored variable length differs from the record counts")
)

// readName reads a fixed-width name field from a native buffer.
func readName(p unsafe.Pointer) string {
	return strings.TrimSpace(cstring(bridge.View[byte](p, topology.NameLongLength)))
}

func (l *Library) entity(f *file, kind topology.Kind, topologyID int32) (*entity, error) {
	list := f.entities[kind]
	if topologyID < 0 || int(topologyID) >= len(list) {
		return nil, fmt.Errorf("%w: %s %d of %d", errTopologyIndex, kind, topologyID, len(list))
	}
	return list[topologyID], nil
}

func (l *Library) writableFile(fileID int32) (*file, error) {
	f, err := l.file(fileID)
	if err != nil {
		return nil, err
	}
	if !f.writable() {
		return nil, fmt.Errorf("%w: %s", errReadOnly, f.path)
	}
	return f, nil
}

// def declares a new topology from the names and counts in rec. Data fields
// with a non-nil pointer get a variable.
func (l *Library) def(fileID int32, rec topology.Record, topologyID *int32) error {
	if rec == nil || topologyID == nil {
		return errNilPointer
	}
	f, err := l.writableFile(fileID)
	if err != nil {
		return err
	}
	kind := rec.Kind()
	slots := rec.Slots()
	fields := topology.Fields(kind)

	e := &entity{kind: kind, counts: topology.Mask(kind, rec.Counts())}
	for i, fd := range fields {
		if _, isMeta := e.meta(fd); !isMeta || *slots[i] == nil {
			continue
		}
		v := readName(*slots[i])
		switch fd.Name {
		case "name":
			e.name = v
		case "network_name":
			e.network = v
		case "mesh_from_name":
			e.meshFrom = v
		case "mesh_to_name":
			e.meshTo = v
		}
	}
	if e.name == "" {
		return errMissingName
	}

	if err := e.define(f.ds, func(i int) bool { return *slots[i] != nil }); err != nil {
		return fmt.Errorf("define %s %s: %w", kind, e.name, err)
	}
	f.entities[kind] = append(f.entities[kind], e)
	*topologyID = int32(len(f.entities[kind]) - 1)
	l.logger.Debug().Str("kind", kind.String()).Str("name", e.name).Int32("topology_id", *topologyID).Msg("topology defined")
	return nil
}

// put copies every non-nil data field of rec into the file.
func (l *Library) put(fileID, topologyID int32, rec topology.Record) error {
	if rec == nil {
		return errNilPointer
	}
	f, err := l.writableFile(fileID)
	if err != nil {
		return err
	}
	kind := rec.Kind()
	e, err := l.entity(f, kind, topologyID)
	if err != nil {
		return err
	}
	if c := topology.Mask(kind, rec.Counts()); c != e.counts {
		return fmt.Errorf("%w: %s %s defined with %+v, got %+v", errCountsMismatch, kind, e.name, e.counts, c)
	}

	slots := rec.Slots()
	for i, fd := range topology.Fields(kind) {
		n := fd.ElementCount(e.counts)
		if _, isMeta := e.meta(fd); isMeta || *slots[i] == nil || n <= 0 {
			continue
		}
		v, err := e.variable(f.ds, fd)
		if err != nil {
			return err
		}
		p := *slots[i]
		switch fd.Type {
		case topology.Int32:
			v.Ints = append(v.Ints[:0], bridge.View[int32](p, n)...)
		case topology.Float64:
			v.Doubles = append(v.Doubles[:0], bridge.View[float64](p, n)...)
		case topology.Byte:
			v.Chars = append(v.Chars[:0], bridge.View[byte](p, n)...)
		}
	}
	return nil
}

// variable returns the variable holding fd, declaring it when the field was
// not present at definition time.
func (e *entity) variable(ds *storage.Dataset, fd topology.Field) (*storage.Variable, error) {
	name := e.varName(fd)
	if v, ok := ds.Variable(name); ok {
		if v.Name == e.name && len(v.Dims) == 0 {
			v.Dims = e.dims(fd)
		}
		return v, nil
	}
	v := e.dataVariable(fd)
	if err := ds.AddVariable(v); err != nil {
		return nil, err
	}
	if attr, ok := connectivity[fd.Name]; ok {
		if topo, ok := ds.Variable(e.name); ok {
			topo.SetAttribute(storage.TextAttribute(attr, name))
		}
	}
	return v, nil
}

// inq reports the counts of a topology.
func (l *Library) inq(fileID, topologyID int32, rec topology.Record) error {
	if rec == nil {
		return errNilPointer
	}
	f, err := l.file(fileID)
	if err != nil {
		return err
	}
	e, err := l.entity(f, rec.Kind(), topologyID)
	if err != nil {
		return err
	}
	rec.SetCounts(e.counts)
	return nil
}

// get fills every non-nil field of rec. Data missing from the file is
// written as fill values.
func (l *Library) get(fileID, topologyID int32, rec topology.Record) error {
	if rec == nil {
		return errNilPointer
	}
	f, err := l.file(fileID)
	if err != nil {
		return err
	}
	kind := rec.Kind()
	e, err := l.entity(f, kind, topologyID)
	if err != nil {
		return err
	}
	if c := topology.Mask(kind, rec.Counts()); c != e.counts {
		return fmt.Errorf("%w: %s %s holds %+v, got %+v", errCountsMismatch, kind, e.name, e.counts, c)
	}

	slots := rec.Slots()
	for i, fd := range topology.Fields(kind) {
		p := *slots[i]
		n := fd.ElementCount(e.counts)
		if p == nil || n <= 0 {
			continue
		}
		if value, isMeta := e.meta(fd); isMeta {
			writeName(bridge.View[byte](p, n), value)
			continue
		}
		v, ok := f.ds.Variable(e.varName(fd))
		if !ok || v.Len() == 0 {
			fill(fd.Type, p, n)
			continue
		}
		if v.Len() != n {
			return fmt.Errorf("%w: %s holds %d elements, expected %d", errLengthMismatch, v.Name, v.Len(), n)
		}
		switch fd.Type {
		case topology.Int32:
			copy(bridge.View[int32](p, n), v.Ints)
		case topology.Float64:
			copy(bridge.View[float64](p, n), v.Doubles)
		case topology.Byte:
			copy(bridge.View[byte](p, n), v.Chars)
		}
	}
	return nil
}

// writeName stores s space-padded and NUL-terminated, truncated to fit.
func writeName(dst []byte, s string) {
	if len(dst) == 0 {
		return
	}
	n := copy(dst[:len(dst)-1], s)
	for i := n; i < len(dst)-1; i++ {
		dst[i] = ' '
	}
	dst[len(dst)-1] = 0
}

func fill(t topology.ElementType, p unsafe.Pointer, n int) {
	switch t {
	case topology.Int32:
		s := bridge.View[int32](p, n)
		for i := range s {
			s[i] = IntFillValue
		}
	case topology.Float64:
		s := bridge.View[float64](p, n)
		for i := range s {
			s[i] = DoubleFillValue
		}
	case topology.Byte:
		s := bridge.View[byte](p, n)
		for i := range s {
			s[i] = ' '
		}
	}
}

func (l *Library) Mesh1DDef(fileID int32, m *topology.Mesh1D, topologyID *int32) int32 {
	return l.call("ug_mesh1d_def", func() error { return l.def(fileID, mesh1D(m), topologyID) })
}

func (l *Library) Mesh1DPut(fileID, topologyID int32, m *topology.Mesh1D) int32 {
	return l.call("ug_mesh1d_put", func() error { return l.put(fileID, topologyID, mesh1D(m)) })
}

func (l *Library) Mesh1DInq(fileID, topologyID int32, m *topology.Mesh1D) int32 {
	return l.call("ug_mesh1d_inq", func() error { return l.inq(fileID, topologyID, mesh1D(m)) })
}

func (l *Library) Mesh1DGet(fileID, topologyID int32, m *topology.Mesh1D) int32 {
	return l.call("ug_mesh1d_get", func() error { return l.get(fileID, topologyID, mesh1D(m)) })
}

func (l *Library) Mesh2DDef(fileID int32, m *topology.Mesh2D, topologyID *int32) int32 {
	return l.call("ug_mesh2d_def", func() error { return l.def(fileID, mesh2D(m), topologyID) })
}

func (l *Library) Mesh2DPut(fileID, topologyID int32, m *topology.Mesh2D) int32 {
	return l.call("ug_mesh2d_put", func() error { return l.put(fileID, topologyID, mesh2D(m)) })
}

func (l *Library) Mesh2DInq(fileID, topologyID int32, m *topology.Mesh2D) int32 {
	return l.call("ug_mesh2d_inq", func() error { return l.inq(fileID, topologyID, mesh2D(m)) })
}

func (l *Library) Mesh2DGet(fileID, topologyID int32, m *topology.Mesh2D) int32 {
	return l.call("ug_mesh2d_get", func() error { return l.get(fileID, topologyID, mesh2D(m)) })
}

func (l *Library) ContactsDef(fileID int32, c *topology.Contacts, topologyID *int32) int32 {
	return l.call("ug_contacts_def", func() error { return l.def(fileID, contacts(c), topologyID) })
}

func (l *Library) ContactsPut(fileID, topologyID int32, c *topology.Contacts) int32 {
	return l.call("ug_contacts_put", func() error { return l.put(fileID, topologyID, contacts(c)) })
}

func (l *Library) ContactsInq(fileID, topologyID int32, c *topology.Contacts) int32 {
	return l.call("ug_contacts_inq", func() error { return l.inq(fileID, topologyID, contacts(c)) })
}

func (l *Library) ContactsGet(fileID, topologyID int32, c *topology.Contacts) int32 {
	return l.call("ug_contacts_get", func() error { return l.get(fileID, topologyID, contacts(c)) })
}

func (l *Library) Network1DDef(fileID int32, n *topology.Network1D, topologyID *int32) int32 {
	return l.call("ug_network1d_def", func() error { return l.def(fileID, network1D(n), topologyID) })
}

func (l *Library) Network1DPut(fileID, topologyID int32, n *topology.Network1D) int32 {
	return l.call("ug_network1d_put", func() error { return l.put(fileID, topologyID, network1D(n)) })
}

func (l *Library) Network1DInq(fileID, topologyID int32, n *topology.Network1D) int32 {
	return l.call("ug_network1d_inq", func() error { return l.inq(fileID, topologyID, network1D(n)) })
}

func (l *Library) Network1DGet(fileID, topologyID int32, n *topology.Network1D) int32 {
	return l.call("ug_network1d_get", func() error { return l.get(fileID, topologyID, network1D(n)) })
}

// The record helpers keep a nil pointer from becoming a non-nil interface.

func mesh1D(m *topology.Mesh1D) topology.Record {
	if m == nil {
		return nil
	}
	return m
}

func mesh2D(m *topology.Mesh2D) topology.Record {
	if m == nil {
		return nil
	}
	return m
}

func contacts(c *topology.Contacts) topology.Record {
	if c == nil {
		return nil
	}
	return c
}

func network1D(n *topology.Network1D) topology.Record {
	if n == nil {
		return nil
	}
	return n
}
