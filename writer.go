package ugrid

import (
	"errors"

	"github.com/23skdu/ugrid/internal/bridge"
	ugerrors "github.com/23skdu/ugrid/internal/errors"
	"github.com/23skdu/ugrid/internal/metrics"
	"github.com/23skdu/ugrid/internal/topology"
)

// Conventions is the value written to the Conventions global attribute.
const Conventions = "CF-1.8 UGRID-1.0"

// Writer creates a UGrid file. Topologies are declared with the Add methods
// and their data is written by Write; the file is complete once Close
// returns. It is not safe for concurrent use.
type Writer struct {
	session
	pins  *bridge.Pins
	added map[topology.Kind][]added
}

type added struct {
	id  int
	rec record
}

// OpenWriter creates path, replacing any existing file, and records the
// Conventions attribute.
func OpenWriter(path string, opts ...Option) (*Writer, error) {
	e, err := newOptions(opts).build()
	if err != nil {
		return nil, err
	}
	w := &Writer{
		session: newSession(e, path, "write"),
		pins:    bridge.NewPins(),
		added:   make(map[topology.Kind][]added, len(topology.Kinds)),
	}
	if err := w.open(modeReplace); err != nil {
		return nil, err
	}
	if err := w.globalAttribute("Conventions", Conventions); err != nil {
		return nil, errors.Join(err, w.Close())
	}
	return w, nil
}

func (w *Writer) globalAttribute(name, value string) error {
	an, err := longName(name)
	if err != nil {
		return err
	}
	v := []byte(value)
	return w.invoke("ug_attribute_global_char_define", func() int32 {
		return w.lib.AttributeGlobalCharDefine(w.fileID, an, v, int32(len(v)))
	})
}

// add defines r in the file and returns its topology id. The fields of r
// are pinned only for the duration of the call.
func (w *Writer) add(r record) (int, error) {
	const op = "ugrid.Writer.Add"
	if err := w.checkOpen(op); err != nil {
		return -1, err
	}
	if r == nil {
		return -1, ugerrors.NewInvalidArgument(op, "nil topology")
	}
	defer w.pins.Release()

	rec, err := assemble(r, w.pins)
	if err != nil {
		return -1, err
	}
	id, err := w.define(rec)
	if err != nil {
		return -1, err
	}
	kind := r.Kind()
	w.added[kind] = append(w.added[kind], added{id: id, rec: r})
	w.logger.Debug().Str("kind", kind.String()).Int("topology_id", id).Msg("topology defined")
	return id, nil
}

// AddMesh1D declares a 1D mesh and returns its topology id. m must not be
// modified in length before Write.
func (w *Writer) AddMesh1D(m *Mesh1D) (int, error) {
	if m == nil {
		return w.add(nil)
	}
	return w.add(m)
}

func (w *Writer) AddMesh2D(m *Mesh2D) (int, error) {
	if m == nil {
		return w.add(nil)
	}
	return w.add(m)
}

func (w *Writer) AddContacts(c *Contacts) (int, error) {
	if c == nil {
		return w.add(nil)
	}
	return w.add(c)
}

func (w *Writer) AddNetwork1D(n *Network1D) (int, error) {
	if n == nil {
		return w.add(nil)
	}
	return w.add(n)
}

// Write puts the data of every added topology, kind by kind.
func (w *Writer) Write() error {
	const op = "ugrid.Writer.Write"
	if err := w.checkOpen(op); err != nil {
		return err
	}
	for _, kind := range topology.Kinds {
		for _, a := range w.added[kind] {
			if err := w.write(a); err != nil {
				return err
			}
			metrics.TopologiesWrittenTotal.WithLabelValues(kind.String()).Inc()
		}
	}
	return nil
}

func (w *Writer) write(a added) error {
	defer w.pins.Release()
	rec, err := assemble(a.rec, w.pins)
	if err != nil {
		return err
	}
	return w.put(a.id, rec)
}

// AddProjectedCoordinateSystem stores pcs as the projected_coordinate_system
// variable.
func (w *Writer) AddProjectedCoordinateSystem(pcs ProjectedCoordinateSystem) error {
	const op = "ugrid.Writer.AddProjectedCoordinateSystem"
	if err := w.checkOpen(op); err != nil {
		return err
	}
	vn, err := longName(pcsVariable)
	if err != nil {
		return err
	}
	if err := w.invoke("ug_variable_int_define", func() int32 {
		return w.lib.VariableIntDefine(w.fileID, vn)
	}); err != nil {
		return err
	}

	for _, a := range pcs.intAttributes() {
		an, err := longName(a.name)
		if err != nil {
			return err
		}
		values := []int32{a.value}
		if err := w.invoke("ug_attribute_int_define", func() int32 {
			return w.lib.AttributeIntDefine(w.fileID, vn, an, values, 1)
		}); err != nil {
			return err
		}
	}
	for _, a := range pcs.doubleAttributes() {
		an, err := longName(a.name)
		if err != nil {
			return err
		}
		values := []float64{a.value}
		if err := w.invoke("ug_attribute_double_define", func() int32 {
			return w.lib.AttributeDoubleDefine(w.fileID, vn, an, values, 1)
		}); err != nil {
			return err
		}
	}
	for _, a := range pcs.charAttributes() {
		an, err := longName(a.name)
		if err != nil {
			return err
		}
		values := []byte(a.value)
		if err := w.invoke("ug_attribute_char_define", func() int32 {
			return w.lib.AttributeCharDefine(w.fileID, vn, an, values, int32(len(values)))
		}); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the file, which writes it out. Pins still held are reported
// and released. It is safe to call more than once.
func (w *Writer) Close() error {
	if w.state != stateOpen {
		return nil
	}
	if n := w.pins.Len(); n > 0 {
		w.logger.Error().Int("pins", n).Msg("releasing pins left by an interrupted call")
		w.pins.Release()
	}
	clear(w.added)
	return errors.Join(w.closeFile(), w.checkGuards())
}
