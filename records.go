package ugrid

import (
	"fmt"
	"unsafe"

	"github.com/23skdu/ugrid/internal/bridge"
	ugerrors "github.com/23skdu/ugrid/internal/errors"
	"github.com/23skdu/ugrid/internal/topology"
)

// Mesh1D is a one-dimensional mesh laid on a network.
type Mesh1D struct {
	Name           string
	NetworkName    string
	NodeLongNames  []string
	NodeX          []float64
	NodeY          []float64
	EdgeX          []float64
	EdgeY          []float64
	EdgeNodes      []int32
	EdgeEdgeID     []int32
	NodeEdgeID     []int32
	NodeEdgeOffset []float64

	NumNodes int32
	NumEdges int32
}

// NewMesh1D returns a mesh with its node coordinates, edge nodes and network
// placement pre-sized.
func NewMesh1D(name, network string, numNodes, numEdges int) *Mesh1D {
	return &Mesh1D{
		Name:           name,
		NetworkName:    network,
		NodeX:          make([]float64, numNodes),
		NodeY:          make([]float64, numNodes),
		EdgeNodes:      make([]int32, 2*numEdges),
		NodeEdgeID:     make([]int32, numNodes),
		NodeEdgeOffset: make([]float64, numNodes),
		NumNodes:       int32(numNodes),
		NumEdges:       int32(numEdges),
	}
}

func (m *Mesh1D) Kind() topology.Kind { return topology.Mesh1DKind }

func (m *Mesh1D) counts() topology.Counts {
	return topology.Counts{NumNodes: m.NumNodes, NumEdges: m.NumEdges}
}

func (m *Mesh1D) setCounts(c topology.Counts) { m.NumNodes, m.NumEdges = c.NumNodes, c.NumEdges }

func (m *Mesh1D) fields() []any {
	return []any{
		&m.Name, &m.NetworkName, &m.NodeLongNames,
		&m.NodeX, &m.NodeY, &m.EdgeX, &m.EdgeY,
		&m.EdgeNodes, &m.EdgeEdgeID, &m.NodeEdgeID, &m.NodeEdgeOffset,
	}
}

// Mesh2D is an unstructured two-dimensional mesh. Face arrays hold
// NumFaceNodesMax entries per face, padded with the fill value.
type Mesh2D struct {
	Name      string
	NodeX     []float64
	NodeY     []float64
	NodeZ     []float64
	EdgeX     []float64
	EdgeY     []float64
	EdgeZ     []float64
	FaceX     []float64
	FaceY     []float64
	FaceZ     []float64
	EdgeNodes []int32
	EdgeFaces []int32
	FaceNodes []int32
	FaceEdges []int32
	FaceFaces []int32

	NumNodes        int32
	NumEdges        int32
	NumFaces        int32
	NumFaceNodesMax int32
}

// NewMesh2D returns a mesh with node coordinates, edge nodes and face nodes
// pre-sized.
func NewMesh2D(name string, numNodes, numEdges, numFaces, numFaceNodesMax int) *Mesh2D {
	return &Mesh2D{
		Name:            name,
		NodeX:           make([]float64, numNodes),
		NodeY:           make([]float64, numNodes),
		EdgeNodes:       make([]int32, 2*numEdges),
		FaceNodes:       make([]int32, numFaces*numFaceNodesMax),
		NumNodes:        int32(numNodes),
		NumEdges:        int32(numEdges),
		NumFaces:        int32(numFaces),
		NumFaceNodesMax: int32(numFaceNodesMax),
	}
}

func (m *Mesh2D) Kind() topology.Kind { return topology.Mesh2DKind }

func (m *Mesh2D) counts() topology.Counts {
	return topology.Counts{
		NumNodes:        m.NumNodes,
		NumEdges:        m.NumEdges,
		NumFaces:        m.NumFaces,
		NumFaceNodesMax: m.NumFaceNodesMax,
	}
}

func (m *Mesh2D) setCounts(c topology.Counts) {
	m.NumNodes, m.NumEdges = c.NumNodes, c.NumEdges
	m.NumFaces, m.NumFaceNodesMax = c.NumFaces, c.NumFaceNodesMax
}

func (m *Mesh2D) fields() []any {
	return []any{
		&m.Name,
		&m.NodeX, &m.NodeY, &m.NodeZ,
		&m.EdgeX, &m.EdgeY, &m.EdgeZ,
		&m.FaceX, &m.FaceY, &m.FaceZ,
		&m.EdgeNodes, &m.EdgeFaces,
		&m.FaceNodes, &m.FaceEdges, &m.FaceFaces,
	}
}

// Contacts links the nodes of one mesh to the nodes or faces of another.
// Edges holds (from, to) pairs.
type Contacts struct {
	Name             string
	ContactNameIDs   []string
	MeshFromName     string
	MeshToName       string
	ContactLongNames []string
	Edges            []int32
	ContactType      []int32

	NumContacts int32
}

// NewContacts returns contacts with their edges and types pre-sized.
func NewContacts(name, meshFrom, meshTo string, numContacts int) *Contacts {
	return &Contacts{
		Name:         name,
		MeshFromName: meshFrom,
		MeshToName:   meshTo,
		Edges:        make([]int32, 2*numContacts),
		ContactType:  make([]int32, numContacts),
		NumContacts:  int32(numContacts),
	}
}

func (c *Contacts) Kind() topology.Kind { return topology.ContactsKind }

func (c *Contacts) counts() topology.Counts { return topology.Counts{NumContacts: c.NumContacts} }

func (c *Contacts) setCounts(n topology.Counts) { c.NumContacts = n.NumContacts }

func (c *Contacts) fields() []any {
	return []any{
		&c.Name, &c.ContactNameIDs, &c.MeshFromName, &c.MeshToName,
		&c.ContactLongNames, &c.Edges, &c.ContactType,
	}
}

// Network1D is a network of branches whose shape is given by geometry nodes.
type Network1D struct {
	Name                 string
	NodeIDs              []string
	NodeLongNames        []string
	EdgeIDs              []string
	EdgeLongNames        []string
	NodeX                []float64
	NodeY                []float64
	EdgeNodes            []int32
	EdgeLength           []float64
	EdgeOrder            []int32
	GeometryNodesX       []float64
	GeometryNodesY       []float64
	NumEdgeGeometryNodes []int32

	NumNodes         int32
	NumEdges         int32
	NumGeometryNodes int32
}

// NewNetwork1D returns a network with nodes, branches and geometry pre-sized.
func NewNetwork1D(name string, numNodes, numEdges, numGeometryNodes int) *Network1D {
	return &Network1D{
		Name:                 name,
		NodeX:                make([]float64, numNodes),
		NodeY:                make([]float64, numNodes),
		EdgeNodes:            make([]int32, 2*numEdges),
		EdgeLength:           make([]float64, numEdges),
		GeometryNodesX:       make([]float64, numGeometryNodes),
		GeometryNodesY:       make([]float64, numGeometryNodes),
		NumEdgeGeometryNodes: make([]int32, numEdges),
		NumNodes:             int32(numNodes),
		NumEdges:             int32(numEdges),
		NumGeometryNodes:     int32(numGeometryNodes),
	}
}

func (n *Network1D) Kind() topology.Kind { return topology.Network1DKind }

func (n *Network1D) counts() topology.Counts {
	return topology.Counts{NumNodes: n.NumNodes, NumEdges: n.NumEdges, NumGeometryNodes: n.NumGeometryNodes}
}

func (n *Network1D) setCounts(c topology.Counts) {
	n.NumNodes, n.NumEdges, n.NumGeometryNodes = c.NumNodes, c.NumEdges, c.NumGeometryNodes
}

func (n *Network1D) fields() []any {
	return []any{
		&n.Name, &n.NodeIDs, &n.NodeLongNames, &n.EdgeIDs, &n.EdgeLongNames,
		&n.NodeX, &n.NodeY, &n.EdgeNodes, &n.EdgeLength, &n.EdgeOrder,
		&n.GeometryNodesX, &n.GeometryNodesY, &n.NumEdgeGeometryNodes,
	}
}

// record is a managed topology. fields returns pointers to its members in
// field table order: *string for single names, *[]string for per-element
// names and the numeric slices as they are.
type record interface {
	Kind() topology.Kind
	counts() topology.Counts
	setCounts(topology.Counts)
	fields() []any
}

// assemble builds the native record for r, pinning every non-empty field.
// Slices must hold exactly the element count implied by r's counts.
func assemble(r record, pins *bridge.Pins) (topology.Record, error) {
	const op = "ugrid.assemble"
	kind := r.Kind()
	c := topology.Mask(kind, r.counts())
	for _, f := range topology.Fields(kind) {
		if n := f.ElementCount(c); n <= 0 {
			return nil, ugerrors.WrapInvalidArgument(topology.ErrNonPositiveCount, op,
				fmt.Sprintf("%s field %s would hold %d elements", kind, f.Name, n))
		}
	}
	rec := topology.NewRecord(kind)
	rec.SetCounts(c)

	slots := rec.Slots()
	for i, v := range r.fields() {
		f := topology.Fields(kind)[i]
		want := f.ElementCount(c)
		var p unsafe.Pointer
		switch v := v.(type) {
		case *string:
			if *v == "" {
				continue
			}
			buf, err := bridge.EncodeName(*v, f.Stride)
			if err != nil {
				return nil, fmt.Errorf("%s %s: %w", kind, f.Name, err)
			}
			p = bridge.Pin(pins, buf)
		case *[]string:
			if len(*v) == 0 {
				continue
			}
			if len(*v)*f.Stride != want {
				return nil, lengthError(op, kind, f, len(*v)*f.Stride, want)
			}
			buf, err := bridge.EncodeNames(*v, f.Stride)
			if err != nil {
				return nil, fmt.Errorf("%s %s: %w", kind, f.Name, err)
			}
			p = bridge.Pin(pins, buf)
		case *[]float64:
			if len(*v) == 0 {
				continue
			}
			if len(*v) != want {
				return nil, lengthError(op, kind, f, len(*v), want)
			}
			p = bridge.Pin(pins, *v)
		case *[]int32:
			if len(*v) == 0 {
				continue
			}
			if len(*v) != want {
				return nil, lengthError(op, kind, f, len(*v), want)
			}
			p = bridge.Pin(pins, *v)
		}
		*slots[i] = p
	}
	return rec, nil
}

func lengthError(op string, kind topology.Kind, f topology.Field, got, want int) error {
	return ugerrors.NewInvalidArgument(op,
		fmt.Sprintf("%s %s holds %d elements, counts require %d", kind, f.Name, got, want))
}

// extract copies every field of an allocated buffer set into r.
func extract(bs *topology.BufferSet, r record) error {
	kind := bs.Kind()
	if r.Kind() != kind {
		return ugerrors.WrapInvalidArgument(topology.ErrKindMismatch, "ugrid.extract", kind.String())
	}
	c := bs.Counts()
	r.setCounts(c)
	for i, v := range r.fields() {
		f := topology.Fields(kind)[i]
		h, err := bs.Handle(i)
		if err != nil {
			return err
		}
		data, err := bridge.CopyOutAs(h, f.Type, f.ElementCount(c))
		if err != nil {
			return fmt.Errorf("%s %s: %w", kind, f.Name, err)
		}
		switch v := v.(type) {
		case *string:
			if *v, err = bridge.DecodeName(data.([]byte)); err != nil {
				return fmt.Errorf("%s %s: %w", kind, f.Name, err)
			}
		case *[]string:
			if *v, err = bridge.SplitFixed(data.([]byte), f.Stride); err != nil {
				return fmt.Errorf("%s %s: %w", kind, f.Name, err)
			}
		case *[]float64:
			*v = data.([]float64)
		case *[]int32:
			*v = data.([]int32)
		}
	}
	return nil
}

// nameOf decodes the name field of an allocated buffer set.
func nameOf(bs *topology.BufferSet) (string, error) {
	h, err := bs.HandleByName("name")
	if err != nil {
		return "", err
	}
	buf, err := bridge.CopyOut[byte](h, topology.NameLongLength)
	if err != nil {
		return "", err
	}
	return bridge.DecodeName(buf)
}
