package ugridapi

import (
	"fmt"
	"strings"

	"github.com/23skdu/ugrid/internal/storage"
	"github.com/23skdu/ugrid/internal/topology"
)

// Shared dimensions.
const (
	dimTwo            = "Two"
	dimNameLength     = "strLengthIds"
	dimLongNameLength = "strLengthLongNames"
)

const (
	roleTopology = "mesh_topology"
	roleContact  = "mesh_topology_contact"
)

// extentDim names the topology attribute holding the dimension of an extent
// and the suffix used when the dimension is created.
type extentDim struct {
	extent topology.Extent
	attr   string
	suffix string
}

// extentDims is in declaration order.
var extentDims = []extentDim{
	{topology.ExtentNodes, "node_dimension", "_nNodes"},
	{topology.ExtentEdges, "edge_dimension", "_nEdges"},
	{topology.ExtentFaces, "face_dimension", "_nFaces"},
	{topology.ExtentContacts, "contact_dimension", "_nContacts"},
	{topology.ExtentGeometryNodes, "geometry_node_dimension", "_nGeometryNodes"},
}

var maxFaceNodesDim = extentDim{topology.ExtentFaceNodes, "max_face_nodes_dimension", "_nMax_face_nodes"}

func dimOf(ext topology.Extent) extentDim {
	if ext == topology.ExtentFaceNodes {
		ext = topology.ExtentFaces
	}
	for _, d := range extentDims {
		if d.extent == ext {
			return d
		}
	}
	return extentDim{}
}

var connectivity = map[string]string{
	"edge_nodes": "edge_node_connectivity",
	"edge_faces": "edge_face_connectivity",
	"face_nodes": "face_node_connectivity",
	"face_edges": "face_edge_connectivity",
	"face_faces": "face_face_connectivity",
}

var locations = map[topology.Extent]string{
	topology.ExtentNodes:         "node",
	topology.ExtentEdges:         "edge",
	topology.ExtentFaces:         "face",
	topology.ExtentFaceNodes:     "face",
	topology.ExtentContacts:      "contact",
	topology.ExtentGeometryNodes: "geometry_node",
}

// entity is one topology held by an open file.
type entity struct {
	kind     topology.Kind
	name     string
	counts   topology.Counts
	network  string
	meshFrom string
	meshTo   string
}

// meta returns the value of a single fixed-width name field, and whether f
// is such a field.
func (e *entity) meta(f topology.Field) (string, bool) {
	if f.Extent != topology.ExtentFixed {
		return "", false
	}
	switch f.Name {
	case "name":
		return e.name, true
	case "network_name":
		return e.network, true
	case "mesh_from_name":
		return e.meshFrom, true
	case "mesh_to_name":
		return e.meshTo, true
	}
	return "", true
}

// varName returns the variable holding field f. Contact edges live in the
// topology variable itself.
func (e *entity) varName(f topology.Field) string {
	if e.kind == topology.ContactsKind && f.Name == "edges" {
		return e.name
	}
	return e.name + "_" + f.Name
}

func (e *entity) dimName(ext topology.Extent) string {
	return e.name + dimOf(ext).suffix
}

func extentCount(ext topology.Extent, c topology.Counts) int32 {
	switch ext {
	case topology.ExtentNodes:
		return c.NumNodes
	case topology.ExtentEdges:
		return c.NumEdges
	case topology.ExtentFaces, topology.ExtentFaceNodes:
		return c.NumFaces
	case topology.ExtentContacts:
		return c.NumContacts
	case topology.ExtentGeometryNodes:
		return c.NumGeometryNodes
	default:
		return 0
	}
}

// dims returns the dimensions of the variable holding field f.
func (e *entity) dims(f topology.Field) []string {
	switch {
	case f.Extent == topology.ExtentFaceNodes:
		return []string{e.dimName(f.Extent), e.name + maxFaceNodesDim.suffix}
	case f.Type == topology.Byte && f.Stride == topology.NameLength:
		return []string{e.dimName(f.Extent), dimNameLength}
	case f.Type == topology.Byte:
		return []string{e.dimName(f.Extent), dimLongNameLength}
	case f.Stride == 2:
		return []string{e.dimName(f.Extent), dimTwo}
	default:
		return []string{e.dimName(f.Extent)}
	}
}

func dataType(t topology.ElementType) storage.DataType {
	switch t {
	case topology.Int32:
		return storage.TypeInt
	case topology.Float64:
		return storage.TypeDouble
	default:
		return storage.TypeChar
	}
}

func topologyDimension(kind topology.Kind) int32 {
	if kind == topology.Mesh2DKind {
		return 2
	}
	return 1
}

func longName(kind topology.Kind) string {
	switch kind {
	case topology.Mesh1DKind:
		return "Topology data of 1D mesh"
	case topology.Mesh2DKind:
		return "Topology data of 2D mesh"
	case topology.Network1DKind:
		return "Topology data of 1D network"
	default:
		return "Contacts between meshes"
	}
}

// define declares e in ds: its dimensions, its topology variable and an empty
// data variable for every field present.
func (e *entity) define(ds *storage.Dataset, present func(i int) bool) error {
	if _, ok := ds.Variable(e.name); ok {
		return fmt.Errorf("variable %s already exists", e.name)
	}

	topo := &storage.Variable{Name: e.name, Type: storage.TypeInt}
	if e.kind == topology.ContactsKind {
		topo.SetAttribute(storage.TextAttribute("cf_role", roleContact))
		topo.SetAttribute(storage.TextAttribute("contact", fmt.Sprintf("%s: node %s: face", e.meshFrom, e.meshTo)))
	} else {
		topo.SetAttribute(storage.TextAttribute("cf_role", roleTopology))
		topo.SetAttribute(storage.IntAttribute("topology_dimension", topologyDimension(e.kind)))
	}
	topo.SetAttribute(storage.TextAttribute("long_name", longName(e.kind)))
	if e.kind == topology.Mesh1DKind {
		topo.SetAttribute(storage.TextAttribute("coordinate_space", e.network))
	}

	fields := topology.Fields(e.kind)
	for _, d := range extentDims {
		if !usesExtent(fields, d.extent) {
			continue
		}
		n := extentCount(d.extent, e.counts)
		if n <= 0 {
			continue
		}
		if err := ds.AddDimension(e.name+d.suffix, int(n)); err != nil {
			return err
		}
		topo.SetAttribute(storage.TextAttribute(d.attr, e.name+d.suffix))
	}
	if e.kind == topology.Mesh2DKind && e.counts.NumFaces > 0 && e.counts.NumFaceNodesMax > 0 {
		if err := ds.AddDimension(e.name+maxFaceNodesDim.suffix, int(e.counts.NumFaceNodesMax)); err != nil {
			return err
		}
		topo.SetAttribute(storage.TextAttribute(maxFaceNodesDim.attr, e.name+maxFaceNodesDim.suffix))
	}
	for _, d := range []storage.Dimension{{Name: dimTwo, Len: 2}, {Name: dimNameLength, Len: topology.NameLength}, {Name: dimLongNameLength, Len: topology.NameLongLength}} {
		if err := ds.AddDimension(d.Name, d.Len); err != nil {
			return err
		}
	}

	for _, loc := range []string{"node", "edge", "face"} {
		if topology.FieldIndex(e.kind, loc+"_x") >= 0 && topology.FieldIndex(e.kind, loc+"_y") >= 0 {
			topo.SetAttribute(storage.TextAttribute(loc+"_coordinates",
				fmt.Sprintf("%s_%s_x %s_%s_y", e.name, loc, e.name, loc)))
		}
	}
	if e.kind == topology.Network1DKind {
		topo.SetAttribute(storage.TextAttribute("edge_geometry", e.name+"_geometry"))
	}

	var data []*storage.Variable
	for i, f := range fields {
		if _, isMeta := e.meta(f); isMeta || !present(i) || f.ElementCount(e.counts) <= 0 {
			continue
		}
		if attr, ok := connectivity[f.Name]; ok {
			topo.SetAttribute(storage.TextAttribute(attr, e.varName(f)))
		}
		if e.varName(f) == e.name {
			topo.Dims = e.dims(f)
			continue
		}
		data = append(data, e.dataVariable(f))
	}

	if err := ds.AddVariable(topo); err != nil {
		return err
	}
	if e.kind == topology.Network1DKind {
		geometry := &storage.Variable{Name: e.name + "_geometry", Type: storage.TypeInt}
		geometry.SetAttribute(storage.TextAttribute("geometry_type", "line"))
		geometry.SetAttribute(storage.TextAttribute("node_count", e.name+"_num_edge_geometry_nodes"))
		geometry.SetAttribute(storage.TextAttribute("node_coordinates",
			fmt.Sprintf("%s_geometry_nodes_x %s_geometry_nodes_y", e.name, e.name)))
		if err := ds.AddVariable(geometry); err != nil {
			return err
		}
	}
	for _, v := range data {
		if err := ds.AddVariable(v); err != nil {
			return err
		}
	}
	return nil
}

func (e *entity) dataVariable(f topology.Field) *storage.Variable {
	v := &storage.Variable{Name: e.varName(f), Type: dataType(f.Type), Dims: e.dims(f)}
	v.SetAttribute(storage.TextAttribute("mesh", e.name))
	v.SetAttribute(storage.TextAttribute("location", locations[f.Extent]))
	v.SetAttribute(storage.TextAttribute("long_name", strings.ReplaceAll(f.Name, "_", " ")))
	switch f.Type {
	case topology.Int32:
		v.SetAttribute(storage.IntAttribute("_FillValue", IntFillValue))
		if _, ok := connectivity[f.Name]; ok {
			v.SetAttribute(storage.IntAttribute("start_index", 0))
		}
		if f.Name == "contact_type" {
			v.SetAttribute(storage.IntAttribute("flag_values", 3, 4))
			v.SetAttribute(storage.TextAttribute("flag_meanings", "lateral_1d2d_link longitudinal_1d2d_link"))
		}
	case topology.Float64:
		v.SetAttribute(storage.DoubleAttribute("_FillValue", DoubleFillValue))
	}
	return v
}

func usesExtent(fields []topology.Field, ext topology.Extent) bool {
	for _, f := range fields {
		if f.Extent == ext || (ext == topology.ExtentFaces && f.Extent == topology.ExtentFaceNodes) {
			return true
		}
	}
	return false
}

// scan reconstructs the topologies of a loaded dataset from the roles of its
// variables, in file order.
func (f *file) scan() error {
	for _, v := range f.ds.Variables {
		role, ok := v.Attribute("cf_role")
		if !ok {
			continue
		}
		e := &entity{name: v.Name}
		switch role.Text {
		case roleContact:
			e.kind = topology.ContactsKind
			if c, ok := v.Attribute("contact"); ok {
				e.meshFrom, e.meshTo = parseContact(c.Text)
			}
		case roleTopology:
			dim, ok := v.Attribute("topology_dimension")
			switch {
			case ok && len(dim.Ints) > 0 && dim.Ints[0] == 2:
				e.kind = topology.Mesh2DKind
			default:
				if cs, ok := v.Attribute("coordinate_space"); ok {
					e.kind = topology.Mesh1DKind
					e.network = cs.Text
				} else {
					e.kind = topology.Network1DKind
				}
			}
		default:
			continue
		}

		c, err := f.countsOf(v)
		if err != nil {
			return fmt.Errorf("topology %s: %w", v.Name, err)
		}
		e.counts = topology.Mask(e.kind, c)
		f.entities[e.kind] = append(f.entities[e.kind], e)
	}
	return nil
}

func (f *file) countsOf(topo *storage.Variable) (topology.Counts, error) {
	var c topology.Counts
	lookup := func(attr string) (int32, error) {
		a, ok := topo.Attribute(attr)
		if !ok {
			return 0, nil
		}
		n, ok := f.ds.Dimension(a.Text)
		if !ok {
			return 0, fmt.Errorf("%s refers to missing dimension %s", attr, a.Text)
		}
		return int32(n), nil
	}
	var err error
	for _, p := range []struct {
		attr string
		dst  *int32
	}{
		{dimOf(topology.ExtentNodes).attr, &c.NumNodes},
		{dimOf(topology.ExtentEdges).attr, &c.NumEdges},
		{dimOf(topology.ExtentFaces).attr, &c.NumFaces},
		{maxFaceNodesDim.attr, &c.NumFaceNodesMax},
		{dimOf(topology.ExtentContacts).attr, &c.NumContacts},
		{dimOf(topology.ExtentGeometryNodes).attr, &c.NumGeometryNodes},
	} {
		if *p.dst, err = lookup(p.attr); err != nil {
			return c, err
		}
	}
	return c, nil
}

// parseContact splits "<from>: node <to>: face".
func parseContact(s string) (from, to string) {
	fields := strings.Fields(s)
	if len(fields) >= 1 {
		from = strings.TrimSuffix(fields[0], ":")
	}
	if len(fields) >= 3 {
		to = strings.TrimSuffix(fields[2], ":")
	}
	return from, to
}
