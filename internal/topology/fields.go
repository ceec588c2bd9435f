package topology

// Extent names the count a field's length is proportional to.
type Extent int

const (
	// ExtentFixed fields hold exactly Stride elements.
	ExtentFixed Extent = iota
	ExtentNodes
	ExtentEdges
	ExtentFaces
	ExtentContacts
	ExtentGeometryNodes
	// ExtentFaceNodes fields hold num_faces × num_face_nodes_max × Stride elements.
	ExtentFaceNodes
)

// Field describes one variable-length field of a record.
type Field struct {
	Name   string
	Type   ElementType
	Extent Extent
	Stride int
}

func name(n string) Field { return Field{Name: n, Type: Byte, Extent: ExtentFixed, Stride: NameLongLength} }

func names(n string, e Extent, width int) Field {
	return Field{Name: n, Type: Byte, Extent: e, Stride: width}
}

func doubles(n string, e Extent) Field { return Field{Name: n, Type: Float64, Extent: e, Stride: 1} }

func ints(n string, e Extent, stride int) Field {
	return Field{Name: n, Type: Int32, Extent: e, Stride: stride}
}

// Field tables. Order is declaration order, allocation order and slot order.
var (
	mesh1DFields = []Field{
		name("name"),
		name("network_name"),
		names("node_long_name", ExtentNodes, NameLongLength),
		doubles("node_x", ExtentNodes),
		doubles("node_y", ExtentNodes),
		doubles("edge_x", ExtentEdges),
		doubles("edge_y", ExtentEdges),
		ints("edge_nodes", ExtentEdges, 2),
		ints("edge_edge_id", ExtentEdges, 1),
		ints("node_edge_id", ExtentNodes, 1),
		doubles("node_edge_offset", ExtentNodes),
	}

	mesh2DFields = []Field{
		name("name"),
		doubles("node_x", ExtentNodes),
		doubles("node_y", ExtentNodes),
		doubles("node_z", ExtentNodes),
		doubles("edge_x", ExtentEdges),
		doubles("edge_y", ExtentEdges),
		doubles("edge_z", ExtentEdges),
		doubles("face_x", ExtentFaces),
		doubles("face_y", ExtentFaces),
		doubles("face_z", ExtentFaces),
		ints("edge_nodes", ExtentEdges, 2),
		ints("edge_faces", ExtentEdges, 2),
		ints("face_nodes", ExtentFaceNodes, 1),
		ints("face_edges", ExtentFaceNodes, 1),
		ints("face_faces", ExtentFaceNodes, 1),
	}

	contactsFields = []Field{
		name("name"),
		names("contact_name_id", ExtentContacts, NameLength),
		name("mesh_from_name"),
		name("mesh_to_name"),
		names("contact_name_long", ExtentContacts, NameLongLength),
		ints("edges", ExtentContacts, 2),
		ints("contact_type", ExtentContacts, 1),
	}

	network1DFields = []Field{
		name("name"),
		names("node_id", ExtentNodes, NameLength),
		names("node_long_name", ExtentNodes, NameLongLength),
		names("edge_id", ExtentEdges, NameLength),
		names("edge_long_name", ExtentEdges, NameLongLength),
		doubles("node_x", ExtentNodes),
		doubles("node_y", ExtentNodes),
		ints("edge_nodes", ExtentEdges, 2),
		doubles("edge_length", ExtentEdges),
		ints("edge_order", ExtentEdges, 1),
		doubles("geometry_nodes_x", ExtentGeometryNodes),
		doubles("geometry_nodes_y", ExtentGeometryNodes),
		ints("num_edge_geometry_nodes", ExtentEdges, 1),
	}
)

// Fields returns the field table of kind, nil for an unknown kind. The
// returned slice must not be modified.
func Fields(kind Kind) []Field {
	switch kind {
	case Mesh1DKind:
		return mesh1DFields
	case Mesh2DKind:
		return mesh2DFields
	case ContactsKind:
		return contactsFields
	case Network1DKind:
		return network1DFields
	default:
		return nil
	}
}

// FieldIndex returns the position of the named field in kind's table, or -1.
func FieldIndex(kind Kind, field string) int {
	for i, f := range Fields(kind) {
		if f.Name == field {
			return i
		}
	}
	return -1
}
