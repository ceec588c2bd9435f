package topology

import "unsafe"

// Record is the native-shaped view of one topology instance: scalar counts
// plus one raw pointer per variable-length field. A record wraps buffers, it
// never owns them.
type Record interface {
	Kind() Kind
	Counts() Counts
	SetCounts(Counts)
	// Slots returns pointers to the field pointers in table order.
	Slots() []*unsafe.Pointer
}

// NewRecord returns an empty record of kind, nil for an unknown kind.
func NewRecord(kind Kind) Record {
	switch kind {
	case Mesh1DKind:
		return &Mesh1D{}
	case Mesh2DKind:
		return &Mesh2D{}
	case ContactsKind:
		return &Contacts{}
	case Network1DKind:
		return &Network1D{}
	default:
		return nil
	}
}

// Mesh1D mirrors the native 1D mesh struct.
type Mesh1D struct {
	Name           unsafe.Pointer
	NetworkName    unsafe.Pointer
	NodeLongName   unsafe.Pointer
	NodeX          unsafe.Pointer
	NodeY          unsafe.Pointer
	EdgeX          unsafe.Pointer
	EdgeY          unsafe.Pointer
	EdgeNodes      unsafe.Pointer
	EdgeEdgeID     unsafe.Pointer
	NodeEdgeID     unsafe.Pointer
	NodeEdgeOffset unsafe.Pointer

	NumNodes int32
	NumEdges int32
}

// Kind returns Mesh1DKind.
func (r *Mesh1D) Kind() Kind { return Mesh1DKind }

// Counts returns the scalar counts.
func (r *Mesh1D) Counts() Counts {
	return Counts{NumNodes: r.NumNodes, NumEdges: r.NumEdges}
}

// SetCounts copies the counts relevant to Mesh1D.
func (r *Mesh1D) SetCounts(c Counts) {
	r.NumNodes, r.NumEdges = c.NumNodes, c.NumEdges
}

// Slots returns the field pointer slots in table order.
func (r *Mesh1D) Slots() []*unsafe.Pointer {
	return []*unsafe.Pointer{
		&r.Name, &r.NetworkName, &r.NodeLongName,
		&r.NodeX, &r.NodeY, &r.EdgeX, &r.EdgeY,
		&r.EdgeNodes, &r.EdgeEdgeID, &r.NodeEdgeID, &r.NodeEdgeOffset,
	}
}

// Mesh2D mirrors the native 2D mesh struct.
type Mesh2D struct {
	Name      unsafe.Pointer
	NodeX     unsafe.Pointer
	NodeY     unsafe.Pointer
	NodeZ     unsafe.Pointer
	EdgeX     unsafe.Pointer
	EdgeY     unsafe.Pointer
	EdgeZ     unsafe.Pointer
	FaceX     unsafe.Pointer
	FaceY     unsafe.Pointer
	FaceZ     unsafe.Pointer
	EdgeNodes unsafe.Pointer
	EdgeFaces unsafe.Pointer
	FaceNodes unsafe.Pointer
	FaceEdges unsafe.Pointer
	FaceFaces unsafe.Pointer

	NumNodes        int32
	NumEdges        int32
	NumFaces        int32
	NumFaceNodesMax int32
}

// Kind returns Mesh2DKind.
func (r *Mesh2D) Kind() Kind { return Mesh2DKind }

// Counts returns the scalar counts.
func (r *Mesh2D) Counts() Counts {
	return Counts{
		NumNodes:        r.NumNodes,
		NumEdges:        r.NumEdges,
		NumFaces:        r.NumFaces,
		NumFaceNodesMax: r.NumFaceNodesMax,
	}
}

// SetCounts copies the counts relevant to Mesh2D.
func (r *Mesh2D) SetCounts(c Counts) {
	r.NumNodes, r.NumEdges = c.NumNodes, c.NumEdges
	r.NumFaces, r.NumFaceNodesMax = c.NumFaces, c.NumFaceNodesMax
}

// Slots returns the field pointer slots in table order.
func (r *Mesh2D) Slots() []*unsafe.Pointer {
	return []*unsafe.Pointer{
		&r.Name,
		&r.NodeX, &r.NodeY, &r.NodeZ,
		&r.EdgeX, &r.EdgeY, &r.EdgeZ,
		&r.FaceX, &r.FaceY, &r.FaceZ,
		&r.EdgeNodes, &r.EdgeFaces,
		&r.FaceNodes, &r.FaceEdges, &r.FaceFaces,
	}
}

// Contacts mirrors the native contacts struct.
type Contacts struct {
	Name            unsafe.Pointer
	ContactNameID   unsafe.Pointer
	MeshFromName    unsafe.Pointer
	MeshToName      unsafe.Pointer
	ContactNameLong unsafe.Pointer
	Edges           unsafe.Pointer
	ContactType     unsafe.Pointer

	NumContacts int32
}

// Kind returns ContactsKind.
func (r *Contacts) Kind() Kind { return ContactsKind }

// Counts returns the scalar counts.
func (r *Contacts) Counts() Counts { return Counts{NumContacts: r.NumContacts} }

// SetCounts copies the counts relevant to Contacts.
func (r *Contacts) SetCounts(c Counts) { r.NumContacts = c.NumContacts }

// Slots returns the field pointer slots in table order.
func (r *Contacts) Slots() []*unsafe.Pointer {
	return []*unsafe.Pointer{
		&r.Name, &r.ContactNameID, &r.MeshFromName, &r.MeshToName,
		&r.ContactNameLong, &r.Edges, &r.ContactType,
	}
}

// Network1D mirrors the native 1D network struct.
type Network1D struct {
	Name                 unsafe.Pointer
	NodeID               unsafe.Pointer
	NodeLongName         unsafe.Pointer
	EdgeID               unsafe.Pointer
	EdgeLongName         unsafe.Pointer
	NodeX                unsafe.Pointer
	NodeY                unsafe.Pointer
	EdgeNodes            unsafe.Pointer
	EdgeLength           unsafe.Pointer
	EdgeOrder            unsafe.Pointer
	GeometryNodesX       unsafe.Pointer
	GeometryNodesY       unsafe.Pointer
	NumEdgeGeometryNodes unsafe.Pointer

	NumNodes         int32
	NumEdges         int32
	NumGeometryNodes int32
}

// Kind returns Network1DKind.
func (r *Network1D) Kind() Kind { return Network1DKind }

// Counts returns the scalar counts.
func (r *Network1D) Counts() Counts {
	return Counts{NumNodes: r.NumNodes, NumEdges: r.NumEdges, NumGeometryNodes: r.NumGeometryNodes}
}

// SetCounts copies the counts relevant to Network1D.
func (r *Network1D) SetCounts(c Counts) {
	r.NumNodes, r.NumEdges, r.NumGeometryNodes = c.NumNodes, c.NumEdges, c.NumGeometryNodes
}

// Slots returns the field pointer slots in table order.
func (r *Network1D) Slots() []*unsafe.Pointer {
	return []*unsafe.Pointer{
		&r.Name, &r.NodeID, &r.NodeLongName, &r.EdgeID, &r.EdgeLongName,
		&r.NodeX, &r.NodeY, &r.EdgeNodes, &r.EdgeLength, &r.EdgeOrder,
		&r.GeometryNodesX, &r.GeometryNodesY, &r.NumEdgeGeometryNodes,
	}
}

// Mask keeps only the counts relevant to kind.
func Mask(kind Kind, c Counts) Counts {
	r := NewRecord(kind)
	if r == nil {
		return Counts{}
	}
	r.SetCounts(c)
	return r.Counts()
}
