// Package topology describes the four mesh topology records exchanged with
// the native UGrid library: their scalar counts, their variable-length fields
// and the buffer sets that back those fields with raw memory.
package topology

import "fmt"

// Kind identifies a topology record shape. Values match the native
// TopologyType enumeration.
type Kind int

const (
	Network1DKind Kind = 0
	Mesh1DKind    Kind = 1
	Mesh2DKind    Kind = 2
	ContactsKind  Kind = 3
)

// Kinds lists every kind in processing order.
var Kinds = []Kind{Mesh1DKind, Mesh2DKind, ContactsKind, Network1DKind}

func (k Kind) String() string {
	switch k {
	case Network1DKind:
		return "network1d"
	case Mesh1DKind:
		return "mesh1d"
	case Mesh2DKind:
		return "mesh2d"
	case ContactsKind:
		return "contacts"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Valid reports whether k is one of the four known kinds.
func (k Kind) Valid() bool {
	return k >= Network1DKind && k <= ContactsKind
}

// ElementType is the element type of a variable-length field.
type ElementType int

const (
	Byte ElementType = iota + 1
	Int32
	Float64
)

// Width returns the element size in bytes, 0 for an unknown type.
func (t ElementType) Width() int {
	switch t {
	case Byte:
		return 1
	case Int32:
		return 4
	case Float64:
		return 8
	default:
		return 0
	}
}

func (t ElementType) String() string {
	switch t {
	case Byte:
		return "byte"
	case Int32:
		return "int32"
	case Float64:
		return "float64"
	default:
		return fmt.Sprintf("element(%d)", int(t))
	}
}

// Fixed widths of textual identifiers crossing the native boundary.
const (
	NameLength     = 40
	NameLongLength = 80
)

// Counts holds the scalar counts of a record. Only the counts relevant to a
// kind are meaningful for it.
type Counts struct {
	NumNodes         int32
	NumEdges         int32
	NumFaces         int32
	NumFaceNodesMax  int32
	NumContacts      int32
	NumGeometryNodes int32
}
