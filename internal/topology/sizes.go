package topology

// FieldSize is the resolved size of one field for a given set of counts.
type FieldSize struct {
	Field
	Elements int
	Bytes    int
}

// ElementCount returns the number of elements of f for counts c.
func (f Field) ElementCount(c Counts) int {
	var n int
	switch f.Extent {
	case ExtentFixed:
		n = 1
	case ExtentNodes:
		n = int(c.NumNodes)
	case ExtentEdges:
		n = int(c.NumEdges)
	case ExtentFaces:
		n = int(c.NumFaces)
	case ExtentContacts:
		n = int(c.NumContacts)
	case ExtentGeometryNodes:
		n = int(c.NumGeometryNodes)
	case ExtentFaceNodes:
		n = int(c.NumFaces) * int(c.NumFaceNodesMax)
	}
	return n * f.Stride
}

// ElementCount returns the element count of field index i of kind, 0 when
// the kind or index is unknown.
func ElementCount(kind Kind, i int, c Counts) int {
	fields := Fields(kind)
	if i < 0 || i >= len(fields) {
		return 0
	}
	return fields[i].ElementCount(c)
}

// Sizes resolves every field of kind for counts c, in table order.
func Sizes(kind Kind, c Counts) []FieldSize {
	fields := Fields(kind)
	out := make([]FieldSize, len(fields))
	for i, f := range fields {
		n := f.ElementCount(c)
		out[i] = FieldSize{Field: f, Elements: n, Bytes: n * f.Type.Width()}
	}
	return out
}
