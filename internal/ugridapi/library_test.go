package ugridapi

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"unsafe"

	"github.com/23skdu/ugrid/internal/bridge"
	"github.com/23skdu/ugrid/internal/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nameBuf(t *testing.T, s string) []byte {
	t.Helper()
	b, err := bridge.EncodeName(s, topology.NameLongLength)
	require.NoError(t, err)
	return b
}

func lastError(l *Library) string {
	buf := make([]byte, ErrorBufferSize)
	l.ErrorGet(buf)
	return cstring(buf)
}

func ptr[T any](s []T) unsafe.Pointer {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Pointer(&s[0])
}

func TestErrorBufferTruncation(t *testing.T) {
	l := New()
	long := "/nonexistent/" + strings.Repeat("a", 700) + ".arrow"

	var id int32
	require.Equal(t, Exception, l.FileOpen([]byte(long), ModeRead, &id))

	buf := make([]byte, ErrorBufferSize)
	require.Equal(t, Success, l.ErrorGet(buf))
	assert.Equal(t, byte(0), buf[ErrorBufferSize-1])
	assert.True(t, bytes.HasPrefix(buf, []byte("ug_file_open")))
	assert.Len(t, cstring(buf), ErrorBufferSize-1)

	small := make([]byte, 8)
	require.Equal(t, Success, l.ErrorGet(small))
	assert.Equal(t, byte(0), small[7])
	assert.Equal(t, "ug_file", cstring(small))
}

func TestUnknownFileID(t *testing.T) {
	l := New()
	assert.Equal(t, Exception, l.FileClose(42))
	assert.Contains(t, lastError(l), "unknown file id")

	var count int32
	assert.Equal(t, Exception, l.TopologyGetCount(7, topology.Mesh2DKind, &count))
}

func TestConstants(t *testing.T) {
	l := New()
	var n, mode int32
	require.Equal(t, Success, l.NameGetLength(&n))
	assert.Equal(t, int32(40), n)
	require.Equal(t, Success, l.NameGetLongLength(&n))
	assert.Equal(t, int32(80), n)

	l.FileReadMode(&mode)
	assert.Equal(t, ModeRead, mode)
	l.FileWriteMode(&mode)
	assert.Equal(t, ModeWrite, mode)
	l.FileReplaceMode(&mode)
	assert.Equal(t, ModeReplace, mode)

	var fi int32
	var fd float64
	l.GetIntFillValue(&fi)
	l.GetDoubleFillValue(&fd)
	assert.Equal(t, int32(-999), fi)
	assert.Equal(t, -999.0, fd)
}

// triangles is two triangles sharing an edge.
type triangles struct {
	name      []byte
	nodeX     []float64
	nodeY     []float64
	edgeNodes []int32
	faceNodes []int32
}

func newTriangles(t *testing.T) *triangles {
	return &triangles{
		name:      nameBuf(t, "mesh2d"),
		nodeX:     []float64{0, 1, 1, 0},
		nodeY:     []float64{0, 0, 1, 1},
		edgeNodes: []int32{0, 1, 1, 2, 2, 0, 2, 3, 3, 0},
		faceNodes: []int32{0, 1, 2, 0, 2, 3},
	}
}

func (tr *triangles) record() *topology.Mesh2D {
	return &topology.Mesh2D{
		Name:            ptr(tr.name),
		NodeX:           ptr(tr.nodeX),
		NodeY:           ptr(tr.nodeY),
		EdgeNodes:       ptr(tr.edgeNodes),
		FaceNodes:       ptr(tr.faceNodes),
		NumNodes:        4,
		NumEdges:        5,
		NumFaces:        2,
		NumFaceNodesMax: 3,
	}
}

func writeTriangles(t *testing.T, l *Library, path string) {
	t.Helper()
	tr := newTriangles(t)

	var id, topo int32
	require.Equal(t, Success, l.FileOpen([]byte(path), ModeReplace, &id), lastError(l))
	rec := tr.record()
	require.Equal(t, Success, l.Mesh2DDef(id, rec, &topo), lastError(l))
	assert.Equal(t, int32(0), topo)
	require.Equal(t, Success, l.Mesh2DPut(id, topo, rec), lastError(l))
	require.Equal(t, Success, l.FileClose(id), lastError(l))
}

func TestMesh2DRoundTrip(t *testing.T) {
	for _, ext := range []string{".arrow", ".parquet"} {
		t.Run(ext, func(t *testing.T) {
			l := New()
			path := filepath.Join(t.TempDir(), "triangles"+ext)
			writeTriangles(t, l, path)

			var id, count int32
			require.Equal(t, Success, l.FileOpen([]byte(path), ModeRead, &id), lastError(l))
			defer l.FileClose(id)

			require.Equal(t, Success, l.TopologyGetCount(id, topology.Mesh2DKind, &count))
			assert.Equal(t, int32(1), count)
			require.Equal(t, Success, l.TopologyGetCount(id, topology.Mesh1DKind, &count))
			assert.Equal(t, int32(0), count)

			var rec topology.Mesh2D
			require.Equal(t, Success, l.Mesh2DInq(id, 0, &rec), lastError(l))
			assert.Equal(t, topology.Counts{NumNodes: 4, NumEdges: 5, NumFaces: 2, NumFaceNodesMax: 3}, rec.Counts())

			name := make([]byte, topology.NameLongLength)
			nodeX := make([]float64, 4)
			nodeZ := make([]float64, 4)
			faceNodes := make([]int32, 6)
			faceEdges := make([]int32, 6)
			rec.Name, rec.NodeX, rec.NodeZ = ptr(name), ptr(nodeX), ptr(nodeZ)
			rec.FaceNodes, rec.FaceEdges = ptr(faceNodes), ptr(faceEdges)
			require.Equal(t, Success, l.Mesh2DGet(id, 0, &rec), lastError(l))

			decoded, err := bridge.DecodeName(name)
			require.NoError(t, err)
			assert.Equal(t, "mesh2d", decoded)
			assert.Equal(t, []float64{0, 1, 1, 0}, nodeX)
			assert.Equal(t, []int32{0, 1, 2, 0, 2, 3}, faceNodes)
			assert.Equal(t, []float64{-999, -999, -999, -999}, nodeZ)
			assert.Equal(t, []int32{-999, -999, -999, -999, -999, -999}, faceEdges)
		})
	}
}

func TestInquireIndexMatchesCount(t *testing.T) {
	l := New()
	path := filepath.Join(t.TempDir(), "triangles.arrow")
	writeTriangles(t, l, path)

	var id, count int32
	require.Equal(t, Success, l.FileOpen([]byte(path), ModeRead, &id))
	defer l.FileClose(id)
	require.Equal(t, Success, l.TopologyGetCount(id, topology.Mesh2DKind, &count))
	require.Equal(t, int32(1), count)

	var rec topology.Mesh2D
	assert.Equal(t, Success, l.Mesh2DInq(id, 0, &rec))
	assert.Equal(t, Exception, l.Mesh2DInq(id, count, &rec))
	assert.Contains(t, lastError(l), "topology index out of range")
	assert.Equal(t, Exception, l.Mesh2DInq(id, -1, &rec))
}

func TestGetRejectsWrongCounts(t *testing.T) {
	l := New()
	path := filepath.Join(t.TempDir(), "triangles.arrow")
	writeTriangles(t, l, path)

	var id int32
	require.Equal(t, Success, l.FileOpen([]byte(path), ModeRead, &id))
	defer l.FileClose(id)

	rec := topology.Mesh2D{NumNodes: 3}
	assert.Equal(t, Exception, l.Mesh2DGet(id, 0, &rec))
	assert.Contains(t, lastError(l), "record counts differ")
}

func TestReadModeRejectsWrites(t *testing.T) {
	l := New()
	path := filepath.Join(t.TempDir(), "triangles.arrow")
	writeTriangles(t, l, path)

	var id, topo int32
	require.Equal(t, Success, l.FileOpen([]byte(path), ModeRead, &id))
	defer l.FileClose(id)

	tr := newTriangles(t)
	assert.Equal(t, Exception, l.Mesh2DDef(id, tr.record(), &topo))
	assert.Contains(t, lastError(l), "read-only")
	assert.Equal(t, Exception, l.VariableIntDefine(id, nameBuf(t, "crs")))
}

func TestDefineRequiresName(t *testing.T) {
	l := New()
	var id, topo int32
	require.Equal(t, Success, l.FileOpen([]byte(filepath.Join(t.TempDir(), "x.arrow")), ModeReplace, &id))
	defer l.FileClose(id)

	rec := newTriangles(t).record()
	rec.Name = nil
	assert.Equal(t, Exception, l.Mesh2DDef(id, rec, &topo))
	assert.Equal(t, Exception, l.Mesh2DDef(id, nil, &topo))
	assert.Contains(t, lastError(l), "null pointer")
}

func TestNetworkMeshContactsScan(t *testing.T) {
	l := New()
	path := filepath.Join(t.TempDir(), "network.arrow")

	var id, topo int32
	require.Equal(t, Success, l.FileOpen([]byte(path), ModeReplace, &id))

	netName := nameBuf(t, "network1d")
	nodeIDs, err := bridge.EncodeNames([]string{"n0", "n1"}, topology.NameLength)
	require.NoError(t, err)
	netNodeX := []float64{0, 10}
	netEdges := []int32{0, 1}
	network := topology.Network1D{
		Name: ptr(netName), NodeID: ptr(nodeIDs), NodeX: ptr(netNodeX), EdgeNodes: ptr(netEdges),
		NumNodes: 2, NumEdges: 1, NumGeometryNodes: 2,
	}
	require.Equal(t, Success, l.Network1DDef(id, &network, &topo), lastError(l))
	require.Equal(t, Success, l.Network1DPut(id, topo, &network), lastError(l))

	meshName, meshNet := nameBuf(t, "mesh1d"), nameBuf(t, "network1d")
	meshX := []float64{0, 5, 10}
	mesh := topology.Mesh1D{Name: ptr(meshName), NetworkName: ptr(meshNet), NodeX: ptr(meshX), NumNodes: 3, NumEdges: 2}
	require.Equal(t, Success, l.Mesh1DDef(id, &mesh, &topo), lastError(l))
	require.Equal(t, Success, l.Mesh1DPut(id, topo, &mesh), lastError(l))

	linkName, from, to := nameBuf(t, "links"), nameBuf(t, "mesh1d"), nameBuf(t, "mesh2d")
	edges := []int32{0, 0, 2, 1}
	kinds := []int32{3, 3}
	links := topology.Contacts{
		Name: ptr(linkName), MeshFromName: ptr(from), MeshToName: ptr(to),
		Edges: ptr(edges), ContactType: ptr(kinds), NumContacts: 2,
	}
	require.Equal(t, Success, l.ContactsDef(id, &links, &topo), lastError(l))
	require.Equal(t, Success, l.ContactsPut(id, topo, &links), lastError(l))
	require.Equal(t, Success, l.FileClose(id), lastError(l))

	require.Equal(t, Success, l.FileOpen([]byte(path), ModeRead, &id))
	defer l.FileClose(id)

	for kind, want := range map[topology.Kind]int32{
		topology.Network1DKind: 1, topology.Mesh1DKind: 1, topology.ContactsKind: 1, topology.Mesh2DKind: 0,
	} {
		var count int32
		require.Equal(t, Success, l.TopologyGetCount(id, kind, &count))
		assert.Equal(t, want, count, kind.String())
	}

	var gotMesh topology.Mesh1D
	require.Equal(t, Success, l.Mesh1DInq(id, 0, &gotMesh))
	net := make([]byte, topology.NameLongLength)
	gotMesh.NetworkName = ptr(net)
	require.Equal(t, Success, l.Mesh1DGet(id, 0, &gotMesh), lastError(l))
	decoded, err := bridge.DecodeName(net)
	require.NoError(t, err)
	assert.Equal(t, "network1d", decoded)

	var gotLinks topology.Contacts
	require.Equal(t, Success, l.ContactsInq(id, 0, &gotLinks))
	assert.Equal(t, int32(2), gotLinks.NumContacts)
	gotEdges := make([]int32, 4)
	gotTo := make([]byte, topology.NameLongLength)
	gotLinks.Edges, gotLinks.MeshToName = ptr(gotEdges), ptr(gotTo)
	require.Equal(t, Success, l.ContactsGet(id, 0, &gotLinks), lastError(l))
	assert.Equal(t, edges, gotEdges)
	decoded, err = bridge.DecodeName(gotTo)
	require.NoError(t, err)
	assert.Equal(t, "mesh2d", decoded)

	var gotNet topology.Network1D
	require.Equal(t, Success, l.Network1DInq(id, 0, &gotNet))
	assert.Equal(t, topology.Counts{NumNodes: 2, NumEdges: 1, NumGeometryNodes: 2}, gotNet.Counts())
	gotIDs := make([]byte, 2*topology.NameLength)
	gotNet.NodeID = ptr(gotIDs)
	require.Equal(t, Success, l.Network1DGet(id, 0, &gotNet), lastError(l))
	ids, err := bridge.SplitFixed(gotIDs, topology.NameLength)
	require.NoError(t, err)
	assert.Equal(t, []string{"n0", "n1"}, ids)
}

func TestVariablesAndAttributes(t *testing.T) {
	l := New()
	path := filepath.Join(t.TempDir(), "crs.arrow")
	writeTriangles(t, l, path)

	var id int32
	require.Equal(t, Success, l.FileOpen([]byte(path), ModeWrite, &id), lastError(l))
	crs := nameBuf(t, "projected_coordinate_system")
	require.Equal(t, Success, l.VariableIntDefine(id, crs), lastError(l))
	require.Equal(t, Success, l.AttributeIntDefine(id, crs, nameBuf(t, "epsg"), []int32{28992}, 1), lastError(l))
	require.Equal(t, Success, l.AttributeDoubleDefine(id, crs, nameBuf(t, "semi_major_axis"), []float64{6377397.155}, 1))
	code := []byte("EPSG:28992")
	require.Equal(t, Success, l.AttributeCharDefine(id, crs, nameBuf(t, "EPSG_code"), code, int32(len(code))))
	conv := []byte("CF-1.8 UGRID-1.0")
	require.Equal(t, Success, l.AttributeGlobalCharDefine(id, nameBuf(t, "Conventions"), conv, int32(len(conv))))
	assert.Equal(t, Exception, l.AttributeIntDefine(id, crs, nameBuf(t, "bad"), []int32{1}, 2))
	require.Equal(t, Success, l.FileClose(id), lastError(l))

	require.Equal(t, Success, l.FileOpen([]byte(path), ModeRead, &id))
	defer l.FileClose(id)

	var count int32
	require.Equal(t, Success, l.VariableCountAttributes(id, crs, &count))
	require.Equal(t, int32(3), count)
	width := int(count) * topology.NameLongLength
	names := make([]byte, width+1)
	values := make([]byte, width+1)
	require.Equal(t, Success, l.VariableGetAttributesNames(id, crs, names))
	require.Equal(t, Success, l.VariableGetAttributesValues(id, crs, values))
	assert.Equal(t, byte(0), names[width])

	attrs, err := bridge.ZipAttributes(names, values, int(count), topology.NameLongLength)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"epsg":            "28992",
		"semi_major_axis": "6.377397155e+06",
		"EPSG_code":       "EPSG:28992",
	}, attrs)

	assert.Equal(t, Exception, l.VariableGetAttributesNames(id, crs, make([]byte, 10)))

	value := make([]byte, topology.NameLongLength)
	require.Equal(t, Success, l.AttributeGlobalCharGet(id, nameBuf(t, "Conventions"), value))
	decoded, err := bridge.DecodeName(value)
	require.NoError(t, err)
	assert.Equal(t, "CF-1.8 UGRID-1.0", decoded)
	assert.Equal(t, Exception, l.AttributeGlobalCharGet(id, nameBuf(t, "history"), value))

	faceNodes := nameBuf(t, "mesh2d_face_nodes")
	require.Equal(t, Success, l.VariableCountDimensions(id, faceNodes, &count))
	require.Equal(t, int32(2), count)
	dims := make([]int32, count)
	require.Equal(t, Success, l.VariableGetDataDimensions(id, faceNodes, dims))
	assert.Equal(t, []int32{2, 3}, dims)

	ints := make([]int32, 6)
	require.Equal(t, Success, l.VariableGetDataInt(id, faceNodes, ptr(ints)))
	assert.Equal(t, []int32{0, 1, 2, 0, 2, 3}, ints)
	doubles := make([]float64, 6)
	require.Equal(t, Success, l.VariableGetDataDouble(id, faceNodes, ptr(doubles)))
	assert.Equal(t, []float64{0, 1, 2, 0, 2, 3}, doubles)
	assert.Equal(t, Exception, l.VariableGetDataChar(id, faceNodes, ptr(make([]byte, 6))))
	assert.Contains(t, lastError(l), "cannot be converted")

	assert.Equal(t, Exception, l.VariableCountDimensions(id, nameBuf(t, "missing"), &count))
	assert.Contains(t, lastError(l), "unknown variable")
}

func TestReplaceRequiresParentDirectory(t *testing.T) {
	l := New()
	var id int32
	path := filepath.Join(t.TempDir(), "missing", "out.arrow")
	assert.Equal(t, Exception, l.FileOpen([]byte(path), ModeReplace, &id))
	assert.Equal(t, 0, l.OpenFiles())
}
