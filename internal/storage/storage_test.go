package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset(t *testing.T) *Dataset {
	t.Helper()
	ds := NewDataset()
	ds.SetAttribute(TextAttribute("Conventions", "CF-1.8 UGRID-1.0"))
	require.NoError(t, ds.AddDimension("mesh2d_nNodes", 4))
	require.NoError(t, ds.AddDimension("mesh2d_nEdges", 4))
	require.NoError(t, ds.AddDimension("Two", 2))

	topo := &Variable{Name: "mesh2d", Type: TypeInt}
	topo.SetAttribute(TextAttribute("cf_role", "mesh_topology"))
	topo.SetAttribute(IntAttribute("topology_dimension", 2))
	require.NoError(t, ds.AddVariable(topo))

	require.NoError(t, ds.AddVariable(&Variable{
		Name:    "mesh2d_node_x",
		Type:    TypeDouble,
		Dims:    []string{"mesh2d_nNodes"},
		Doubles: []float64{0, 1, 1, 0},
	}))
	edges := &Variable{
		Name: "mesh2d_edge_nodes",
		Type: TypeInt,
		Dims: []string{"mesh2d_nEdges", "Two"},
		Ints: []int32{0, 1, 1, 2, 2, 3, 3, 0},
	}
	edges.SetAttribute(IntAttribute("start_index", 0))
	edges.SetAttribute(DoubleAttribute("scale", 0.5, 2))
	require.NoError(t, ds.AddVariable(edges))
	require.NoError(t, ds.AddVariable(&Variable{
		Name:  "mesh2d_node_id",
		Type:  TypeChar,
		Dims:  []string{"mesh2d_nNodes"},
		Chars: []byte("abcd"),
	}))
	return ds
}

func TestDatasetRoundTrip(t *testing.T) {
	for _, f := range []Format{FormatArrow, FormatParquet} {
		t.Run(string(f), func(t *testing.T) {
			ds := sampleDataset(t)

			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, ds, f))

			got, err := Decode(buf.Bytes(), f)
			require.NoError(t, err)

			assert.Equal(t, ds.Dimensions, got.Dimensions)
			require.Len(t, got.Variables, len(ds.Variables))
			for i, v := range ds.Variables {
				g := got.Variables[i]
				assert.Equal(t, v.Name, g.Name)
				assert.Equal(t, v.Type, g.Type)
				assert.Equal(t, v.Len(), g.Len())
				assert.ElementsMatch(t, v.Dims, g.Dims)
			}

			x, ok := got.Variable("mesh2d_node_x")
			require.True(t, ok)
			assert.Equal(t, []float64{0, 1, 1, 0}, x.Doubles)

			e, ok := got.Variable("mesh2d_edge_nodes")
			require.True(t, ok)
			assert.Equal(t, []int32{0, 1, 1, 2, 2, 3, 3, 0}, e.Ints)
			scale, ok := e.Attribute("scale")
			require.True(t, ok)
			assert.Equal(t, []float64{0.5, 2}, scale.Doubles)

			conv, ok := got.Attribute("Conventions")
			require.True(t, ok)
			assert.Equal(t, "CF-1.8 UGRID-1.0", conv.Text)
		})
	}
}

func TestEmptyDatasetRoundTrip(t *testing.T) {
	for _, f := range []Format{FormatArrow, FormatParquet} {
		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, NewDataset(), f))
		got, err := Decode(buf.Bytes(), f)
		require.NoError(t, err, f)
		assert.Empty(t, got.Variables)
	}
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"mesh.nc", "mesh.parquet"} {
		path := filepath.Join(dir, name)
		f, err := DetectFormat(path, "")
		require.NoError(t, err)

		require.NoError(t, Save(path, sampleDataset(t), f))
		ds := NewDataset()
		require.NoError(t, ds.AddDimension("n", 1))
		require.NoError(t, Save(path, ds, f), "save replaces an existing file")

		got, err := Load(path, f)
		require.NoError(t, err)
		assert.Equal(t, []Dimension{{Name: "n", Len: 1}}, got.Dimensions)
	}

	_, err := Load(filepath.Join(dir, "missing.nc"), FormatArrow)
	var fe *FileError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "load", fe.Op)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("not a table"), FormatArrow)
	assert.Error(t, err)
	_, err = Decode([]byte("not a table"), FormatParquet)
	assert.Error(t, err)
	_, err = Decode(nil, Format("netcdf"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestChecksum(t *testing.T) {
	rows := toRows(sampleDataset(t))
	sum := checksum(rows)
	assert.NoError(t, verifyChecksum(formatSum(sum), rows))

	rows[len(rows)-1].Text = []byte("abce")
	assert.ErrorIs(t, verifyChecksum(formatSum(sum), rows), ErrChecksumMismatch)
	assert.ErrorIs(t, verifyChecksum("zz", rows), ErrChecksumMismatch)
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path, override string
		want           Format
		wantErr        bool
	}{
		{"a.nc", "", FormatArrow, false},
		{"a.arrow", "", FormatArrow, false},
		{"a.PARQUET", "", FormatParquet, false},
		{"a.pq", "", FormatParquet, false},
		{"a.nc", "parquet", FormatParquet, false},
		{"a.parquet", "Arrow", FormatArrow, false},
		{"a.nc", "hdf5", "", true},
	}
	for _, tt := range tests {
		got, err := DetectFormat(tt.path, tt.override)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrUnknownFormat)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.path)
	}
}

func TestDatasetShapeChecks(t *testing.T) {
	ds := NewDataset()
	require.NoError(t, ds.AddDimension("n", 3))
	require.NoError(t, ds.AddDimension("n", 3))
	assert.ErrorIs(t, ds.AddDimension("n", 4), ErrInvalidDimension)
	assert.ErrorIs(t, ds.AddDimension("m", 0), ErrInvalidDimension)

	assert.ErrorIs(t, ds.AddVariable(&Variable{Name: "x", Type: TypeDouble, Dims: []string{"q"}}), ErrUnknownDimension)
	assert.ErrorIs(t, ds.AddVariable(&Variable{Name: "x", Type: TypeDouble, Dims: []string{"n"}, Doubles: []float64{1}}), ErrShapeMismatch)

	v := &Variable{Name: "x", Type: TypeDouble, Dims: []string{"n"}}
	require.NoError(t, ds.AddVariable(v))
	assert.ErrorIs(t, ds.AddVariable(&Variable{Name: "x"}), ErrDuplicateVariable)

	v.Doubles = []float64{1, 2}
	assert.ErrorIs(t, ds.Validate(), ErrShapeMismatch)
}
