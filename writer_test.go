package ugrid

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	ugerrors "github.com/23skdu/ugrid/internal/errors"
	"github.com/23skdu/ugrid/internal/metrics"
	"github.com/23skdu/ugrid/internal/topology"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestWriterRejectsWrongLengths(t *testing.T) {
	w, err := OpenWriter(filepath.Join(t.TempDir(), "bad.arrow"), checkedOptions(t)...)
	require.NoError(t, err)
	defer w.Close()

	m := triangles()
	m.NodeX = m.NodeX[:3]
	_, err = w.AddMesh2D(m)
	assert.ErrorIs(t, err, ugerrors.ErrInvalidArgument)
	assert.Equal(t, 0, w.pins.Len(), "pins are released on failure")

	n := river()
	n.NodeIDs = []string{"only one"}
	_, err = w.AddNetwork1D(n)
	assert.ErrorIs(t, err, ugerrors.ErrInvalidArgument)

	_, err = w.AddContacts(nil)
	assert.ErrorIs(t, err, ugerrors.ErrInvalidArgument)
}

func TestWriterRejectsLongNames(t *testing.T) {
	w, err := OpenWriter(filepath.Join(t.TempDir(), "names.arrow"), checkedOptions(t)...)
	require.NoError(t, err)
	defer w.Close()

	m := triangles()
	m.Name = strings.Repeat("m", 60)
	_, err = w.AddMesh2D(m)
	assert.ErrorIs(t, err, ugerrors.ErrInvalidArgument)
	assert.Equal(t, 0, w.pins.Len())

	unnamed := triangles()
	unnamed.Name = ""
	_, err = w.AddMesh2D(unnamed)
	require.Error(t, err, "a topology needs a name")
	assert.ErrorIs(t, err, ugerrors.ErrNativeCall)
}

func TestWriterRejectsZeroCounts(t *testing.T) {
	w, err := OpenWriter(filepath.Join(t.TempDir(), "lines.arrow"), checkedOptions(t)...)
	require.NoError(t, err)
	defer w.Close()

	_, err = w.AddMesh2D(NewMesh2D("lines", 3, 2, 0, 0))
	assert.ErrorIs(t, err, ugerrors.ErrInvalidArgument)
	assert.ErrorIs(t, err, topology.ErrNonPositiveCount)
	assert.Equal(t, 0, w.pins.Len())

	_, err = w.AddContacts(NewContacts("none", "mesh1d", "mesh2d", 0))
	assert.ErrorIs(t, err, topology.ErrNonPositiveCount)

	_, err = w.AddMesh2D(triangles())
	require.NoError(t, err, "a rejected topology leaves the file usable")
}

func TestWriterAfterClose(t *testing.T) {
	w, err := OpenWriter(filepath.Join(t.TempDir(), "closed.arrow"), checkedOptions(t)...)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, err = w.AddMesh2D(triangles())
	assert.ErrorIs(t, err, ugerrors.ErrClosed)
	assert.ErrorIs(t, w.Write(), ugerrors.ErrClosed)
}

func TestWriterRequiresDirectory(t *testing.T) {
	_, err := OpenWriter(filepath.Join(t.TempDir(), "missing", "out.arrow"), checkedOptions(t)...)
	assert.ErrorIs(t, err, ugerrors.ErrNativeCall)
}

func TestProjectedCoordinateSystemRoundTrip(t *testing.T) {
	want := ProjectedCoordinateSystem{
		EPSG:                     28992,
		LongitudeOfPrimeMeridian: 0,
		SemiMajorAxis:            6377397.155,
		SemiMinorAxis:            6356078.962818189,
		InverseFlattening:        299.1528128,
		Name:                     "Amersfoort / RD New",
		GridMappingName:          "oblique_stereographic",
		EPSGCode:                 "EPSG:28992",
	}
	path := writeFile(t, "crs.parquet", func(w *Writer) {
		_, err := w.AddMesh2D(triangles())
		require.NoError(t, err)
		require.NoError(t, w.AddProjectedCoordinateSystem(want))
	})

	r, err := OpenReader(path, checkedOptions(t)...)
	require.NoError(t, err)
	defer r.Close()

	got, err := r.ProjectedCoordinateSystem()
	require.NoError(t, err)
	assert.Equal(t, want.EPSG, got.EPSG)
	assert.InDelta(t, want.SemiMajorAxis, got.SemiMajorAxis, 1e-9)
	assert.InDelta(t, want.SemiMinorAxis, got.SemiMinorAxis, 1e-9)
	assert.InDelta(t, want.InverseFlattening, got.InverseFlattening, 1e-9)
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.GridMappingName, got.GridMappingName)
	assert.Empty(t, got.WKT)
	assert.NotContains(t, got.Attributes, "wkt")

	code, err := r.EPSGCode()
	require.NoError(t, err)
	assert.Equal(t, "EPSG:28992", code)
}

func TestProjectedCoordinateSystemMissing(t *testing.T) {
	path := writeFile(t, "plain.arrow", func(w *Writer) {
		_, err := w.AddMesh2D(triangles())
		require.NoError(t, err)
	})
	r, err := OpenReader(path, checkedOptions(t)...)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.ProjectedCoordinateSystem()
	assert.ErrorIs(t, err, ugerrors.ErrNotFound)
	_, err = r.EPSGCode()
	assert.ErrorIs(t, err, ugerrors.ErrNotFound)
}

func TestCoordinateSystemLookupIsQuiet(t *testing.T) {
	path := writeFile(t, "quiet.arrow", func(w *Writer) {
		_, err := w.AddMesh2D(triangles())
		require.NoError(t, err)
	})
	var logs bytes.Buffer
	r, err := OpenReader(path, checkedOptions(t, WithLogger(zerolog.New(&logs).Level(zerolog.DebugLevel)))...)
	require.NoError(t, err)
	defer r.Close()

	const op = "ug_variable_count_attributes"
	failures := testutil.ToFloat64(metrics.NativeErrorsTotal.WithLabelValues(op))
	_, err = r.ProjectedCoordinateSystem()
	assert.ErrorIs(t, err, ugerrors.ErrNotFound)

	assert.Equal(t, failures, testutil.ToFloat64(metrics.NativeErrorsTotal.WithLabelValues(op)))
	assert.NotContains(t, logs.String(), `"level":"warn"`)
	assert.Contains(t, logs.String(), "native lookup missed")

	_, err = r.VariableAttributes("absent")
	assert.ErrorIs(t, err, ugerrors.ErrNativeCall)
	assert.Equal(t, failures+1, testutil.ToFloat64(metrics.NativeErrorsTotal.WithLabelValues(op)))
}

func TestIndependentSessions(t *testing.T) {
	dir := t.TempDir()
	var g errgroup.Group
	for i := range 8 {
		g.Go(func() error {
			path := filepath.Join(dir, fmt.Sprintf("mesh%d.arrow", i))
			w, err := OpenWriter(path, checkedOptions(t)...)
			if err != nil {
				return err
			}
			m := triangles()
			m.NodeZ = []float64{float64(i), 0, 0, 0}
			if _, err := w.AddMesh2D(m); err != nil {
				return err
			}
			if err := w.Write(); err != nil {
				return err
			}
			if err := w.Close(); err != nil {
				return err
			}

			r, err := OpenReader(path, checkedOptions(t)...)
			if err != nil {
				return err
			}
			defer r.Close()
			got, err := r.Mesh2D(0)
			if err != nil {
				return err
			}
			if got.NodeZ[0] != float64(i) {
				return fmt.Errorf("session %d read node z %v", i, got.NodeZ[0])
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}
