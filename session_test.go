package ugrid

import (
	"path/filepath"
	"testing"

	ugerrors "github.com/23skdu/ugrid/internal/errors"
	"github.com/23skdu/ugrid/internal/metrics"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNativeCallSpans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	opts := checkedOptions(t, WithTracer(tp.Tracer("test")))

	path := writeFile(t, "traced.arrow", func(w *Writer) {
		_, err := w.AddMesh2D(triangles())
		require.NoError(t, err)
	})
	r, err := OpenReader(path, opts...)
	require.NoError(t, err)
	require.NoError(t, r.Close())

	_, err = OpenReader(filepath.Join(t.TempDir(), "missing.arrow"), opts...)
	require.Error(t, err)

	var names []string
	var failed sdktrace.ReadOnlySpan
	for _, s := range rec.Ended() {
		names = append(names, s.Name())
		if s.Status().Code == codes.Error {
			failed = s
		}
	}
	assert.Contains(t, names, "ug_file_open")
	assert.Contains(t, names, "ug_topology_get_count")
	assert.Contains(t, names, "ug_mesh2d_inq")
	assert.Contains(t, names, "ug_mesh2d_get")
	assert.Contains(t, names, "ug_file_close")
	require.NotNil(t, failed)
	assert.Equal(t, "ug_file_open", failed.Name())
	assert.NotEmpty(t, failed.Status().Description)
}

func TestNativeCallMetrics(t *testing.T) {
	calls := testutil.ToFloat64(metrics.NativeCallsTotal.WithLabelValues("ug_file_open"))
	failures := testutil.ToFloat64(metrics.NativeErrorsTotal.WithLabelValues("ug_file_open"))

	_, err := OpenReader(filepath.Join(t.TempDir(), "missing.arrow"), checkedOptions(t)...)
	require.Error(t, err)

	assert.Equal(t, calls+1, testutil.ToFloat64(metrics.NativeCallsTotal.WithLabelValues("ug_file_open")))
	assert.Equal(t, failures+1, testutil.ToFloat64(metrics.NativeErrorsTotal.WithLabelValues("ug_file_open")))
}

func TestSessionIdentity(t *testing.T) {
	path := writeFile(t, "id.arrow", func(w *Writer) {
		_, err := w.AddMesh2D(triangles())
		require.NoError(t, err)
	})
	a, err := OpenReader(path, checkedOptions(t)...)
	require.NoError(t, err)
	defer a.Close()
	b, err := OpenReader(path, checkedOptions(t)...)
	require.NoError(t, err)
	defer b.Close()

	_, err = uuid.Parse(a.ID())
	assert.NoError(t, err)
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestStructuredNativeError(t *testing.T) {
	_, err := OpenReader(filepath.Join(t.TempDir(), "missing.arrow"), checkedOptions(t)...)
	require.Error(t, err)
	assert.Equal(t, ugerrors.ErrorTypeNative, ugerrors.TypeOf(err))
}
