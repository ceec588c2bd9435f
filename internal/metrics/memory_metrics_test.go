package metrics_test

import (
	"testing"

	"github.com/23skdu/ugrid/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// getGaugeValue retrieves the current value of a gauge metric
func getGaugeValue(t *testing.T, gauge prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	err := gauge.Write(&m)
	require.NoError(t, err)
	return m.GetGauge().GetValue()
}

// getCounterValue retrieves the current value of a counter metric
func getCounterValue(t *testing.T, counter prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	err := counter.Write(&m)
	require.NoError(t, err)
	return m.GetCounter().GetValue()
}

func TestBufferSetsLivePerKind(t *testing.T) {
	kinds := []string{"mesh1d", "mesh2d", "contacts", "network1d"}
	for i, kind := range kinds {
		gauge := metrics.BufferSetsLive.WithLabelValues(kind)
		before := getGaugeValue(t, gauge)
		gauge.Add(float64(i + 1))
		assert.Equal(t, before+float64(i+1), getGaugeValue(t, gauge), "BufferSetsLive for %s", kind)
		gauge.Sub(float64(i + 1))
		assert.Equal(t, before, getGaugeValue(t, gauge))
	}
}

func TestAllocatorFailureReasons(t *testing.T) {
	for _, reason := range []string{"invalid_size", "budget", "backend", "short_buffer"} {
		counter := metrics.AllocatorFailuresTotal.WithLabelValues(reason)
		initial := getCounterValue(t, counter)
		counter.Inc()
		assert.Equal(t, initial+1, getCounterValue(t, counter), "AllocatorFailuresTotal for %s", reason)
	}
}

func TestAllocatorByteCounters(t *testing.T) {
	allocated := getCounterValue(t, metrics.AllocatorBytesAllocatedTotal)
	freed := getCounterValue(t, metrics.AllocatorBytesFreedTotal)
	active := getGaugeValue(t, metrics.AllocatorAllocationsActive)

	metrics.AllocatorBytesAllocatedTotal.Add(4096)
	metrics.AllocatorAllocationsActive.Inc()
	metrics.AllocatorBytesFreedTotal.Add(4096)
	metrics.AllocatorAllocationsActive.Dec()

	assert.Equal(t, allocated+4096, getCounterValue(t, metrics.AllocatorBytesAllocatedTotal))
	assert.Equal(t, freed+4096, getCounterValue(t, metrics.AllocatorBytesFreedTotal))
	assert.Equal(t, active, getGaugeValue(t, metrics.AllocatorAllocationsActive))
}

func TestPinsActive(t *testing.T) {
	before := getGaugeValue(t, metrics.PinsActive)
	metrics.PinsActive.Add(3)
	assert.Equal(t, before+3, getGaugeValue(t, metrics.PinsActive))
	metrics.PinsActive.Sub(3)
	assert.Equal(t, before, getGaugeValue(t, metrics.PinsActive))
}
