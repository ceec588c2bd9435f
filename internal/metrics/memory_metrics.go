package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Raw buffer allocator metrics
var (
	// AllocatorBytesAllocatedTotal counts bytes handed out by the raw buffer allocator
	AllocatorBytesAllocatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ugrid_allocator_bytes_allocated_total",
			Help: "Total bytes allocated for native buffers",
		},
	)

	// AllocatorBytesFreedTotal counts bytes returned to the backend
	AllocatorBytesFreedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ugrid_allocator_bytes_freed_total",
			Help: "Total bytes freed from native buffers",
		},
	)

	// AllocatorAllocationsActive tracks buffers allocated and not yet freed
	AllocatorAllocationsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ugrid_allocator_allocations_active",
			Help: "Number of native buffers currently allocated",
		},
	)

	// AllocatorFailuresTotal counts failed allocations by reason
	AllocatorFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ugrid_allocator_failures_total",
			Help: "Total number of failed native buffer allocations",
		},
		[]string{"reason"},
	)

	// AllocatorGuardViolationsTotal counts blocks whose guard bytes were overwritten
	AllocatorGuardViolationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ugrid_allocator_guard_violations_total",
			Help: "Total number of buffers found with corrupted guard bytes on free",
		},
	)

	// BufferSetsLive tracks topology buffer sets that are allocated and not released
	BufferSetsLive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ugrid_buffer_sets_live",
			Help: "Topology buffer sets currently holding native buffers",
		},
		[]string{"kind"},
	)

	// BufferSetRollbacksTotal counts allocations rolled back after a partial failure
	BufferSetRollbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ugrid_buffer_set_rollbacks_total",
			Help: "Total number of buffer set allocations rolled back after a field failed",
		},
		[]string{"kind"},
	)

	// PinsActive tracks managed arrays currently pinned for a native call
	PinsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ugrid_pins_active",
			Help: "Number of managed arrays currently pinned",
		},
	)
)
