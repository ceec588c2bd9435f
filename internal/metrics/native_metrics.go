package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Native call surface metrics
var (
	// NativeCallsTotal counts native invocations by operation
	NativeCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ugrid_native_calls_total",
			Help: "Total number of native library calls",
		},
		[]string{"op"},
	)

	// NativeErrorsTotal counts native invocations that returned a non-zero exit code
	NativeErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ugrid_native_errors_total",
			Help: "Total number of native library calls that failed",
		},
		[]string{"op"},
	)

	// NativeCallDurationSeconds measures native call latency
	NativeCallDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ugrid_native_call_duration_seconds",
			Help:    "Latency of native library calls",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		},
		[]string{"op"},
	)

	// SessionsOpen tracks open file sessions by mode
	SessionsOpen = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ugrid_sessions_open",
			Help: "Number of open UGrid file sessions",
		},
		[]string{"mode"},
	)

	// TopologiesLoadedTotal counts topology instances populated by readers
	TopologiesLoadedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ugrid_topologies_loaded_total",
			Help: "Total number of topology instances read from files",
		},
		[]string{"kind"},
	)

	// TopologiesWrittenTotal counts topology instances written by writers
	TopologiesWrittenTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ugrid_topologies_written_total",
			Help: "Total number of topology instances written to files",
		},
		[]string{"kind"},
	)

	// StorageBytesTotal counts bytes moved by the storage codecs
	StorageBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ugrid_storage_bytes_total",
			Help: "Total bytes read or written by the variable table codecs",
		},
		[]string{"format", "direction"},
	)

	// LogEntriesTotal counts log entries by level
	LogEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ugrid_log_entries_total",
			Help: "Total number of log entries by level",
		},
		[]string{"level"},
	)
)
