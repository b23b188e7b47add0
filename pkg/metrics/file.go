package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// FileMetrics records file-handle operation counts and transfer volume.
// All methods are safe on a nil receiver.
type FileMetrics struct {
	ops          *prometheus.CounterVec
	errors       *prometheus.CounterVec
	bytesRead    prometheus.Counter
	bytesWritten prometheus.Counter
}

// NewFileMetrics creates the Prometheus-backed file recorder.
//
// Returns nil when metrics are not enabled (InitRegistry not called), which
// disables recording with near-zero overhead.
func NewFileMetrics() *FileMetrics {
	if !IsEnabled() {
		return nil
	}

	reg := Registry()

	return &FileMetrics{
		ops: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "smbfile_operations_total",
				Help: "Completed file operations by kind",
			},
			[]string{"op"},
		),
		errors: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "smbfile_operation_errors_total",
				Help: "Failed file operations by kind",
			},
			[]string{"op"},
		),
		bytesRead: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "smbfile_read_bytes_total",
				Help: "Bytes acknowledged by read operations",
			},
		),
		bytesWritten: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "smbfile_written_bytes_total",
				Help: "Bytes acknowledged by write operations",
			},
		),
	}
}

// RecordOp counts one successful operation of the given kind.
func (m *FileMetrics) RecordOp(op string) {
	if m == nil {
		return
	}
	m.ops.WithLabelValues(op).Inc()
}

// RecordError counts one failed operation of the given kind.
func (m *FileMetrics) RecordError(op string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(op).Inc()
}

// RecordBytesRead adds acknowledged read bytes.
func (m *FileMetrics) RecordBytesRead(n int) {
	if m == nil {
		return
	}
	m.ops.WithLabelValues("read").Inc()
	m.bytesRead.Add(float64(n))
}

// RecordBytesWritten adds acknowledged write bytes.
func (m *FileMetrics) RecordBytesWritten(n int) {
	if m == nil {
		return
	}
	m.ops.WithLabelValues("write").Inc()
	m.bytesWritten.Add(float64(n))
}
