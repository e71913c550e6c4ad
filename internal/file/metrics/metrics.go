package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks the routing engine.
type Metrics struct {
	FilesCreated       prometheus.Counter
	StatusChanges      *prometheus.CounterVec
	FilesReceived      prometheus.Counter
	ReceiveRefused     prometheus.Counter
	FilesRejected      prometheus.Counter
	OperationDuration  *prometheus.HistogramVec
	TrackingCollisions prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FilesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "filetrack_files_created_total",
			Help: "Files created at intake",
		}),
		StatusChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "filetrack_file_status_changes_total",
			Help: "Status changes by new status",
		}, []string{"status"}),
		FilesReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "filetrack_files_received_total",
			Help: "Files accepted by their next administration",
		}),
		ReceiveRefused: factory.NewCounter(prometheus.CounterOpts{
			Name: "filetrack_file_receive_refused_total",
			Help: "Receive attempts by an administration that was not the next holder",
		}),
		FilesRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "filetrack_files_rejected_total",
			Help: "Files blocked by their holder",
		}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "filetrack_file_operation_duration_seconds",
			Help:    "Latency of file operations including the store round trip",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
		TrackingCollisions: factory.NewCounter(prometheus.CounterOpts{
			Name: "filetrack_tracking_number_collisions_total",
			Help: "Tracking numbers regenerated after a uniqueness conflict",
		}),
	}
}

func (m *Metrics) IncFilesCreated() {
	if m == nil {
		return
	}
	m.FilesCreated.Inc()
}

func (m *Metrics) IncStatusChange(status string) {
	if m == nil {
		return
	}
	m.StatusChanges.WithLabelValues(status).Inc()
}

func (m *Metrics) IncFilesReceived() {
	if m == nil {
		return
	}
	m.FilesReceived.Inc()
}

func (m *Metrics) IncReceiveRefused() {
	if m == nil {
		return
	}
	m.ReceiveRefused.Inc()
}

func (m *Metrics) IncFilesRejected() {
	if m == nil {
		return
	}
	m.FilesRejected.Inc()
}

func (m *Metrics) IncTrackingCollision() {
	if m == nil {
		return
	}
	m.TrackingCollisions.Inc()
}

func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
