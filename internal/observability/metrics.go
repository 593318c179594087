// Package observability provides Prometheus metrics for monitoring the
// sensor pipeline.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all the metric collectors for the pipeline.
type Metrics struct {
	registry *prometheus.Registry

	RecordingsStarted   prometheus.Counter
	RecordingsCompleted prometheus.Counter
	RecordingsSkipped   prometheus.Counter
	DetectionsPersisted prometheus.Counter
	MessagesEnqueued    prometheus.Counter
	MessagesSent        *prometheus.CounterVec // labels: transport, status
	SendDuration        prometheus.Histogram
	FilesSaved          prometheus.Counter
	FilesDeleted        prometheus.Counter
	FileErrors          prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all collectors
// registered on a private registry.
func NewMetrics() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RecordingsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fieldrec_recordings_started_total",
			Help: "Number of recording task invocations that passed the schedule condition.",
		}),
		RecordingsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fieldrec_recordings_completed_total",
			Help: "Number of recordings captured and persisted.",
		}),
		RecordingsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fieldrec_recordings_skipped_total",
			Help: "Number of recording task invocations skipped by the schedule condition.",
		}),
		DetectionsPersisted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fieldrec_model_outputs_total",
			Help: "Number of model outputs persisted.",
		}),
		MessagesEnqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fieldrec_messages_enqueued_total",
			Help: "Number of messages appended to the outbox.",
		}),
		MessagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldrec_messages_sent_total",
			Help: "Number of delivery attempts by transport and response status.",
		}, []string{"transport", "status"}),
		SendDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fieldrec_send_duration_seconds",
			Help:    "Duration of message delivery attempts.",
			Buckets: prometheus.DefBuckets,
		}),
		FilesSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fieldrec_files_saved_total",
			Help: "Number of audio files moved to permanent storage.",
		}),
		FilesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fieldrec_files_deleted_total",
			Help: "Number of temp audio files deleted by the retention policy.",
		}),
		FileErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fieldrec_file_errors_total",
			Help: "Number of file management errors, including orphaned temp files.",
		}),
	}

	collectors := []prometheus.Collector{
		m.RecordingsStarted, m.RecordingsCompleted, m.RecordingsSkipped,
		m.DetectionsPersisted, m.MessagesEnqueued, m.MessagesSent,
		m.SendDuration, m.FilesSaved, m.FilesDeleted, m.FileErrors,
	}
	for _, c := range collectors {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}
	return m, nil
}

// RegisterHandlers adds the /metrics handler to the given mux.
func (m *Metrics) RegisterHandlers(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
