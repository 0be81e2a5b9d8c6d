// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// RunsTotal tracks agent runs by terminal outcome.
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_runs_total",
			Help: "Total agent runs by terminal outcome",
		},
		[]string{"outcome"},
	)

	// RunDuration tracks wall-clock time from run creation to terminal status.
	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agent_run_duration_seconds",
			Help:    "Agent run duration from creation to terminal status",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 45, 60, 90, 120},
		},
		[]string{"outcome"},
	)

	// RunPollsTotal tracks status-poll iterations against the remote service.
	RunPollsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agent_run_polls_total",
			Help: "Total run status poll requests",
		},
	)

	// ArtifactDownloadsTotal tracks artifact downloads by result.
	ArtifactDownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artifact_downloads_total",
			Help: "Total artifact downloads",
		},
		[]string{"result"},
	)

	// ArtifactBytesTotal tracks bytes written to the downloads directory.
	ArtifactBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "artifact_bytes_total",
			Help: "Total artifact bytes written to disk",
		},
	)

	// ArtifactRetentionDeletes tracks files removed by the retention sweep.
	ArtifactRetentionDeletes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "artifact_retention_deletes_total",
			Help: "Files removed by the artifact retention sweep",
		},
	)

	// ArtifactsOnDisk tracks the current artifact file count.
	ArtifactsOnDisk = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "artifacts_on_disk",
			Help: "Current number of artifact files on disk",
		},
	)

	// SessionsActive tracks live chat sessions.
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_sessions_active",
			Help: "Number of active chat sessions",
		},
	)

	// MessagesTotal tracks chat messages by role.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_total",
			Help: "Total chat messages",
		},
		[]string{"role"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordRun records metrics for a finished (or timed out) agent run.
func RecordRun(outcome string, duration float64) {
	RunsTotal.WithLabelValues(outcome).Inc()
	RunDuration.WithLabelValues(outcome).Observe(duration)
}
