// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	SummariesPosted  prometheus.Counter
	SummariesFailed  prometheus.Counter
	SummariesEmpty   prometheus.Counter
	RelaysStarted    prometheus.Counter
	RelaysSucceeded  prometheus.Counter
	RelaysFailed     *prometheus.CounterVec
	CommandsDenied   prometheus.Counter
	SocketReconnects prometheus.Counter

	// Histograms (seconds)
	ScrobbleFetchDuration   prometheus.Observer
	AttachmentFetchDuration prometheus.Observer
	UploadDuration          prometheus.Observer
	RelayDuration           prometheus.Observer
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		SummariesPosted = promauto.NewCounter(prometheus.CounterOpts{Name: "charbot_summaries_posted_total", Help: "Number of listening summaries posted"})
		SummariesFailed = promauto.NewCounter(prometheus.CounterOpts{Name: "charbot_summaries_failed_total", Help: "Number of listening summaries that failed before posting"})
		SummariesEmpty = promauto.NewCounter(prometheus.CounterOpts{Name: "charbot_summaries_empty_total", Help: "Number of listening summaries posted with an empty track list"})
		RelaysStarted = promauto.NewCounter(prometheus.CounterOpts{Name: "charbot_relays_started_total", Help: "Number of attachment relays started"})
		RelaysSucceeded = promauto.NewCounter(prometheus.CounterOpts{Name: "charbot_relays_succeeded_total", Help: "Number of attachment relays that produced a public reference"})
		RelaysFailed = promauto.NewCounterVec(prometheus.CounterOpts{Name: "charbot_relays_failed_total", Help: "Number of attachment relays that failed, by stage"}, []string{"stage"})
		CommandsDenied = promauto.NewCounter(prometheus.CounterOpts{Name: "charbot_commands_denied_total", Help: "Number of commands or events denied by the owner guard"})
		SocketReconnects = promauto.NewCounter(prometheus.CounterOpts{Name: "charbot_socket_reconnects_total", Help: "Number of Socket Mode reconnects"})
		ScrobbleFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "charbot_scrobble_fetch_duration_seconds", Help: "Scrobble log fetch duration seconds", Buckets: prometheus.DefBuckets})
		AttachmentFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "charbot_attachment_fetch_duration_seconds", Help: "Attachment fetch duration seconds", Buckets: prometheus.DefBuckets})
		UploadDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "charbot_upload_duration_seconds", Help: "Destination upload duration seconds", Buckets: prometheus.DefBuckets})
		RelayDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "charbot_relay_total_duration_seconds", Help: "Total relay pipeline duration seconds", Buckets: prometheus.DefBuckets})
	})
}

// CommandDenied increments the guard denial counter if metrics are initialized.
func CommandDenied() {
	if CommandsDenied != nil {
		CommandsDenied.Inc()
	}
}

// SocketReconnected increments the reconnect counter if metrics are initialized.
func SocketReconnected() {
	if SocketReconnects != nil {
		SocketReconnects.Inc()
	}
}

// RelayFailed increments the failure counter for a pipeline stage if metrics are initialized.
func RelayFailed(stage string) {
	if RelaysFailed != nil {
		RelaysFailed.WithLabelValues(stage).Inc()
	}
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding correlation id (if absent) and the id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
