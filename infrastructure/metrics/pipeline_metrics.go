package metrics

import (
	"github.com/dzhechko/pu-3d-avatar/application/ports/outbound"
	"github.com/dzhechko/pu-3d-avatar/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"time"
)

var (
	// Labels: outcome (success/rate_limited/failure)
	synthesisAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "avatar_synthesis_attempts_total",
			Help: "Total number of speech synthesis attempts by outcome",
		},
		[]string{"outcome"},
	)

	// Labels: source (rhubarb/fallback)
	lipSyncTracksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "avatar_lipsync_tracks_total",
			Help: "Total number of mouth cue tracks produced by source",
		},
		[]string{"source"},
	)

	// 1 when rhubarb and its acoustic model are usable, 0 in basic mode.
	lipSyncCapability = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "avatar_lipsync_capability_full",
			Help: "Lip sync capability (0=basic, 1=full)",
		},
	)

	// Labels: stage (synthesis/phonemes)
	pipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "avatar_pipeline_stage_duration_seconds",
			Help:    "Lip sync pipeline stage duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"stage"},
	)

	// Labels: method, route, status
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "avatar_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "avatar_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

type pipelineRecorder struct{}

func NewPipelineRecorder() outbound.PipelineMetricsPort {
	return &pipelineRecorder{}
}

func (r *pipelineRecorder) RecordSynthesisAttempt(outcome string) {
	synthesisAttemptsTotal.WithLabelValues(outcome).Inc()
}

func (r *pipelineRecorder) RecordTrack(source domain.LipSyncSource) {
	lipSyncTracksTotal.WithLabelValues(string(source)).Inc()
}

func (r *pipelineRecorder) SetCapability(status domain.CapabilityStatus) {
	if status == domain.CapabilityFull {
		lipSyncCapability.Set(1)
	} else {
		lipSyncCapability.Set(0)
	}
}

func (r *pipelineRecorder) RecordStageDuration(stage string, elapsed time.Duration) {
	pipelineStageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// RecordRequest is called by the HTTP middleware once a response has been written.
func RecordRequest(method string, route string, status string, elapsed time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
