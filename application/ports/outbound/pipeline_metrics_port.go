package outbound

import (
	"github.com/dzhechko/pu-3d-avatar/domain"
	"time"
)

const (
	SynthesisSuccess     = "success"
	SynthesisRateLimited = "rate_limited"
	SynthesisFailure     = "failure"
)

type PipelineMetricsPort interface {
	RecordSynthesisAttempt(outcome string)
	RecordTrack(source domain.LipSyncSource)
	SetCapability(status domain.CapabilityStatus)
	RecordStageDuration(stage string, elapsed time.Duration)
}
