package outbound

import (
	"context"
	"github.com/dzhechko/pu-3d-avatar/domain"
)

type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type DurationProberPort interface {
	Probe(ctx context.Context, audioFileName string) (float64, error)
}

type AudioTranscoderPort interface {
	ToWaveform(ctx context.Context, srcFileName string, dstFileName string) error
	ToMP3(ctx context.Context, srcFileName string, dstFileName string) error
}

type PhonemeExtractorPort interface {
	Extract(ctx context.Context, waveFileName string, outputFileName string) (domain.MouthCueTrack, error)
}

type CapabilityProberPort interface {
	Probe(ctx context.Context) domain.CapabilityStatus
	Invalidate()
}
