package inbound

import (
	"context"
	"github.com/dzhechko/pu-3d-avatar/domain"
)

type GeneratePhonemesParams struct {
	RunID         string
	AudioFileName string
}

type MessagePhonemeGeneratorPort interface {
	Generate(ctx context.Context, params GeneratePhonemesParams) (domain.MouthCueTrack, domain.LipSyncSource)
}
