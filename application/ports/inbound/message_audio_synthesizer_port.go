package inbound

import "context"

type MessageAudioSynthesizerPort interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
