package outbound

import "context"

type TranscriberPort interface {
	Transcribe(ctx context.Context, audioFileName string) (string, error)
}
