package inbound

import (
	"context"
	"github.com/dzhechko/pu-3d-avatar/domain"
)

type ConversationPort interface {
	Reply(ctx context.Context, userMessage string) ([]domain.Message, error)
	ReplyToSpeech(ctx context.Context, audioBase64 string) ([]domain.Message, error)
}
