package inbound

import (
	"context"
	"github.com/dzhechko/pu-3d-avatar/domain"
)

type LipSyncPipelinePort interface {
	ProduceLipSyncedMessages(ctx context.Context, messages []domain.Message) ([]domain.Message, error)
}
