package outbound

import (
	"context"
	"github.com/dzhechko/pu-3d-avatar/domain"
)

type DialogueGeneratorPort interface {
	Generate(ctx context.Context, userMessage string) ([]domain.Message, error)
}
