package outbound

import "github.com/dzhechko/pu-3d-avatar/domain"

type CannedMessageReaderPort interface {
	Read(fileName string) ([]domain.Message, error)
}
