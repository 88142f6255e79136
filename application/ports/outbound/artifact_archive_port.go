package outbound

import "context"

type ArchiveArtifactRequest struct {
	RunID    string
	FileName string
}

type ArtifactArchivePort interface {
	Archive(ctx context.Context, req ArchiveArtifactRequest) (string, error)
}
