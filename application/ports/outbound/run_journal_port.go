package outbound

import (
	"context"
	"github.com/dzhechko/pu-3d-avatar/domain"
)

type RunJournalEntry struct {
	RunID        string
	MessageIndex int
	Text         string
	Duration     float64
	CueCount     int
	Source       domain.LipSyncSource
}

type RunJournalPort interface {
	Record(ctx context.Context, entry RunJournalEntry) error
}
