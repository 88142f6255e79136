package services

import (
	"context"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dzhechko/pu-3d-avatar/application/ports/outbound"
	"github.com/dzhechko/pu-3d-avatar/domain"
	"github.com/dzhechko/pu-3d-avatar/infrastructure/adapters"
	"github.com/rs/zerolog"
)

func newTestLogger() outbound.LoggerPort {
	return adapters.NewZerologWrapperWithWriter(io.Discard, zerolog.Disabled)
}

var testDurationSettings = MessagePhonemeGeneratorSettings{DefaultDuration: 2.0, MaxDuration: 600}

type goroutineDispatcher struct{}

func (goroutineDispatcher) Submit(task func()) error {
	go task()
	return nil
}

type nopMetrics struct{}

func (nopMetrics) RecordSynthesisAttempt(string) {}

func (nopMetrics) RecordTrack(domain.LipSyncSource) {}

func (nopMetrics) SetCapability(domain.CapabilityStatus) {}

func (nopMetrics) RecordStageDuration(string, time.Duration) {}

// scriptedAudioGenerator replays errs in order, then succeeds with audio.
type scriptedAudioGenerator struct {
	mu    sync.Mutex
	calls int
	errs  []error
	audio func(text string) []byte
}

func (g *scriptedAudioGenerator) Generate(ctx context.Context, req outbound.GenerateAudioRequest) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.calls <= len(g.errs) {
		return nil, g.errs[g.calls-1]
	}
	if g.audio != nil {
		return g.audio(req.Text), nil
	}
	return []byte("audio:" + req.Text), nil
}

func (g *scriptedAudioGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type fixedDurationProber struct {
	duration float64
	err      error
}

func (p fixedDurationProber) Probe(context.Context, string) (float64, error) {
	return p.duration, p.err
}

type staticCapabilityProber struct {
	status      domain.CapabilityStatus
	invalidated int32
}

func (p *staticCapabilityProber) Probe(context.Context) domain.CapabilityStatus {
	return p.status
}

func (p *staticCapabilityProber) Invalidate() {
	atomic.AddInt32(&p.invalidated, 1)
}

// fileTranscoder writes a fake waveform so cleanup can be observed.
type fileTranscoder struct {
	err error
}

func (t fileTranscoder) ToWaveform(_ context.Context, _ string, dst string) error {
	if err := os.WriteFile(dst, []byte("RIFF"), 0o644); err != nil {
		return err
	}
	return t.err
}

func (t fileTranscoder) ToMP3(_ context.Context, src string, dst string) error {
	if t.err != nil {
		return t.err
	}
	content, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, content, 0o644)
}

type recordingExtractor struct {
	calls int32
	track domain.MouthCueTrack
	err   error
}

func (e *recordingExtractor) Extract(_ context.Context, _ string, outputFileName string) (domain.MouthCueTrack, error) {
	atomic.AddInt32(&e.calls, 1)
	if err := os.WriteFile(outputFileName, []byte("{}"), 0o644); err != nil {
		return domain.MouthCueTrack{}, err
	}
	return e.track, e.err
}

type recordingArchive struct {
	mu       sync.Mutex
	requests []outbound.ArchiveArtifactRequest
}

func (a *recordingArchive) Archive(_ context.Context, req outbound.ArchiveArtifactRequest) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.requests = append(a.requests, req)
	return "diagnostics/" + req.RunID, nil
}

type recordingJournal struct {
	mu      sync.Mutex
	entries []outbound.RunJournalEntry
}

func (j *recordingJournal) Record(_ context.Context, entry outbound.RunJournalEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
	return nil
}
