package services

import (
	"context"
	"errors"
	"github.com/dzhechko/pu-3d-avatar/application/ports/inbound"
	"github.com/dzhechko/pu-3d-avatar/application/ports/outbound"
	"github.com/dzhechko/pu-3d-avatar/domain"
	"os"
	"path/filepath"
	"strings"
)

type messagePhonemeGenerator struct {
	logger           outbound.LoggerPort
	durationProber   outbound.DurationProberPort
	capabilityProber outbound.CapabilityProberPort
	transcoder       outbound.AudioTranscoderPort
	extractor        outbound.PhonemeExtractorPort
	fallback         *FallbackPhonemeGenerator
	archive          outbound.ArtifactArchivePort
	metrics          outbound.PipelineMetricsPort
	settings         MessagePhonemeGeneratorSettings
}

type MessagePhonemeGeneratorDeps struct {
	DurationProber   outbound.DurationProberPort
	CapabilityProber outbound.CapabilityProberPort
	Transcoder       outbound.AudioTranscoderPort
	Extractor        outbound.PhonemeExtractorPort
	Fallback         *FallbackPhonemeGenerator
	Archive          outbound.ArtifactArchivePort
	Metrics          outbound.PipelineMetricsPort
}

// MessagePhonemeGeneratorSettings bound the probed duration. Values outside
// (0, MaxDuration] are replaced by DefaultDuration.
type MessagePhonemeGeneratorSettings struct {
	DefaultDuration float64
	MaxDuration     float64
}

func NewMessagePhonemeGenerator(logger outbound.LoggerPort, deps MessagePhonemeGeneratorDeps, settings MessagePhonemeGeneratorSettings) inbound.MessagePhonemeGeneratorPort {
	return &messagePhonemeGenerator{
		logger:           logger,
		durationProber:   deps.DurationProber,
		capabilityProber: deps.CapabilityProber,
		transcoder:       deps.Transcoder,
		extractor:        deps.Extractor,
		fallback:         deps.Fallback,
		archive:          deps.Archive,
		metrics:          deps.Metrics,
		settings:         settings,
	}
}

// Generate never fails: every problem on the extraction path ends in a synthetic track.
func (g *messagePhonemeGenerator) Generate(ctx context.Context, params inbound.GeneratePhonemesParams) (domain.MouthCueTrack, domain.LipSyncSource) {
	base := strings.TrimSuffix(params.AudioFileName, filepath.Ext(params.AudioFileName))
	waveFileName := base + ".wav"
	outputFileName := base + ".json"
	defer g.removeArtifacts(waveFileName, outputFileName)

	duration := g.probeDuration(ctx, params.AudioFileName)

	track, source := g.generate(ctx, params, duration, waveFileName, outputFileName)
	g.metrics.RecordTrack(source)

	return track, source
}

func (g *messagePhonemeGenerator) generate(ctx context.Context, params inbound.GeneratePhonemesParams, duration float64,
	waveFileName string, outputFileName string) (domain.MouthCueTrack, domain.LipSyncSource) {
	if g.capabilityProber.Probe(ctx) != domain.CapabilityFull {
		return g.fallback.Generate(duration), domain.FallbackLipSyncSource
	}

	track, err := g.extract(ctx, params.AudioFileName, waveFileName, outputFileName)
	if err != nil && ctx.Err() != nil {
		// Cancellation killed the subprocess; the caller discards this track.
		g.logger.DebugWithFields("Phoneme extraction cancelled", map[string]interface{}{
			"runId": params.RunID,
			"file":  filepath.Base(params.AudioFileName),
		})
		return g.fallback.Generate(duration), domain.FallbackLipSyncSource
	}
	if err != nil {
		fields := map[string]interface{}{
			"runId": params.RunID,
			"file":  filepath.Base(params.AudioFileName),
			"error": err.Error(),
		}
		if errors.Is(err, domain.ErrToolUnavailable) {
			g.capabilityProber.Invalidate()
		}
		if key, archiveErr := g.archive.Archive(ctx, outbound.ArchiveArtifactRequest{
			RunID:    params.RunID,
			FileName: params.AudioFileName,
		}); archiveErr == nil && key != "" {
			fields["archivedAs"] = key
		}
		g.logger.WarnWithFields("Phoneme extraction failed, falling back to basic lip sync", fields)
		return g.fallback.Generate(duration), domain.FallbackLipSyncSource
	}

	if track.Metadata.Duration <= 0 {
		track.Metadata.Duration = duration
	}

	return track, domain.RhubarbLipSyncSource
}

func (g *messagePhonemeGenerator) extract(ctx context.Context, audioFileName string, waveFileName string, outputFileName string) (domain.MouthCueTrack, error) {
	if err := g.transcoder.ToWaveform(ctx, audioFileName, waveFileName); err != nil {
		return domain.MouthCueTrack{}, err
	}
	return g.extractor.Extract(ctx, waveFileName, outputFileName)
}

func (g *messagePhonemeGenerator) probeDuration(ctx context.Context, audioFileName string) float64 {
	duration, err := g.durationProber.Probe(ctx, audioFileName)
	if err != nil || !(duration > 0) || duration > g.settings.MaxDuration {
		g.logger.WarnWithFields("Could not determine a usable audio duration, using default", map[string]interface{}{
			"file":     filepath.Base(audioFileName),
			"probed":   duration,
			"max":      g.settings.MaxDuration,
			"fallback": g.settings.DefaultDuration,
		})
		return g.settings.DefaultDuration
	}
	return duration
}

func (g *messagePhonemeGenerator) removeArtifacts(fileNames ...string) {
	for _, fileName := range fileNames {
		if err := os.Remove(fileName); err != nil && !errors.Is(err, os.ErrNotExist) {
			g.logger.ErrorWithFields(err, "Failed to remove lip sync artifact", map[string]interface{}{
				"file": fileName,
			})
		}
	}
}
