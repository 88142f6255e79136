package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"github.com/dustin/go-humanize"
	"github.com/dzhechko/pu-3d-avatar/application/ports/inbound"
	"github.com/dzhechko/pu-3d-avatar/application/ports/outbound"
	"github.com/dzhechko/pu-3d-avatar/channel_utils"
	"github.com/dzhechko/pu-3d-avatar/domain"
	"github.com/google/uuid"
	"os"
	"path/filepath"
	"time"
)

type lipSyncOrchestrator struct {
	logger           outbound.LoggerPort
	workerPool       outbound.TaskDispatcher
	synthesizer      inbound.MessageAudioSynthesizerPort
	phonemeGenerator inbound.MessagePhonemeGeneratorPort
	journal          outbound.RunJournalPort
	metrics          outbound.PipelineMetricsPort
	artifactsDir     string
}

func NewLipSyncOrchestrator(logger outbound.LoggerPort, workerPool outbound.TaskDispatcher,
	synthesizer inbound.MessageAudioSynthesizerPort, phonemeGenerator inbound.MessagePhonemeGeneratorPort,
	journal outbound.RunJournalPort, pipelineMetrics outbound.PipelineMetricsPort, artifactsDir string) inbound.LipSyncPipelinePort {
	return &lipSyncOrchestrator{
		logger:           logger,
		workerPool:       workerPool,
		synthesizer:      synthesizer,
		phonemeGenerator: phonemeGenerator,
		journal:          journal,
		metrics:          pipelineMetrics,
		artifactsDir:     artifactsDir,
	}
}

// ProduceLipSyncedMessages attaches audio and a mouth cue track to every message.
// Either all messages are populated or none are and the error is a *domain.PipelineError.
func (o *lipSyncOrchestrator) ProduceLipSyncedMessages(ctx context.Context, messages []domain.Message) ([]domain.Message, error) {
	if len(messages) == 0 {
		return messages, nil
	}

	runID := uuid.NewString()
	runDir := filepath.Join(o.artifactsDir, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		o.logger.ErrorWithFields(err, "Failed to create run artifacts directory", map[string]interface{}{
			"dir": runDir,
		})
		return nil, &domain.PipelineError{Stage: domain.SynthesisStage, MessageIndex: -1, Err: err}
	}
	defer func() {
		if err := os.RemoveAll(runDir); err != nil {
			o.logger.ErrorWithFields(err, "Failed to remove run artifacts directory", map[string]interface{}{
				"dir": runDir,
			})
		}
	}()

	fields := map[string]interface{}{
		"runId":    runID,
		"messages": len(messages),
	}
	o.logger.InfoWithFields("Starting lip sync run", fields)

	audios, audioFiles, err := o.synthesizeAll(ctx, runDir, messages)
	if err != nil {
		o.logger.ErrorWithFields(err, "Speech synthesis failed, aborting lip sync run", fields)
		return nil, err
	}

	tracks, err := o.generatePhonemesAll(ctx, runID, messages, audioFiles)
	if err != nil {
		o.logger.ErrorWithFields(err, "Phoneme generation was interrupted, aborting lip sync run", fields)
		return nil, err
	}

	for i := range messages {
		messages[i].Audio = base64.StdEncoding.EncodeToString(audios[i])
		messages[i].Lipsync = &tracks[i]
	}

	o.logger.InfoWithFields("Finished lip sync run", fields)
	return messages, nil
}

func (o *lipSyncOrchestrator) synthesizeAll(ctx context.Context, runDir string, messages []domain.Message) ([][]byte, []string, error) {
	defer o.observeStage(domain.SynthesisStage, time.Now())

	audios := make([][]byte, len(messages))
	audioFiles := make([]string, len(messages))

	err := channel_utils.FanOut(ctx, o.workerPool, len(messages), func(ctx context.Context, index int) (err error) {
		defer recoverStage(domain.SynthesisStage, index, &err)

		audio, err := o.synthesizer.Synthesize(ctx, messages[index].Text)
		if err != nil {
			return &domain.PipelineError{Stage: domain.SynthesisStage, MessageIndex: index, Err: err}
		}

		fileName := filepath.Join(runDir, fmt.Sprintf("message_%d.mp3", index))
		if err := os.WriteFile(fileName, audio, 0o644); err != nil {
			return &domain.PipelineError{Stage: domain.SynthesisStage, MessageIndex: index, Err: err}
		}

		o.logger.DebugWithFields("Message converted to speech", map[string]interface{}{
			"index": index,
			"size":  humanize.Bytes(uint64(len(audio))),
		})
		audios[index] = audio
		audioFiles[index] = fileName
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return audios, audioFiles, nil
}

func (o *lipSyncOrchestrator) generatePhonemesAll(ctx context.Context, runID string, messages []domain.Message, audioFiles []string) ([]domain.MouthCueTrack, error) {
	defer o.observeStage(domain.PhonemeStage, time.Now())

	tracks := make([]domain.MouthCueTrack, len(messages))

	err := channel_utils.FanOut(ctx, o.workerPool, len(messages), func(ctx context.Context, index int) (err error) {
		defer recoverStage(domain.PhonemeStage, index, &err)

		if err := ctx.Err(); err != nil {
			return &domain.PipelineError{Stage: domain.PhonemeStage, MessageIndex: index, Err: err}
		}
		defer o.removeAudio(audioFiles[index])

		track, source := o.phonemeGenerator.Generate(ctx, inbound.GeneratePhonemesParams{
			RunID:         runID,
			AudioFileName: audioFiles[index],
		})
		// A track produced while the run was being cancelled is not trustworthy.
		if err := ctx.Err(); err != nil {
			return &domain.PipelineError{Stage: domain.PhonemeStage, MessageIndex: index, Err: err}
		}
		tracks[index] = track

		if err := o.journal.Record(ctx, outbound.RunJournalEntry{
			RunID:        runID,
			MessageIndex: index,
			Text:         messages[index].Text,
			Duration:     track.Metadata.Duration,
			CueCount:     len(track.MouthCues),
			Source:       source,
		}); err != nil {
			o.logger.Error(err, "Failed to record lip sync run entry")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return tracks, nil
}

// recoverStage turns a panicking task into a PipelineError for its stage.
func recoverStage(stage string, index int, err *error) {
	if r := recover(); r != nil {
		*err = &domain.PipelineError{Stage: stage, MessageIndex: index, Err: fmt.Errorf("panic: %v", r)}
	}
}

func (o *lipSyncOrchestrator) removeAudio(fileName string) {
	if err := os.Remove(fileName); err != nil && !os.IsNotExist(err) {
		o.logger.ErrorWithFields(err, "Failed to remove message audio", map[string]interface{}{
			"file": fileName,
		})
	}
}

func (o *lipSyncOrchestrator) observeStage(stage string, start time.Time) {
	o.metrics.RecordStageDuration(stage, time.Since(start))
}
