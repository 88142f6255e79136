package services

import (
	"context"
	"errors"
	"fmt"
	"github.com/dzhechko/pu-3d-avatar/application/ports/inbound"
	"github.com/dzhechko/pu-3d-avatar/application/ports/outbound"
	"github.com/dzhechko/pu-3d-avatar/domain"
)

type messageAudioSynthesizer struct {
	logger         outbound.LoggerPort
	audioGenerator outbound.AudioGeneratorPort
	metrics        outbound.PipelineMetricsPort
	retryPolicy    RetryPolicy
	voiceID        string
}

func NewMessageAudioSynthesizer(logger outbound.LoggerPort, audioGenerator outbound.AudioGeneratorPort,
	pipelineMetrics outbound.PipelineMetricsPort, retryPolicy RetryPolicy, voiceID string) inbound.MessageAudioSynthesizerPort {
	return &messageAudioSynthesizer{
		logger:         logger,
		audioGenerator: audioGenerator,
		metrics:        pipelineMetrics,
		retryPolicy:    retryPolicy,
		voiceID:        voiceID,
	}
}

func (s *messageAudioSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	var audio []byte
	err := s.retryPolicy.Do(ctx, isRateLimited, func(ctx context.Context, attempt int) error {
		generated, err := s.audioGenerator.Generate(ctx, outbound.GenerateAudioRequest{
			Text:    text,
			VoiceID: s.voiceID,
		})
		switch {
		case err == nil && len(generated) == 0:
			s.metrics.RecordSynthesisAttempt(outbound.SynthesisFailure)
			return fmt.Errorf("%w: speech synthesis returned no audio", domain.ErrMalformedOutput)
		case err == nil:
			s.metrics.RecordSynthesisAttempt(outbound.SynthesisSuccess)
			audio = generated
			return nil
		case isRateLimited(err):
			s.metrics.RecordSynthesisAttempt(outbound.SynthesisRateLimited)
			s.logger.WarnWithFields("Speech synthesis rate limited", map[string]interface{}{
				"attempt":     attempt,
				"maxAttempts": s.retryPolicy.MaxAttempts,
			})
			return err
		default:
			s.metrics.RecordSynthesisAttempt(outbound.SynthesisFailure)
			if errors.Is(err, domain.ErrUnauthorized) {
				s.logger.Error(err, "Speech synthesis authentication failed, check the ElevenLabs API key")
			}
			return err
		}
	})
	if err != nil {
		return nil, err
	}

	return audio, nil
}

func isRateLimited(err error) bool {
	return errors.Is(err, domain.ErrRateLimited)
}
