package adapters

import (
	"context"
	"fmt"
	"github.com/dzhechko/pu-3d-avatar/application/ports/outbound"
	"github.com/dzhechko/pu-3d-avatar/domain"
	"math"
	"strconv"
	"strings"
)

type ffprobeDurationProber struct {
	logger      outbound.LoggerPort
	runner      outbound.CommandRunner
	ffprobePath string
}

func NewFFprobeDurationProber(logger outbound.LoggerPort, runner outbound.CommandRunner, ffprobePath string) outbound.DurationProberPort {
	return &ffprobeDurationProber{
		logger:      logger,
		runner:      runner,
		ffprobePath: ffprobePath,
	}
}

func (p *ffprobeDurationProber) Probe(ctx context.Context, audioFileName string) (float64, error) {
	out, err := p.runner.Run(ctx, p.ffprobePath, "-v", "error", "-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1", audioFileName)
	if err != nil {
		p.logger.ErrorWithFields(err, "error getting audio duration", map[string]interface{}{
			"file": audioFileName,
		})
		return 0, err
	}

	durationStr := strings.TrimSpace(string(out))
	duration, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		p.logger.ErrorWithFields(err, "error parsing audio duration", map[string]interface{}{
			"file":   audioFileName,
			"output": durationStr,
		})
		return 0, fmt.Errorf("%w: unexpected ffprobe output %q", domain.ErrMalformedOutput, durationStr)
	}
	if math.IsNaN(duration) || math.IsInf(duration, 0) {
		return 0, fmt.Errorf("%w: ffprobe reported duration %q", domain.ErrMalformedOutput, durationStr)
	}

	return duration, nil
}

type ffmpegAudioTranscoder struct {
	logger     outbound.LoggerPort
	runner     outbound.CommandRunner
	ffmpegPath string
}

func NewFFmpegAudioTranscoder(logger outbound.LoggerPort, runner outbound.CommandRunner, ffmpegPath string) outbound.AudioTranscoderPort {
	return &ffmpegAudioTranscoder{
		logger:     logger,
		runner:     runner,
		ffmpegPath: ffmpegPath,
	}
}

// ToWaveform writes 16 kHz mono 16-bit PCM, the only input rhubarb accepts reliably.
func (t *ffmpegAudioTranscoder) ToWaveform(ctx context.Context, srcFileName string, dstFileName string) error {
	_, err := t.runner.Run(ctx, t.ffmpegPath, "-y", "-i", srcFileName,
		"-acodec", "pcm_s16le", "-ar", "16000", "-ac", "1", dstFileName)
	if err != nil {
		t.logger.ErrorWithFields(err, "error converting audio to waveform", map[string]interface{}{
			"source": srcFileName,
		})
		return err
	}
	return nil
}

func (t *ffmpegAudioTranscoder) ToMP3(ctx context.Context, srcFileName string, dstFileName string) error {
	_, err := t.runner.Run(ctx, t.ffmpegPath, "-y", "-f", "webm", "-i", srcFileName,
		"-acodec", "libmp3lame", "-ar", "44100", "-ac", "2", "-ab", "192k", dstFileName)
	if err != nil {
		t.logger.ErrorWithFields(err, "error converting recording to mp3", map[string]interface{}{
			"source": srcFileName,
		})
		return err
	}
	return nil
}
