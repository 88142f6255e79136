package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/dzhechko/pu-3d-avatar/application/ports/outbound"
	"github.com/dzhechko/pu-3d-avatar/domain"
	"os"
)

type rhubarbPhonemeExtractor struct {
	logger      outbound.LoggerPort
	runner      outbound.CommandRunner
	rhubarbPath string
}

func NewRhubarbPhonemeExtractor(logger outbound.LoggerPort, runner outbound.CommandRunner, rhubarbPath string) outbound.PhonemeExtractorPort {
	return &rhubarbPhonemeExtractor{
		logger:      logger,
		runner:      runner,
		rhubarbPath: rhubarbPath,
	}
}

func (e *rhubarbPhonemeExtractor) Extract(ctx context.Context, waveFileName string, outputFileName string) (domain.MouthCueTrack, error) {
	_, err := e.runner.Run(ctx, e.rhubarbPath, "-f", "json", "-o", outputFileName, waveFileName,
		"-r", "phonetic", "--machineReadable")
	if err != nil {
		return domain.MouthCueTrack{}, err
	}

	payload, err := os.ReadFile(outputFileName)
	if err != nil {
		return domain.MouthCueTrack{}, fmt.Errorf("%w: reading rhubarb output: %v", domain.ErrMalformedOutput, err)
	}

	var track domain.MouthCueTrack
	if err := json.Unmarshal(payload, &track); err != nil {
		e.logger.WarnWithFields("Rhubarb produced invalid JSON", map[string]interface{}{
			"file": outputFileName,
		})
		return domain.MouthCueTrack{}, fmt.Errorf("%w: %v", domain.ErrMalformedOutput, err)
	}
	if err := track.Validate(); err != nil {
		return domain.MouthCueTrack{}, err
	}

	return track, nil
}
