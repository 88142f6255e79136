package adapters

import (
	"encoding/json"
	"github.com/dzhechko/pu-3d-avatar/application/ports/outbound"
	"github.com/dzhechko/pu-3d-avatar/domain"
	"os"
)

type fileMessageReader struct {
	logger outbound.LoggerPort
}

func NewFileMessageReader(logger outbound.LoggerPort) outbound.CannedMessageReaderPort {
	return &fileMessageReader{
		logger: logger,
	}
}

// Read loads pre-rendered messages whose audio and lipsync are already attached.
func (f *fileMessageReader) Read(fileName string) ([]domain.Message, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer func(file *os.File) {
		err := file.Close()
		if err != nil {
			f.logger.Error(err, "failed to close file")
		}
	}(file)

	var messages []domain.Message
	if err := json.NewDecoder(file).Decode(&messages); err != nil {
		f.logger.ErrorWithFields(err, "failed to decode json", map[string]interface{}{
			"file": fileName,
		})
		return nil, err
	}

	for i := range messages {
		messages[i].FacialExpression = messages[i].FacialExpression.Normalize()
		messages[i].Animation = messages[i].Animation.Normalize()
		if messages[i].Lipsync != nil {
			if err := messages[i].Lipsync.Validate(); err != nil {
				f.logger.ErrorWithFields(err, "canned message has an invalid lipsync track", map[string]interface{}{
					"file":  fileName,
					"index": i,
				})
				return nil, err
			}
		}
	}

	return messages, nil
}
