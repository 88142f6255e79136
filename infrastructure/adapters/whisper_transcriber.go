package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"github.com/dzhechko/pu-3d-avatar/application/ports/outbound"
	"github.com/dzhechko/pu-3d-avatar/config"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

type transcriptionResponse struct {
	Text string `json:"text"`
}

type whisperTranscriber struct {
	ContentFetcher
	logger       outbound.LoggerPort
	openAIConfig *config.OpenAIConfig
}

func NewWhisperTranscriber(contentFetcher ContentFetcher, openAIConfig *config.OpenAIConfig, logger outbound.LoggerPort) outbound.TranscriberPort {
	return &whisperTranscriber{
		ContentFetcher: contentFetcher,
		logger:         logger,
		openAIConfig:   openAIConfig,
	}
}

func (w *whisperTranscriber) Transcribe(ctx context.Context, audioFileName string) (string, error) {
	body, contentType, err := w.buildForm(audioFileName)
	if err != nil {
		w.logger.ErrorWithFields(err, "Failed to build the transcription form", map[string]interface{}{
			"file": audioFileName,
		})
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.openAIConfig.TranscriptionUrl, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+w.openAIConfig.ApiKey)
	req.Header.Set("Content-Type", contentType)

	payload, err := w.FetchContent(req)
	if err != nil {
		return "", err
	}

	var response transcriptionResponse
	if err := json.Unmarshal(payload, &response); err != nil {
		w.logger.Error(err, "Failed to unmarshal the transcription response")
		return "", err
	}

	return strings.TrimSpace(response.Text), nil
}

func (w *whisperTranscriber) buildForm(audioFileName string) (io.Reader, string, error) {
	file, err := os.Open(audioFileName)
	if err != nil {
		return nil, "", err
	}
	defer func(file *os.File) {
		if err := file.Close(); err != nil {
			w.logger.Error(err, "Failed to close audio file")
		}
	}(file)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("model", w.openAIConfig.TranscriptionModel); err != nil {
		return nil, "", err
	}
	part, err := writer.CreateFormFile("file", filepath.Base(audioFileName))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return &buf, writer.FormDataContentType(), nil
}
