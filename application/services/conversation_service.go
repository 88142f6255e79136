package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"github.com/dzhechko/pu-3d-avatar/application/ports/inbound"
	"github.com/dzhechko/pu-3d-avatar/application/ports/outbound"
	"github.com/dzhechko/pu-3d-avatar/domain"
	"github.com/google/uuid"
	"os"
	"path/filepath"
	"strings"
)

type ConversationDeps struct {
	Dialogue      outbound.DialogueGeneratorPort
	Pipeline      inbound.LipSyncPipelinePort
	Transcriber   outbound.TranscriberPort
	Transcoder    outbound.AudioTranscoderPort
	MessageReader outbound.CannedMessageReaderPort
}

type ConversationSettings struct {
	DialogueEnabled   bool
	IntroMessagesFile string
	ScratchDir        string
}

type conversationService struct {
	logger   outbound.LoggerPort
	deps     ConversationDeps
	settings ConversationSettings
}

func NewConversationService(logger outbound.LoggerPort, deps ConversationDeps, settings ConversationSettings) inbound.ConversationPort {
	return &conversationService{
		logger:   logger,
		deps:     deps,
		settings: settings,
	}
}

// Reply only fails when ctx is done; every other failure yields a canned response.
func (c *conversationService) Reply(ctx context.Context, userMessage string) ([]domain.Message, error) {
	if strings.TrimSpace(userMessage) == "" {
		return c.introduction(ctx), nil
	}
	if !c.settings.DialogueEnabled {
		return domain.MissingApiKeysResponse(), nil
	}

	messages, err := c.deps.Dialogue.Generate(ctx, userMessage)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Error(err, "Dialogue generation failed, sending default response")
		return domain.DefaultResponse(), nil
	}

	lipSynced, err := c.deps.Pipeline.ProduceLipSyncedMessages(ctx, messages)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Error(err, "Lip sync pipeline failed, sending default response")
		return domain.DefaultResponse(), nil
	}

	return lipSynced, nil
}

// ReplyToSpeech transcribes a base64 webm recording and answers it like a typed message.
func (c *conversationService) ReplyToSpeech(ctx context.Context, audioBase64 string) ([]domain.Message, error) {
	recording, err := decodeRecording(audioBase64)
	if err != nil {
		return nil, err
	}
	if !c.settings.DialogueEnabled {
		return domain.MissingApiKeysResponse(), nil
	}

	userMessage, err := c.transcribe(ctx, recording)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Error(err, "Speech transcription failed, sending default response")
		return domain.DefaultResponse(), nil
	}

	c.logger.DebugWithFields("Transcribed user speech", map[string]interface{}{
		"text": userMessage,
	})
	return c.Reply(ctx, userMessage)
}

func (c *conversationService) transcribe(ctx context.Context, recording []byte) (string, error) {
	dir := filepath.Join(c.settings.ScratchDir, "speech-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			c.logger.ErrorWithFields(err, "Failed to remove speech scratch directory", map[string]interface{}{
				"dir": dir,
			})
		}
	}()

	webmFile := filepath.Join(dir, "input.webm")
	mp3File := filepath.Join(dir, "input.mp3")
	if err := os.WriteFile(webmFile, recording, 0o644); err != nil {
		return "", err
	}
	if err := c.deps.Transcoder.ToMP3(ctx, webmFile, mp3File); err != nil {
		return "", err
	}

	return c.deps.Transcriber.Transcribe(ctx, mp3File)
}

// introduction serves the canned greeting, running it through the pipeline when
// the file carries no pre-rendered audio.
func (c *conversationService) introduction(ctx context.Context) []domain.Message {
	messages, err := c.deps.MessageReader.Read(c.settings.IntroMessagesFile)
	if err != nil || len(messages) == 0 {
		c.logger.WarnWithFields("Introduction messages unavailable, using built-in greeting", map[string]interface{}{
			"file": c.settings.IntroMessagesFile,
		})
		messages = domain.DefaultIntroduction()
	}

	for _, message := range messages {
		if message.Audio != "" && message.Lipsync != nil {
			continue
		}
		rendered := make([]domain.Message, len(messages))
		copy(rendered, messages)
		lipSynced, err := c.deps.Pipeline.ProduceLipSyncedMessages(ctx, rendered)
		if err != nil {
			c.logger.Error(err, "Failed to lip sync introduction, sending it without audio")
			return messages
		}
		return lipSynced
	}

	return messages
}

func decodeRecording(audioBase64 string) ([]byte, error) {
	payload := strings.TrimSpace(audioBase64)
	// Browsers send data URLs such as data:audio/webm;base64,....
	if strings.HasPrefix(payload, "data:") {
		if comma := strings.IndexByte(payload, ','); comma >= 0 {
			payload = payload[comma+1:]
		}
	}
	if payload == "" {
		return nil, fmt.Errorf("%w: no audio data provided", domain.ErrInvalidInput)
	}

	recording, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: audio is not valid base64: %v", domain.ErrInvalidInput, err)
	}
	if len(recording) == 0 {
		return nil, fmt.Errorf("%w: no audio data provided", domain.ErrInvalidInput)
	}

	return recording, nil
}
