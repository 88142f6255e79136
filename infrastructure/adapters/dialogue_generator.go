package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/donovanhide/eventsource"
	"github.com/dzhechko/pu-3d-avatar/application/ports/outbound"
	"github.com/dzhechko/pu-3d-avatar/config"
	"github.com/dzhechko/pu-3d-avatar/domain"
	"io"
	"net/http"
	"strings"
)

const DoneSignal = "[DONE]"

const dialoguePromptTemplate = `%s
You will always respond with a JSON object of the form {"messages": [...]}, with a maximum of %d messages.
Each message has properties for text, facialExpression, and animation.
The different facial expressions are: smile, sad, angry, surprised, funnyFace, and default.
The different animations are: Idle, TalkingOne, TalkingThree, SadIdle, Defeated, Angry, Surprised, DismissingGesture and ThoughtfulHeadShake.`

type chatGptRequest struct {
	Stream      bool             `json:"stream"`
	Model       string           `json:"model"`
	Temperature float64          `json:"temperature"`
	Messages    []chatGptMessage `json:"messages"`
}

type chatGptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatGptChunkBody struct {
	Choices []chatGptResponseChoice `json:"choices"`
}

type chatGptResponseChoice struct {
	Index int `json:"index"`
	Delta struct {
		Content string `json:"content"`
	} `json:"delta"`
}

type dialogueResponse struct {
	Messages []domain.Message `json:"messages"`
}

type dialogueGenerator struct {
	logger       outbound.LoggerPort
	openAIConfig *config.OpenAIConfig
}

func NewDialogueGenerator(openAIConfig *config.OpenAIConfig, logger outbound.LoggerPort) outbound.DialogueGeneratorPort {
	return &dialogueGenerator{
		logger:       logger,
		openAIConfig: openAIConfig,
	}
}

func (d *dialogueGenerator) Generate(ctx context.Context, userMessage string) ([]domain.Message, error) {
	req, err := d.createRequest(ctx, userMessage)
	if err != nil {
		return nil, err
	}

	stream, err := eventsource.SubscribeWithRequest("", req)
	if err != nil {
		var subscriptionErr eventsource.SubscriptionError
		if errors.As(err, &subscriptionErr) {
			err = &domain.UpstreamError{StatusCode: subscriptionErr.Code, Message: subscriptionErr.Message}
		}
		d.logger.Error(err, "Failed to subscribe to dialogue stream")
		return nil, err
	}
	defer stream.Close()

	var builder strings.Builder
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case ev, ok := <-stream.Events:
			if !ok {
				return d.parseMessages(builder.String())
			}
			if ev.Data() == DoneSignal {
				return d.parseMessages(builder.String())
			}
			payload, err := d.extractPayload(ev)
			if err != nil {
				return nil, err
			}
			builder.WriteString(payload)
		case err := <-stream.Errors:
			if err == io.EOF {
				d.logger.Debug("Dialogue stream closed")
				return d.parseMessages(builder.String())
			}
			d.logger.Error(err, "Error occurred during dialogue streaming")
			return nil, err
		}
	}
}

func (d *dialogueGenerator) extractPayload(event eventsource.Event) (string, error) {
	var chunkBody chatGptChunkBody
	err := json.Unmarshal([]byte(event.Data()), &chunkBody)
	if err != nil {
		d.logger.Error(err, "Failed to unmarshal event data")
		return "", err
	}
	if len(chunkBody.Choices) == 0 {
		return "", nil
	}

	return chunkBody.Choices[0].Delta.Content, nil
}

// parseMessages tolerates code fences and prose around the JSON object.
func (d *dialogueGenerator) parseMessages(content string) ([]domain.Message, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("dialogue response contains no JSON object: %q", content)
	}

	var response dialogueResponse
	if err := json.Unmarshal([]byte(content[start:end+1]), &response); err != nil {
		d.logger.ErrorWithFields(err, "Failed to parse dialogue response", map[string]interface{}{
			"content": content,
		})
		return nil, err
	}

	messages := make([]domain.Message, 0, len(response.Messages))
	for _, message := range response.Messages {
		if strings.TrimSpace(message.Text) == "" {
			continue
		}
		messages = append(messages, domain.Message{
			Text:             message.Text,
			FacialExpression: message.FacialExpression.Normalize(),
			Animation:        message.Animation.Normalize(),
		})
		if len(messages) == d.openAIConfig.MaxMessages {
			break
		}
	}
	if len(messages) == 0 {
		return nil, errors.New("dialogue response contains no messages")
	}

	return messages, nil
}

func (d *dialogueGenerator) createRequest(ctx context.Context, userMessage string) (*http.Request, error) {
	promptReq := chatGptRequest{
		Stream:      true,
		Model:       d.openAIConfig.Model,
		Temperature: d.openAIConfig.Temperature,
		Messages: []chatGptMessage{
			{
				Role:    "system",
				Content: fmt.Sprintf(dialoguePromptTemplate, d.openAIConfig.PersonaPrompt, d.openAIConfig.MaxMessages),
			},
			{
				Role:    "user",
				Content: userMessage,
			},
		},
	}

	payloadBytes, err := json.Marshal(promptReq)
	if err != nil {
		d.logger.Error(err, "Failed to marshal the request body")
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.openAIConfig.ChatUrl, bytes.NewBuffer(payloadBytes))
	if err != nil {
		d.logger.Error(err, "Failed to create the HTTP request")
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+d.openAIConfig.ApiKey)
	req.Header.Set("Content-Type", "application/json")

	return req, nil
}
