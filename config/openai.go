package config

import (
	"fmt"
	"github.com/caarlos0/env/v11"
)

type OpenAIConfig struct {
	ChatUrl            string  `env:"OPENAI_CHAT_URL" envDefault:"https://api.openai.com/v1/chat/completions"`
	TranscriptionUrl   string  `env:"OPENAI_TRANSCRIPTION_URL" envDefault:"https://api.openai.com/v1/audio/transcriptions"`
	ApiKey             string  `env:"OPENAI_API_KEY"`
	Model              string  `env:"OPENAI_MODEL" envDefault:"gpt-3.5-turbo"`
	TranscriptionModel string  `env:"OPENAI_TRANSCRIPTION_MODEL" envDefault:"whisper-1"`
	Temperature        float64 `env:"OPENAI_TEMPERATURE" envDefault:"0.2"`
	MaxMessages        int     `env:"OPENAI_MAX_MESSAGES" envDefault:"3"`
	PersonaPrompt      string  `env:"OPENAI_PERSONA_PROMPT" envDefault:"You are Jack, a world traveler."`
}

func GetOpenAIConfig() (*OpenAIConfig, error) {
	cfg, err := env.ParseAs[OpenAIConfig]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse openai config: %w", err)
	}
	if cfg.MaxMessages < 1 {
		return nil, fmt.Errorf("OPENAI_MAX_MESSAGES must be at least 1")
	}

	return &cfg, nil
}

// Enabled reports whether an API key is configured.
func (c *OpenAIConfig) Enabled() bool {
	return c.ApiKey != "" && c.ApiKey != "-"
}
