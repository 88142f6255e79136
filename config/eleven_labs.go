package config

import (
	"fmt"
	"github.com/caarlos0/env/v11"
)

type ElevenLabsConfig struct {
	ApiUrl          string  `env:"ELEVEN_LABS_API_URL" envDefault:"https://api.elevenlabs.io/v1/text-to-speech"`
	VoicesUrl       string  `env:"ELEVEN_LABS_VOICES_URL" envDefault:"https://api.elevenlabs.io/v1/voices"`
	ApiKey          string  `env:"ELEVEN_LABS_API_KEY,required,notEmpty"`
	VoiceId         string  `env:"ELEVEN_LABS_VOICE_ID,required,notEmpty"`
	ModelId         string  `env:"ELEVEN_LABS_MODEL_ID" envDefault:"eleven_multilingual_v2"`
	Stability       float64 `env:"ELEVEN_LABS_STABILITY" envDefault:"0.5"`
	SimilarityBoost float64 `env:"ELEVEN_LABS_SIMILARITY_BOOST" envDefault:"0.5"`
	Style           float64 `env:"ELEVEN_LABS_STYLE" envDefault:"1"`
	SpeakerBoost    bool    `env:"ELEVEN_LABS_SPEAKER_BOOST" envDefault:"true"`
}

func GetElevenLabsConfig() (*ElevenLabsConfig, error) {
	cfg, err := env.ParseAs[ElevenLabsConfig]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse eleven labs config: %w", err)
	}
	if cfg.Stability < 0 || cfg.Stability > 1 {
		return nil, fmt.Errorf("ELEVEN_LABS_STABILITY must be between 0 and 1")
	}
	if cfg.SimilarityBoost < 0 || cfg.SimilarityBoost > 1 {
		return nil, fmt.Errorf("ELEVEN_LABS_SIMILARITY_BOOST must be between 0 and 1")
	}

	return &cfg, nil
}
