package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"github.com/dustin/go-humanize"
	"github.com/dzhechko/pu-3d-avatar/application/ports/outbound"
	"github.com/dzhechko/pu-3d-avatar/config"
	"github.com/rs/zerolog/log"
	"net/http"
)

type ElevenLabsRequest struct {
	Text          string        `json:"text"`
	ModelId       string        `json:"model_id"`
	VoiceSettings VoiceSettings `json:"voice_settings"`
}

type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

type audioGenerator struct {
	ContentFetcher
	elevenLabsConfig *config.ElevenLabsConfig
}

func NewAudioGenerator(contentFetcher ContentFetcher, elevenLabsConfig *config.ElevenLabsConfig) outbound.AudioGeneratorPort {
	return &audioGenerator{
		ContentFetcher:   contentFetcher,
		elevenLabsConfig: elevenLabsConfig,
	}
}

func (a *audioGenerator) Generate(ctx context.Context, generateAudioRequest outbound.GenerateAudioRequest) ([]byte, error) {
	voiceID := generateAudioRequest.VoiceID
	if voiceID == "" {
		voiceID = a.elevenLabsConfig.VoiceId
	}

	req, err := a.getRequest(ctx, generateAudioRequest.Text, voiceID)
	if err != nil {
		log.Error().Err(err).Str("action", "Fetching Audio").Str("text", generateAudioRequest.Text).Msg("Failed to construct the HTTP request for audio fetching")
		return nil, err
	}

	audio, err := a.FetchContent(req)
	if err != nil {
		return nil, err
	}

	log.Debug().Str("voice", voiceID).Str("size", humanize.Bytes(uint64(len(audio)))).Msg("Synthesized speech")
	return audio, nil
}

func (a *audioGenerator) getRequest(ctx context.Context, text string, voiceID string) (*http.Request, error) {
	reqBody := ElevenLabsRequest{
		Text:    text,
		ModelId: a.elevenLabsConfig.ModelId,
		VoiceSettings: VoiceSettings{
			Stability:       a.elevenLabsConfig.Stability,
			SimilarityBoost: a.elevenLabsConfig.SimilarityBoost,
			Style:           a.elevenLabsConfig.Style,
			UseSpeakerBoost: a.elevenLabsConfig.SpeakerBoost,
		},
	}

	jsonPayload, err := json.Marshal(reqBody)
	if err != nil {
		log.Error().Err(err).Str("action", "Marshalling JSON").Interface("ElevenLabsRequest", reqBody).Msg("Failed to marshal the request body for ElevenLabs API")
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.elevenLabsConfig.ApiUrl+"/"+voiceID, bytes.NewBuffer(jsonPayload))
	if err != nil {
		log.Error().Err(err).Str("action", "Creating HTTP Request").Str("URL", a.elevenLabsConfig.ApiUrl+"/"+voiceID).Msg("Failed to create the HTTP POST request")
		return nil, err
	}

	reqHeaders := map[string]string{
		"Accept":       "audio/mpeg",
		"xi-api-key":   a.elevenLabsConfig.ApiKey,
		"Content-Type": "application/json",
	}
	for key, value := range reqHeaders {
		req.Header.Add(key, value)
	}

	return req, nil
}

type voiceCatalog struct {
	ContentFetcher
	elevenLabsConfig *config.ElevenLabsConfig
}

func NewVoiceCatalog(contentFetcher ContentFetcher, elevenLabsConfig *config.ElevenLabsConfig) outbound.VoiceCatalogPort {
	return &voiceCatalog{
		ContentFetcher:   contentFetcher,
		elevenLabsConfig: elevenLabsConfig,
	}
}

func (v *voiceCatalog) ListVoices(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.elevenLabsConfig.VoicesUrl, nil)
	if err != nil {
		log.Error().Err(err).Str("URL", v.elevenLabsConfig.VoicesUrl).Msg("Failed to create the voices request")
		return nil, err
	}
	req.Header.Set("xi-api-key", v.elevenLabsConfig.ApiKey)
	req.Header.Set("Accept", "application/json")

	return v.FetchContent(req)
}
