package dto

import "github.com/dzhechko/pu-3d-avatar/domain"

type TextToSpeechRequest struct {
	Message string `json:"message"`
}

type SpeechToSpeechRequest struct {
	Audio string `json:"audio" binding:"required"`
}

type MessagesResponse struct {
	Messages []domain.Message `json:"messages"`
}

type LipSyncStatusResponse struct {
	Status domain.CapabilityStatus `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
