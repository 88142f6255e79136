package controllers

import (
	"errors"
	"github.com/dzhechko/pu-3d-avatar/application/ports/inbound"
	"github.com/dzhechko/pu-3d-avatar/application/ports/outbound"
	"github.com/dzhechko/pu-3d-avatar/domain"
	"github.com/dzhechko/pu-3d-avatar/infrastructure/gin_interface/dto"
	"github.com/gin-gonic/gin"
	"net/http"
)

type ConversationController interface {
	TextToSpeech(c *gin.Context)
	SpeechToSpeech(c *gin.Context)
	RegisterRoutes(g gin.IRoutes)
}

type conversationController struct {
	logger       outbound.LoggerPort
	conversation inbound.ConversationPort
}

func NewConversationController(
	logger outbound.LoggerPort,
	conversation inbound.ConversationPort,
) ConversationController {
	return &conversationController{
		logger:       logger,
		conversation: conversation,
	}
}

func (s *conversationController) TextToSpeech(c *gin.Context) {
	var request dto.TextToSpeechRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	messages, err := s.conversation.Reply(c.Request.Context(), request.Message)
	if err != nil {
		s.abortWithError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessagesResponse{Messages: messages})
}

func (s *conversationController) SpeechToSpeech(c *gin.Context) {
	var request dto.SpeechToSpeechRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Error: "audio is required"})
		return
	}

	messages, err := s.conversation.ReplyToSpeech(c.Request.Context(), request.Audio)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		s.abortWithError(c, status, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessagesResponse{Messages: messages})
}

func (s *conversationController) abortWithError(c *gin.Context, status int, err error) {
	s.logger.ErrorWithFields(err, "Request failed", map[string]interface{}{
		"path":   c.FullPath(),
		"status": status,
	})
	c.AbortWithStatusJSON(status, dto.ErrorResponse{Error: err.Error()})
}

func (s *conversationController) RegisterRoutes(g gin.IRoutes) {
	g.POST("/tts", s.TextToSpeech)
	g.POST("/sts", s.SpeechToSpeech)
}
