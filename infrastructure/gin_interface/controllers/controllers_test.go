package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dzhechko/pu-3d-avatar/application/ports/outbound"
	"github.com/dzhechko/pu-3d-avatar/domain"
	"github.com/dzhechko/pu-3d-avatar/infrastructure/adapters"
	"github.com/dzhechko/pu-3d-avatar/infrastructure/gin_interface/dto"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() outbound.LoggerPort {
	return adapters.NewZerologWrapperWithWriter(io.Discard, zerolog.Disabled)
}

type stubConversation struct {
	replies      []domain.Message
	err          error
	lastMessage  string
	lastRecorded string
}

func (s *stubConversation) Reply(_ context.Context, userMessage string) ([]domain.Message, error) {
	s.lastMessage = userMessage
	return s.replies, s.err
}

func (s *stubConversation) ReplyToSpeech(_ context.Context, audioBase64 string) ([]domain.Message, error) {
	s.lastRecorded = audioBase64
	return s.replies, s.err
}

type stubProber struct {
	status      domain.CapabilityStatus
	invalidated int
}

func (s *stubProber) Probe(context.Context) domain.CapabilityStatus { return s.status }
func (s *stubProber) Invalidate() { s.invalidated++ }

type stubVoiceCatalog struct {
	payload []byte
	err     error
}

func (s *stubVoiceCatalog) ListVoices(context.Context) ([]byte, error) {
	return s.payload, s.err
}

func newConversationRouter(conversation *stubConversation) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewConversationController(newTestLogger(), conversation).RegisterRoutes(router)
	return router
}

func newLipSyncRouter(prober *stubProber, catalog *stubVoiceCatalog) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewLipSyncController(newTestLogger(), prober, catalog).RegisterRoutes(router)
	return router
}

func serve(router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestConversationController_TextToSpeech(t *testing.T) {
	track := domain.MouthCueTrack{
		Metadata:  domain.TrackMetadata{Duration: 0.5},
		MouthCues: []domain.MouthCue{{Start: 0, End: 0.5, Value: domain.ShapeRest}},
	}
	conversation := &stubConversation{replies: []domain.Message{{
		Text:             "Hello there",
		FacialExpression: domain.SmileExpression,
		Animation:        domain.TalkingOneAnimation,
		Audio:            "ZmFrZQ==",
		Lipsync:          &track,
	}}}
	router := newConversationRouter(conversation)

	rec := serve(router, http.MethodPost, "/tts", `{"message": "Hi Jack"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hi Jack", conversation.lastMessage)

	var response dto.MessagesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response.Messages, 1)
	assert.Equal(t, "ZmFrZQ==", response.Messages[0].Audio)
	require.NotNil(t, response.Messages[0].Lipsync)
	assert.Equal(t, domain.ShapeRest, response.Messages[0].Lipsync.MouthCues[0].Value)
}

func TestConversationController_TextToSpeechEmptyMessage(t *testing.T) {
	conversation := &stubConversation{replies: []domain.Message{{Text: "intro"}}}
	router := newConversationRouter(conversation)

	rec := serve(router, http.MethodPost, "/tts", `{}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", conversation.lastMessage)
}

func TestConversationController_TextToSpeechMalformedBody(t *testing.T) {
	router := newConversationRouter(&stubConversation{})

	rec := serve(router, http.MethodPost, "/tts", `{"message":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConversationController_TextToSpeechFailure(t *testing.T) {
	router := newConversationRouter(&stubConversation{err: context.Canceled})

	rec := serve(router, http.MethodPost, "/tts", `{"message": "Hi"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestConversationController_SpeechToSpeech(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{name: "ok", body: `{"audio": "d2VibQ=="}`, wantStatus: http.StatusOK},
		{name: "missing audio", body: `{}`, wantStatus: http.StatusBadRequest},
		{name: "invalid audio", body: `{"audio": "%%%"}`, err: fmt.Errorf("decode: %w", domain.ErrInvalidInput), wantStatus: http.StatusBadRequest},
		{name: "internal failure", body: `{"audio": "d2VibQ=="}`, err: errors.New("disk full"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conversation := &stubConversation{replies: []domain.Message{{Text: "heard you"}}, err: tt.err}
			router := newConversationRouter(conversation)

			rec := serve(router, http.MethodPost, "/sts", tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "d2VibQ==", conversation.lastRecorded)
			}
		})
	}
}

func TestLipSyncController_Status(t *testing.T) {
	prober := &stubProber{status: domain.CapabilityBasic}
	router := newLipSyncRouter(prober, &stubVoiceCatalog{})

	rec := serve(router, http.MethodGet, "/lip-sync-status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "basic"}`, rec.Body.String())
	assert.Equal(t, 0, prober.invalidated)

	prober.status = domain.CapabilityFull
	rec = serve(router, http.MethodGet, "/lip-sync-status?recheck=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "full"}`, rec.Body.String())
	assert.Equal(t, 1, prober.invalidated)
}

func TestLipSyncController_Voices(t *testing.T) {
	router := newLipSyncRouter(&stubProber{}, &stubVoiceCatalog{payload: []byte(`{"voices":[{"voice_id":"abc"}]}`)})

	rec := serve(router, http.MethodGet, "/voices", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"voices":[{"voice_id":"abc"}]}`, rec.Body.String())
}

func TestLipSyncController_VoicesUpstreamFailure(t *testing.T) {
	catalog := &stubVoiceCatalog{err: &domain.UpstreamError{StatusCode: http.StatusUnauthorized, Message: "bad key"}}
	router := newLipSyncRouter(&stubProber{}, catalog)

	rec := serve(router, http.MethodGet, "/voices", "")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
