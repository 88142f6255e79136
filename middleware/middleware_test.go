package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKeyID = "test-key"

func newTestJWKS(t *testing.T, key *rsa.PrivateKey) *keyfunc.JWKS {
	t.Helper()
	document := map[string][]map[string]string{
		"keys": {{
			"kty": "RSA",
			"kid": testKeyID,
			"use": "sig",
			"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}},
	}
	raw, err := json.Marshal(document)
	require.NoError(t, err)

	jwks, err := keyfunc.NewJSON(raw)
	require.NoError(t, err)
	return jwks
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims CustomClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKeyID
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func newAuthRouter(t *testing.T, key *rsa.PrivateKey) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := &authHandler{jwks: newTestJWKS(t, key)}

	router := gin.New()
	router.Use(handler.AuthMiddleware())
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/voices", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user":   c.GetString(ContextUserIDKey),
			"scopes": c.GetStringSlice(ContextScopesKey),
		})
	})
	return router
}

func TestAuthMiddleware(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	router := newAuthRouter(t, key)

	valid := signToken(t, key, CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Scopes: "avatar.read avatar.write",
	})
	expired := signToken(t, key, CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	forged := signToken(t, otherKey, CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "intruder"},
	})

	tests := []struct {
		name       string
		path       string
		header     string
		wantStatus int
	}{
		{name: "public path", path: "/health", wantStatus: http.StatusOK},
		{name: "missing header", path: "/voices", wantStatus: http.StatusUnauthorized},
		{name: "valid token", path: "/voices", header: "Bearer " + valid, wantStatus: http.StatusOK},
		{name: "expired token", path: "/voices", header: "Bearer " + expired, wantStatus: http.StatusUnauthorized},
		{name: "wrong signer", path: "/voices", header: "Bearer " + forged, wantStatus: http.StatusUnauthorized},
		{name: "garbage", path: "/voices", header: "Bearer not-a-jwt", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.name == "valid token" {
				assert.JSONEq(t, `{"user": "user-1", "scopes": ["avatar.read", "avatar.write"]}`, rec.Body.String())
			}
		})
	}
}

func newCORSRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORSMiddleware([]string{"http://localhost:5173"}))
	router.POST("/tts", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func TestCORSMiddleware(t *testing.T) {
	router := newCORSRouter()

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/tts", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/tts", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
	})

	t.Run("foreign origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/tts", nil)
		req.Header.Set("Origin", "http://evil.test")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("foreign preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/tts", nil)
		req.Header.Set("Origin", "http://evil.test")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func requestCount(t *testing.T, route string, status int) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	for _, family := range families {
		if family.GetName() != "avatar_http_requests_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			labels := map[string]string{}
			for _, pair := range metric.GetLabel() {
				labels[pair.GetName()] = pair.GetValue()
			}
			if labels["route"] == route && labels["status"] == fmt.Sprint(status) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestMetricsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(MetricsMiddleware())
	router.GET("/lip-sync-status", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := requestCount(t, "/lip-sync-status", http.StatusOK)
	beforeUnmatched := requestCount(t, "unmatched", http.StatusNotFound)

	for range 3 {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/lip-sync-status", nil))
	}
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, before+3, requestCount(t, "/lip-sync-status", http.StatusOK))
	assert.Equal(t, beforeUnmatched+1, requestCount(t, "unmatched", http.StatusNotFound))
}
