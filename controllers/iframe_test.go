package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"windowquote-backend/catalog"
	"windowquote-backend/config"
	"windowquote-backend/gateway"
	"windowquote-backend/models"
	"windowquote-backend/pricing"
	"windowquote-backend/repository"
	"windowquote-backend/services"
	"windowquote-backend/utils"
	"windowquote-backend/vision"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type visionStub struct{}

func (visionStub) AnalyzeImage(_ context.Context, _ []byte, _ vision.Context) (*vision.Analysis, error) {
	return &vision.Analysis{WindowType: "double-hung", Material: "vinyl", Confidence: 80}, nil
}
func (visionStub) GenerateText(_ context.Context, _ string) (string, error) {
	return "Your quote covers your windows.", nil
}

type emailStub struct{}

func (emailStub) Send(_ context.Context, _ services.EmailRequest) (string, error) {
	return "em_123", nil
}
func (emailStub) SendSafe(_ context.Context, _ services.EmailRequest) {}

type eventStub struct{}

func (eventStub) Record(_ models.AnalyticsEvent) {}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Customer{},
		&models.QuoteRecord{},
		&models.QuoteLineRecord{},
		&models.Material{},
		&models.WindowType{},
		&models.WindowBrand{},
		&models.WindowOption{},
		&models.PricingConfigRow{},
		&models.AnalysisResult{},
		&models.AnalyticsEvent{},
	))

	log := zaptest.NewLogger(t)
	store := repository.New(db, log)
	cat := catalog.New(db, log)
	engine := pricing.NewEngine(cat)

	svc := services.NewQuoteService(cat, engine, store, visionStub{}, emailStub{}, eventStub{}, log)
	policy := gateway.NewOriginPolicy(
		[]string{"http://localhost:3000"},
		[]string{".wixsite.com"},
	)
	gw := gateway.New(policy, svc, cat, eventStub{}, log)

	Init(&config.Config{Env: "test"}, cat, store, svc, gw, log)

	r := gin.New()
	r.POST("/iframe-message", IframeMessage)
	return r
}

func postIframe(t *testing.T, r *gin.Engine, origin string, body any) (*httptest.ResponseRecorder, utils.Envelope) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/iframe-message", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env utils.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func TestIframeMessageRejectsUnknownOrigin(t *testing.T) {
	r := setupRouter(t)

	w, env := postIframe(t, r, "https://evil.example", map[string]any{
		"source": "widget", "action": "load_initial_data",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Origin not allowed", env.Error)
}

func TestIframeMessageDispatchesAllowedOrigin(t *testing.T) {
	r := setupRouter(t)

	w, env := postIframe(t, r, "http://localhost:3000", map[string]any{
		"source": "widget", "action": "load_initial_data",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "iframe:load_initial_data", env.Endpoint)
}
