package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"windowquote-backend/catalog"
	"windowquote-backend/models"
	"windowquote-backend/pricing"
	"windowquote-backend/repository"
	"windowquote-backend/validation"
	"windowquote-backend/vision"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var jpegBytes = append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, make([]byte, 16)...)

type mockVision struct {
	analysis *vision.Analysis
	err      error
	text     string
	textErr  error
}

func (m *mockVision) AnalyzeImage(_ context.Context, _ []byte, _ vision.Context) (*vision.Analysis, error) {
	return m.analysis, m.err
}
func (m *mockVision) GenerateText(_ context.Context, _ string) (string, error) {
	return m.text, m.textErr
}

type mockEmail struct {
	mu      sync.Mutex
	sent    []EmailRequest
	emailID string
	err     error
}

func (m *mockEmail) Send(_ context.Context, req EmailRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.sent = append(m.sent, req)
	return m.emailID, nil
}
func (m *mockEmail) SendSafe(ctx context.Context, req EmailRequest) { m.Send(ctx, req) }

func (m *mockEmail) templates() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.sent))
	for i, r := range m.sent {
		out[i] = r.Template
	}
	return out
}

type recorderStub struct {
	mu     sync.Mutex
	events []models.AnalyticsEvent
}

func (r *recorderStub) Record(event models.AnalyticsEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorderStub) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Event
	}
	return out
}

type fixture struct {
	svc      *QuoteService
	store    *repository.Store
	db       *gorm.DB
	vision   *mockVision
	email    *mockEmail
	recorder *recorderStub
}

func setupService(t *testing.T) *fixture {
	t.Helper()
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
		&models.FollowUpLog{},
	))

	log := zaptest.NewLogger(t)
	store := repository.New(db, log)
	cat := catalog.New(db, log)
	engine := pricing.NewEngine(cat)

	vis := &mockVision{
		analysis: &vision.Analysis{
			WindowType: "double-hung", Material: "vinyl", Condition: "fair",
			EstimatedWidth: 32, EstimatedHeight: 56, Confidence: 82,
			Recommendations: []string{"replace weatherstripping"},
		},
		text: "Your quote covers your windows.",
	}
	email := &mockEmail{emailID: "em_123"}
	recorder := &recorderStub{}

	return &fixture{
		svc:      NewQuoteService(cat, engine, store, vis, email, recorder, log),
		store:    store,
		db:       db,
		vision:   vis,
		email:    email,
		recorder: recorder,
	}
}

func TestAnalyzeImageHappyPath(t *testing.T) {
	f := setupService(t)

	result, err := f.svc.AnalyzeImage(context.Background(), AnalyzeRequest{
		Image: jpegBytes, Source: "widget", DeviceType: "mobile",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.SessionID)
	assert.False(t, result.Degraded)
	require.NotNil(t, result.Analysis)
	assert.Equal(t, 100.0, result.QualityScore)
	require.NotNil(t, result.AnalysisID)

	var count int64
	f.db.Model(&models.AnalysisResult{}).Count(&count)
	assert.Equal(t, int64(1), count)

	assert.Contains(t, f.recorder.names(), "window_analyzed")
}

func TestAnalyzeImageRequiresImage(t *testing.T) {
	f := setupService(t)

	_, err := f.svc.AnalyzeImage(context.Background(), AnalyzeRequest{})
	var vf *ValidationFailure
	assert.ErrorAs(t, err, &vf)
}

func TestAnalyzeImageInvalidImageIsValidationFailure(t *testing.T) {
	f := setupService(t)
	f.vision.analysis = nil
	f.vision.err = vision.ErrInvalidImage

	_, err := f.svc.AnalyzeImage(context.Background(), AnalyzeRequest{Image: jpegBytes})
	var vf *ValidationFailure
	assert.ErrorAs(t, err, &vf)
}

func TestAnalyzeImageDegradesOnVisionFailure(t *testing.T) {
	f := setupService(t)
	f.vision.analysis = nil
	f.vision.err = vision.ErrRateLimited

	result, err := f.svc.AnalyzeImage(context.Background(), AnalyzeRequest{Image: jpegBytes})
	require.NoError(t, err)
	assert.True(t, result.Degraded)
	assert.Nil(t, result.Analysis)
	assert.Nil(t, result.AnalysisID)

	var count int64
	f.db.Model(&models.AnalysisResult{}).Count(&count)
	assert.Equal(t, int64(0), count)

	assert.Contains(t, f.recorder.names(), "vision_rate_limited")
}

func TestAnalyzeImageSendsSummaryEmail(t *testing.T) {
	f := setupService(t)

	_, err := f.svc.AnalyzeImage(context.Background(), AnalyzeRequest{
		Image: jpegBytes, CustomerEmail: "j@example.com", CustomerName: "Jordan",
	})
	require.NoError(t, err)
	assert.Contains(t, f.email.templates(), TemplateAIAnalysis)
}

func TestCalculateQuoteWithoutCustomer(t *testing.T) {
	f := setupService(t)

	resp, err := f.svc.CalculateQuote(context.Background(), QuoteRequest{
		Windows: []pricing.Spec{
			{Width: 30, Height: 54, Quantity: 1, WindowType: "double-hung", Material: "vinyl"},
		},
	})
	require.NoError(t, err)

	assert.False(t, resp.Persisted)
	assert.Nil(t, resp.QuoteID)
	require.NotNil(t, resp.Quote)
	assert.Equal(t, 372.29, resp.Quote.GrandTotal)
	assert.Equal(t, 500.0, resp.Quote.FinalTotal)
	assert.True(t, resp.Quote.MinimumApplied)

	assert.Contains(t, f.recorder.names(), "quote_calculated")

	var count int64
	f.db.Model(&models.QuoteRecord{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestCalculateQuoteValidatesWindows(t *testing.T) {
	f := setupService(t)

	_, err := f.svc.CalculateQuote(context.Background(), QuoteRequest{})
	var vf *ValidationFailure
	assert.ErrorAs(t, err, &vf)

	_, err = f.svc.CalculateQuote(context.Background(), QuoteRequest{
		Windows: []pricing.Spec{
			{Width: 30, Height: 54, Quantity: 1, WindowType: "double-hung", Material: "vinyl"},
			{Width: 2, Height: 54, Quantity: 1},
		},
	})
	require.ErrorAs(t, err, &vf)
	assert.Contains(t, vf.Messages[0], "window 1")

	many := make([]pricing.Spec, validation.MaxQuoteWindows+1)
	for i := range many {
		many[i] = pricing.Spec{Width: 30, Height: 54, Quantity: 1}
	}
	_, err = f.svc.CalculateQuote(context.Background(), QuoteRequest{Windows: many})
	assert.ErrorAs(t, err, &vf)
}

func TestCalculateQuotePersistsCustomerAndQuote(t *testing.T) {
	f := setupService(t)

	resp, err := f.svc.CalculateQuote(context.Background(), QuoteRequest{
		Windows: []pricing.Spec{
			{Width: 30, Height: 54, Quantity: 1, WindowType: "double-hung", Material: "vinyl"},
		},
		Customer: &validation.CustomerPayload{
			Name: "Jordan Miles", Email: "jordan@example.com", Phone: "5551234567",
		},
		Source: "widget", DeviceType: "mobile", Mode: "mobile",
		SendEmail: true,
	})
	require.NoError(t, err)

	assert.True(t, resp.Persisted)
	require.NotNil(t, resp.QuoteID)
	require.NotNil(t, resp.CustomerID)
	assert.Equal(t, "em_123", resp.EmailID)
	// 500 final with mobile mode lands at medium priority
	assert.Equal(t, models.PriorityMedium, resp.LeadPriority)
	assert.Equal(t, 75, resp.Completeness)

	customer, err := f.store.GetCustomerByEmail("jordan@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.LeadStatusQuoted, customer.LeadStatus)
	assert.Equal(t, 1, customer.QuoteCount)
	assert.Equal(t, 500.0, customer.LastQuoteTotal)
	assert.NotNil(t, customer.FollowUpAt)

	quote, err := f.store.GetQuote(*resp.QuoteID)
	require.NoError(t, err)
	assert.Contains(t, quote.QuoteNumber, "WQ-")
	require.Len(t, quote.Lines, 1)
	assert.Equal(t, 42.0, quote.Lines[0].UniversalInches)

	assert.Contains(t, f.email.templates(), TemplateQuote)
}

func TestCalculateQuoteBadCustomerStillReturnsQuote(t *testing.T) {
	f := setupService(t)

	resp, err := f.svc.CalculateQuote(context.Background(), QuoteRequest{
		Windows: []pricing.Spec{
			{Width: 30, Height: 54, Quantity: 1, WindowType: "double-hung", Material: "vinyl"},
		},
		Customer: &validation.CustomerPayload{Name: "J", Email: "broken"},
	})
	require.NoError(t, err)
	assert.False(t, resp.Persisted)
	assert.NotNil(t, resp.Quote)
}

func TestCalculateQuoteHonorsConfigOverride(t *testing.T) {
	f := setupService(t)

	override := pricing.DefaultConfig()
	override.MinimumOrderValue = 100

	resp, err := f.svc.CalculateQuote(context.Background(), QuoteRequest{
		Windows: []pricing.Spec{
			{Width: 30, Height: 54, Quantity: 1, WindowType: "double-hung", Material: "vinyl"},
		},
		ConfigOverride: &override,
	})
	require.NoError(t, err)
	assert.False(t, resp.Quote.MinimumApplied)
	assert.Equal(t, 372.29, resp.Quote.FinalTotal)
}

func TestExplainQuoteInline(t *testing.T) {
	f := setupService(t)

	result, err := f.svc.ExplainQuote(context.Background(), ExplainRequest{
		Quote: &pricing.Quote{Subtotal: 283.58, TotalLabor: 69.3, TotalTax: 19.41, FinalTotal: 500},
	})
	require.NoError(t, err)
	assert.Equal(t, "Your quote covers your windows.", result.Explanation)
	assert.False(t, result.Patched)
	assert.Contains(t, f.recorder.names(), "explanation_generated")
}

func TestExplainQuotePatchesStoredRecord(t *testing.T) {
	f := setupService(t)

	record := &models.QuoteRecord{QuoteNumber: "WQ-20260828-EXPL02", Subtotal: 1, GrandTotal: 1, FinalTotal: 500}
	require.NoError(t, f.store.CreateQuote(record, nil))

	result, err := f.svc.ExplainQuote(context.Background(), ExplainRequest{QuoteID: &record.ID})
	require.NoError(t, err)
	assert.True(t, result.Patched)

	stored, err := f.store.GetQuote(record.ID)
	require.NoError(t, err)
	assert.True(t, stored.ExplanationGenerated)
	assert.NotEmpty(t, stored.QuoteExplanation)
}

func TestExplainQuoteRequiresQuote(t *testing.T) {
	f := setupService(t)
	_, err := f.svc.ExplainQuote(context.Background(), ExplainRequest{})
	var vf *ValidationFailure
	assert.ErrorAs(t, err, &vf)
}

func TestExplainQuoteVisionFailure(t *testing.T) {
	f := setupService(t)
	f.vision.textErr = errors.New("model offline")

	_, err := f.svc.ExplainQuote(context.Background(), ExplainRequest{
		Quote: &pricing.Quote{FinalTotal: 500},
	})
	assert.Error(t, err)
}

func TestCreateQuoteForCustomerPersists(t *testing.T) {
	f := setupService(t)

	customer := &models.Customer{Name: "Jordan", Email: "jordan@example.com", SessionID: "wq_1_aaaaaaaaa"}
	require.NoError(t, f.store.UpsertCustomer(customer))

	sub := validation.ValidateQuoteSubmission(validation.QuotePayload{
		CustomerID: customer.ID.String(),
		WindowData: []pricing.Spec{
			{Width: 30, Height: 54, Quantity: 1, WindowType: "double-hung", Material: "vinyl"},
		},
		ValidDays: 10,
	})
	require.True(t, sub.Valid)

	resp, err := f.svc.CreateQuoteForCustomer(context.Background(), sub.Sanitized)
	require.NoError(t, err)
	assert.True(t, resp.Persisted)
	require.NotNil(t, resp.QuoteID)
	assert.Equal(t, 500.0, resp.Quote.FinalTotal)

	stored, err := f.store.GetQuote(*resp.QuoteID)
	require.NoError(t, err)
	assert.Equal(t, "staff", stored.Source)
	require.Len(t, stored.Lines, 1)
	assert.Equal(t, 42.0, stored.Lines[0].UniversalInches)
	assert.WithinDuration(t, time.Now().UTC().AddDate(0, 0, 10), stored.ValidUntil, time.Minute)

	lead, err := f.store.GetCustomer(customer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LeadStatusQuoted, lead.LeadStatus)
	assert.Equal(t, 1, lead.QuoteCount)

	assert.Contains(t, f.recorder.names(), "quote_created")
}

func TestCreateQuoteForCustomerUnknownLead(t *testing.T) {
	f := setupService(t)

	windows := []pricing.Spec{
		{Width: 30, Height: 54, Quantity: 1, WindowType: "double-hung", Material: "vinyl"},
	}

	_, err := f.svc.CreateQuoteForCustomer(context.Background(), validation.QuoteSubmission{
		CustomerID: uuid.NewString(),
		Windows:    windows,
		ValidUntil: time.Now().UTC().AddDate(0, 0, 30),
	})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = f.svc.CreateQuoteForCustomer(context.Background(), validation.QuoteSubmission{
		CustomerID: "not-a-uuid",
		Windows:    windows,
	})
	var vf *ValidationFailure
	assert.ErrorAs(t, err, &vf)
}
