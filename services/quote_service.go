// services/quote_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"windowquote-backend/catalog"
	"windowquote-backend/models"
	"windowquote-backend/pricing"
	"windowquote-backend/repository"
	"windowquote-backend/utils"
	"windowquote-backend/validation"
	"windowquote-backend/vision"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// VisionAnalyzer is the slice of the vision client the orchestrator needs.
type VisionAnalyzer interface {
	AnalyzeImage(ctx context.Context, image []byte, vc vision.Context) (*vision.Analysis, error)
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// QuoteService is the session-scoped pipeline coordinator. It is stateless
// per request; all context is passed in and written out.
type QuoteService struct {
	catalog   *catalog.Catalog
	engine    *pricing.Engine
	store     *repository.Store
	vision    VisionAnalyzer
	email     EmailSender
	analytics EventRecorder
	log       *zap.Logger
}

func NewQuoteService(cat *catalog.Catalog, engine *pricing.Engine, store *repository.Store,
	vis VisionAnalyzer, email EmailSender, analytics EventRecorder, log *zap.Logger) *QuoteService {
	return &QuoteService{
		catalog:   cat,
		engine:    engine,
		store:     store,
		vision:    vis,
		email:     email,
		analytics: analytics,
		log:       log,
	}
}

// ValidationFailure carries the messages from a rejected payload.
type ValidationFailure struct {
	Messages []string
}

func (e *ValidationFailure) Error() string {
	return fmt.Sprintf("validation failed: %v", e.Messages)
}

// ---- Pipeline A: analyze-image ----

// AnalyzeRequest is one image analysis call.
type AnalyzeRequest struct {
	SessionID     string
	Image         []byte
	Source        string
	DeviceType    string
	CustomerEmail string
	CustomerName  string
}

// AnalyzeResult is what Pipeline A returns. When the vision call fails the
// result is degraded: no analysis, no persisted row, success otherwise.
type AnalyzeResult struct {
	SessionID    string           `json:"sessionId"`
	Analysis     *vision.Analysis `json:"analysis"`
	QualityScore float64          `json:"qualityScore"`
	Degraded     bool             `json:"degraded"`
	AnalysisID   *uuid.UUID       `json:"analysisId,omitempty"`
}

// AnalyzeImage runs session -> vision -> persist -> analytics -> optional
// summary email. Vision failures degrade the result; analytics and email
// never fail the pipeline.
func (s *QuoteService) AnalyzeImage(ctx context.Context, req AnalyzeRequest) (*AnalyzeResult, error) {
	sessionID := utils.EnsureSessionID(req.SessionID)
	result := &AnalyzeResult{SessionID: sessionID}

	if len(req.Image) == 0 {
		return nil, &ValidationFailure{Messages: []string{"image data is required"}}
	}

	analysis, err := s.vision.AnalyzeImage(ctx, req.Image, vision.Context{
		SessionID:  sessionID,
		Source:     req.Source,
		DeviceType: req.DeviceType,
	})
	if err != nil {
		if errors.Is(err, vision.ErrInvalidImage) {
			return nil, &ValidationFailure{Messages: []string{err.Error()}}
		}
		// vision trouble is non-fatal: return a degraded result
		result.Degraded = true
		s.recordEvent(visionFailureEvent(err), sessionID, req.Source, req.DeviceType, map[string]any{
			"error": err.Error(),
		})
		s.log.Warn("vision analysis degraded",
			zap.String("sessionId", sessionID), zap.Error(err))
		return result, nil
	}

	result.Analysis = analysis
	result.QualityScore = vision.QualityScore(analysis)

	record := &models.AnalysisResult{
		SessionID:       sessionID,
		ImageDigest:     vision.Digest(req.Image),
		DetectedType:    analysis.WindowType,
		Material:        analysis.Material,
		Condition:       analysis.Condition,
		EstimatedWidth:  analysis.EstimatedWidth,
		EstimatedHeight: analysis.EstimatedHeight,
		Confidence:      analysis.Confidence,
		Recommendations: mustJSON(analysis.Recommendations),
		QualityScore:    result.QualityScore,
		Source:          req.Source,
		DeviceType:      req.DeviceType,
		AnalyzedAt:      time.Now().UTC(),
	}
	if err := s.store.CreateAnalysis(record); err != nil {
		s.log.Warn("analysis persist failed", zap.String("sessionId", sessionID), zap.Error(err))
	} else {
		result.AnalysisID = &record.ID
	}

	s.recordEvent("window_analyzed", sessionID, req.Source, req.DeviceType, map[string]any{
		"qualityScore": result.QualityScore,
		"windowType":   analysis.WindowType,
	})

	if req.CustomerEmail != "" {
		s.email.SendSafe(ctx, EmailRequest{
			Template:      TemplateAIAnalysis,
			CustomerEmail: req.CustomerEmail,
			CustomerName:  req.CustomerName,
			Payload: map[string]any{
				"sessionId":    sessionID,
				"windowType":   analysis.WindowType,
				"material":     analysis.Material,
				"condition":    analysis.Condition,
				"qualityScore": result.QualityScore,
			},
		})
	}

	return result, nil
}

func visionFailureEvent(err error) string {
	switch {
	case errors.Is(err, vision.ErrRateLimited):
		return "vision_rate_limited"
	case errors.Is(err, vision.ErrMalformedResponse):
		return "vision_malformed"
	default:
		return "vision_timeout"
	}
}

// ---- Pipeline B: calculate-quote ----

// QuoteRequest is one quote computation, optionally with customer capture.
type QuoteRequest struct {
	SessionID      string
	Windows        []pricing.Spec
	ConfigOverride *pricing.Config
	Customer       *validation.CustomerPayload
	Source         string
	DeviceType     string
	Mode           string
	HasAIAnalysis  bool
	Engaged        bool
	SendEmail      bool
}

// QuoteResponse is Pipeline B's outcome. Persistence failures are reported
// through the flags; the priced quote is always present on success.
type QuoteResponse struct {
	SessionID    string         `json:"sessionId"`
	Quote        *pricing.Quote `json:"quote"`
	QuoteID      *uuid.UUID     `json:"quoteId,omitempty"`
	CustomerID   *uuid.UUID     `json:"customerId,omitempty"`
	LeadPriority string         `json:"leadPriority,omitempty"`
	Completeness int            `json:"customerCompleteness,omitempty"`
	EmailID      string         `json:"emailId,omitempty"`
	Persisted    bool           `json:"persisted"`
}

// CalculateQuote validates every window, prices them under the catalog (or
// caller-supplied) configuration, and when customer info is present
// persists customer and quote and optionally emails it. Store failures are
// logged; the priced quote is returned regardless.
func (s *QuoteService) CalculateQuote(ctx context.Context, req QuoteRequest) (*QuoteResponse, error) {
	sessionID := utils.EnsureSessionID(req.SessionID)

	specs, failures := validation.ValidateQuoteWindows(req.Windows)
	if len(failures) > 0 {
		return nil, &ValidationFailure{Messages: failures}
	}

	cfg := s.catalog.PricingConfig()
	if req.ConfigOverride != nil {
		cfg = *req.ConfigOverride
	}

	quote, err := s.engine.CalculateQuote(specs, cfg)
	if err != nil {
		return nil, err
	}

	resp := &QuoteResponse{SessionID: sessionID, Quote: quote}

	if req.Customer != nil {
		s.persistQuote(ctx, req, sessionID, specs, quote, resp)
	}

	s.recordEvent("quote_calculated", sessionID, req.Source, req.DeviceType, map[string]any{
		"windows":        len(specs),
		"finalTotal":     quote.FinalTotal,
		"minimumApplied": quote.MinimumApplied,
	})

	return resp, nil
}

// persistQuote writes customer then quote then email, strictly in that
// order. Each failure is logged and the remaining steps continue where
// that is safe; nothing here fails the response.
func (s *QuoteService) persistQuote(ctx context.Context, req QuoteRequest, sessionID string,
	specs []pricing.Spec, quote *pricing.Quote, resp *QuoteResponse) {

	customerRes := validation.ValidateCustomer(*req.Customer)
	if !customerRes.Valid {
		s.log.Warn("customer payload rejected, quote not persisted",
			zap.String("sessionId", sessionID), zap.Strings("errors", customerRes.Errors))
		return
	}
	sanitized := customerRes.Sanitized

	now := time.Now().UTC()
	priority := DerivePriority(quote.FinalTotal, req.Mode, req.HasAIAnalysis)
	followUp := FollowUpTime(now, priority, req.Engaged)
	tags := BuildTags(req.Source, req.DeviceType, req.Mode, req.HasAIAnalysis, quote.FinalTotal, specs)

	customer := &models.Customer{
		Name:           sanitized.Name,
		Email:          sanitized.Email,
		Phone:          sanitized.Phone,
		Address:        sanitized.Address,
		Notes:          sanitized.Notes,
		LeadStatus:     models.LeadStatusQuoted,
		LeadPriority:   priority,
		FollowUpAt:     &followUp,
		Tags:           mustJSON(tags),
		Source:         req.Source,
		DeviceType:     req.DeviceType,
		SessionID:      sessionID,
		LastQuoteTotal: quote.FinalTotal,
		HasAIAnalysis:  req.HasAIAnalysis,
	}

	if err := s.store.UpsertCustomer(customer); err != nil {
		s.log.Warn("customer persist failed", zap.String("sessionId", sessionID), zap.Error(err))
		return
	}
	resp.CustomerID = &customer.ID
	resp.LeadPriority = priority
	resp.Completeness = Completeness(sanitized.Name, sanitized.Email, sanitized.Phone, sanitized.Address)

	record := &models.QuoteRecord{
		CustomerID:           &customer.ID,
		SessionID:            sessionID,
		QuoteNumber:          "WQ-" + now.Format("20060102") + "-" + utils.GenerateRandomString(6),
		QuoteDate:            now,
		ValidUntil:           now.AddDate(0, 0, validation.DefaultValidDays),
		Subtotal:             quote.Subtotal,
		TotalLabor:           quote.TotalLabor,
		TotalTax:             quote.TotalTax,
		GrandTotal:           quote.GrandTotal,
		FinalTotal:           quote.FinalTotal,
		MinimumApplied:       quote.MinimumApplied,
		PricingDetails:       mustJSON(quote.Config),
		WindowSpecifications: mustJSON(specs),
		Source:               req.Source,
		DeviceType:           req.DeviceType,
	}
	if err := s.store.CreateQuote(record, quoteLines(quote)); err != nil {
		s.log.Warn("quote persist failed", zap.String("sessionId", sessionID), zap.Error(err))
		return
	}
	resp.QuoteID = &record.ID
	resp.Persisted = true

	if req.SendEmail {
		emailID, err := s.email.Send(ctx, EmailRequest{
			Template:      TemplateQuote,
			CustomerEmail: sanitized.Email,
			CustomerName:  sanitized.Name,
			Payload: map[string]any{
				"quoteNumber": record.QuoteNumber,
				"finalTotal":  quote.FinalTotal,
				"validUntil":  record.ValidUntil.Format(time.RFC3339),
				"windows":     len(specs),
			},
		})
		if err != nil {
			s.log.Warn("quote email failed", zap.String("sessionId", sessionID), zap.Error(err))
		} else {
			resp.EmailID = emailID
		}
	}
}

// CreateQuoteForCustomer prices a validated submission against the live
// configuration and persists it for an existing lead. Unlike the widget
// path, persistence failures fail the call; a staff member expects the
// record to exist.
func (s *QuoteService) CreateQuoteForCustomer(ctx context.Context, sub validation.QuoteSubmission) (*QuoteResponse, error) {
	id, err := uuid.Parse(sub.CustomerID)
	if err != nil {
		return nil, &ValidationFailure{Messages: []string{"customerId must be a valid id"}}
	}
	customer, err := s.store.GetCustomer(id)
	if err != nil {
		return nil, err
	}

	quote, err := s.engine.CalculateQuote(sub.Windows, s.catalog.PricingConfig())
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	record := &models.QuoteRecord{
		CustomerID:           &customer.ID,
		SessionID:            customer.SessionID,
		QuoteNumber:          "WQ-" + now.Format("20060102") + "-" + utils.GenerateRandomString(6),
		QuoteDate:            now,
		ValidUntil:           sub.ValidUntil,
		Subtotal:             quote.Subtotal,
		TotalLabor:           quote.TotalLabor,
		TotalTax:             quote.TotalTax,
		GrandTotal:           quote.GrandTotal,
		FinalTotal:           quote.FinalTotal,
		MinimumApplied:       quote.MinimumApplied,
		PricingDetails:       mustJSON(quote.Config),
		WindowSpecifications: mustJSON(sub.Windows),
		Source:               "staff",
	}
	if err := s.store.CreateQuote(record, quoteLines(quote)); err != nil {
		return nil, err
	}

	resp := &QuoteResponse{
		SessionID:  customer.SessionID,
		Quote:      quote,
		QuoteID:    &record.ID,
		CustomerID: &customer.ID,
		Persisted:  true,
	}
	s.recordEvent("quote_created", customer.SessionID, "staff", "", map[string]any{
		"windows":    len(sub.Windows),
		"finalTotal": quote.FinalTotal,
	})
	return resp, nil
}

// quoteLines flattens a priced quote into line rows for persistence.
func quoteLines(quote *pricing.Quote) []models.QuoteLineRecord {
	lines := make([]models.QuoteLineRecord, 0, len(quote.Lines))
	for _, l := range quote.Lines {
		lines = append(lines, models.QuoteLineRecord{
			Width:              l.Spec.Width,
			Height:             l.Spec.Height,
			Quantity:           l.Spec.Quantity,
			WindowType:         l.Spec.WindowType,
			Material:           l.Spec.Material,
			Brand:              l.Spec.Brand,
			Options:            mustJSON(l.Spec.Options),
			UniversalInches:    l.UniversalInches,
			MaterialMultiplier: l.Multipliers.Material,
			TypeMultiplier:     l.Multipliers.Type,
			BrandMultiplier:    l.Multipliers.Brand,
			UnitPrice:          l.UnitPrice,
			Subtotal:           l.Subtotal,
			LaborCost:          l.LaborCost,
			OptionsCost:        l.OptionsCost,
			TaxAmount:          l.TaxAmount,
			TotalPrice:         l.TotalPrice,
		})
	}
	return lines
}

// ---- Pipeline C: quote-explanation ----

// ExplainRequest asks for a customer-facing paragraph about a quote.
type ExplainRequest struct {
	SessionID string
	QuoteID   *uuid.UUID
	Quote     *pricing.Quote
}

// ExplainResult carries the generated explanation.
type ExplainResult struct {
	SessionID   string `json:"sessionId"`
	Explanation string `json:"explanation"`
	Patched     bool   `json:"patched"`
}

// ExplainQuote generates an explanation for a completed quote and, when a
// record id is present, patches it onto the stored record.
func (s *QuoteService) ExplainQuote(ctx context.Context, req ExplainRequest) (*ExplainResult, error) {
	sessionID := utils.EnsureSessionID(req.SessionID)

	quote := req.Quote
	if quote == nil && req.QuoteID != nil {
		record, err := s.store.GetQuote(*req.QuoteID)
		if err != nil {
			return nil, err
		}
		quote = quoteFromRecord(record)
	}
	if quote == nil {
		return nil, &ValidationFailure{Messages: []string{"a completed quote is required"}}
	}

	prompt := explanationPrompt(quote)
	text, err := s.vision.GenerateText(ctx, prompt)
	if err != nil {
		return nil, err
	}

	result := &ExplainResult{SessionID: sessionID, Explanation: text}
	if req.QuoteID != nil {
		if err := s.store.AttachExplanation(*req.QuoteID, text); err != nil {
			s.log.Warn("explanation patch failed",
				zap.String("quoteId", req.QuoteID.String()), zap.Error(err))
		} else {
			result.Patched = true
		}
	}

	s.recordEvent("explanation_generated", sessionID, "", "", map[string]any{
		"patched": result.Patched,
	})
	return result, nil
}

func explanationPrompt(q *pricing.Quote) string {
	return fmt.Sprintf(
		"Write one short, friendly paragraph for a homeowner explaining this window replacement quote. "+
			"Windows: %d. Materials subtotal: $%.2f. Labor: $%.2f. Tax: $%.2f. Total: $%.2f. "+
			"Do not mention internal markups. Mention the estimated annual energy savings of $%.2f.",
		len(q.Lines), q.Subtotal, q.TotalLabor, q.TotalTax, q.FinalTotal, q.EnergySavings.AnnualSavings)
}

func quoteFromRecord(r *models.QuoteRecord) *pricing.Quote {
	q := &pricing.Quote{
		Subtotal:    r.Subtotal,
		TotalLabor:  r.TotalLabor,
		TotalTax:    r.TotalTax,
		GrandTotal:  r.GrandTotal,
		FinalTotal:  r.FinalTotal,
		GeneratedAt: r.QuoteDate,
	}
	q.Lines = make([]pricing.Line, len(r.Lines))
	for i, l := range r.Lines {
		q.Lines[i] = pricing.Line{
			UniversalInches: l.UniversalInches,
			UnitPrice:       l.UnitPrice,
			Subtotal:        l.Subtotal,
			LaborCost:       l.LaborCost,
			OptionsCost:     l.OptionsCost,
			TaxAmount:       l.TaxAmount,
			TotalPrice:      l.TotalPrice,
		}
	}
	return q
}

// ---- shared helpers ----

func (s *QuoteService) recordEvent(event, sessionID, source, device string, payload map[string]any) {
	s.analytics.Record(models.AnalyticsEvent{
		Event:      event,
		SessionID:  sessionID,
		Source:     source,
		DeviceType: device,
		Payload:    mustJSON(payload),
		OccurredAt: time.Now().UTC(),
	})
}

// mustJSON marshals a value for a JSON column. Marshal failures yield null;
// none of the inputs here can actually fail.
func mustJSON(v any) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON([]byte("null"))
	}
	return datatypes.JSON(b)
}
