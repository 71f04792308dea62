// Package gateway is the single entry point for the embedded browser
// widget: it validates cross-origin messages, translates the enumerated
// action vocabulary into orchestrator calls, and returns a uniform
// envelope. It is the security boundary; untrusted callers reach the
// engines only through here.
package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"windowquote-backend/catalog"
	"windowquote-backend/models"
	"windowquote-backend/pricing"
	"windowquote-backend/services"
	"windowquote-backend/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// The closed iframe action vocabulary. Anything else is acknowledged but
// never dispatched.
const (
	ActionAnalyzeWindow      = "analyze_window"
	ActionCalculateQuote     = "calculate_quote"
	ActionCalculatePrice     = "calculate_price"
	ActionQuoteExplanation   = "generate_quote_explanation"
	ActionEmailQuote         = "email_quote"
	ActionSaveCustomer       = "save_customer"
	ActionLoadInitialData    = "load_initial_data"
	ActionUserEngagement     = "user_engagement"
	ActionError              = "error"
)

// Message is the inbound iframe envelope.
type Message struct {
	Source    string          `json:"source"`
	Action    string          `json:"action"`
	Data      json.RawMessage `json:"data"`
	SessionID string          `json:"sessionId,omitempty"`
	Mode      string          `json:"mode,omitempty"`
}

// Response is the uniform outcome envelope for every gateway call.
type Response struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	Endpoint  string `json:"endpoint"`
	Timestamp string `json:"timestamp"`
}

// Fixed success messages by action.
var successMessages = map[string]string{
	ActionAnalyzeWindow:    "Window analysis completed",
	ActionCalculateQuote:   "Quote calculated",
	ActionCalculatePrice:   "Price calculated",
	ActionQuoteExplanation: "Quote explanation generated",
	ActionEmailQuote:       "Quote email sent",
	ActionSaveCustomer:     "Customer saved",
	ActionLoadInitialData:  "Initial data loaded",
	ActionUserEngagement:   "Engagement recorded",
	ActionError:            "Error recorded",
}

type handlerFunc func(ctx context.Context, msg Message) (any, error)

// Gateway validates and dispatches iframe messages.
type Gateway struct {
	policy    *OriginPolicy
	svc       *services.QuoteService
	catalog   *catalog.Catalog
	analytics services.EventRecorder
	log       *zap.Logger
	handlers  map[string]handlerFunc
}

func New(policy *OriginPolicy, svc *services.QuoteService, cat *catalog.Catalog,
	analytics services.EventRecorder, log *zap.Logger) *Gateway {
	g := &Gateway{
		policy:    policy,
		svc:       svc,
		catalog:   cat,
		analytics: analytics,
		log:       log,
	}
	// the explicit action table: unknowns are rejected at the boundary,
	// never delegated to a catch-all
	g.handlers = map[string]handlerFunc{
		ActionAnalyzeWindow:    g.handleAnalyzeWindow,
		ActionCalculateQuote:   g.handleCalculateQuote,
		ActionCalculatePrice:   g.handleCalculatePrice,
		ActionQuoteExplanation: g.handleExplanation,
		ActionEmailQuote:       g.handleEmailQuote,
		ActionSaveCustomer:     g.handleSaveCustomer,
		ActionLoadInitialData:  g.handleLoadInitialData,
		ActionUserEngagement:   g.handleEngagement,
		ActionError:            g.handleClientError,
	}
	return g
}

func envelope(endpoint string) Response {
	return Response{Endpoint: endpoint, Timestamp: time.Now().UTC().Format(time.RFC3339)}
}

// CheckOrigin applies the allow-list. A rejection is reported before any
// downstream component is invoked.
func (g *Gateway) CheckOrigin(origin string) bool {
	if g.policy.Allowed(origin) {
		return true
	}
	g.analytics.Record(models.AnalyticsEvent{
		Event:      "origin_rejected",
		OccurredAt: time.Now().UTC(),
		Payload:    jsonPayload(map[string]any{"origin": origin}),
	})
	return false
}

// Handle validates the message envelope and dispatches the action.
func (g *Gateway) Handle(ctx context.Context, msg Message) Response {
	endpoint := "iframe:" + msg.Action
	resp := envelope(endpoint)

	if strings.TrimSpace(msg.Source) == "" || strings.TrimSpace(msg.Action) == "" {
		resp.Error = "MissingField: source and action are required"
		return resp
	}

	handler, known := g.handlers[msg.Action]
	if !known {
		// acknowledged, not dispatched
		resp.Success = true
		resp.Data = map[string]any{
			"processed": false,
			"reason":    "unknown action: " + msg.Action,
		}
		return resp
	}

	data, err := handler(ctx, msg)
	if err != nil {
		var vf *services.ValidationFailure
		if errors.As(err, &vf) {
			resp.Error = "ValidationError: " + strings.Join(vf.Messages, "; ")
			return resp
		}
		g.log.Warn("iframe action failed", zap.String("action", msg.Action), zap.Error(err))
		resp.Error = err.Error()
		return resp
	}

	resp.Success = true
	resp.Data = data
	resp.Message = successMessages[msg.Action]
	return resp
}

// ---- action handlers ----

type analyzePayload struct {
	Image         string `json:"image"` // base64
	Source        string `json:"source,omitempty"`
	DeviceType    string `json:"deviceType,omitempty"`
	CustomerEmail string `json:"customerEmail,omitempty"`
	CustomerName  string `json:"customerName,omitempty"`
}

func (g *Gateway) handleAnalyzeWindow(ctx context.Context, msg Message) (any, error) {
	var p analyzePayload
	if err := decode(msg.Data, &p); err != nil {
		return nil, err
	}
	image, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(p.Image, dataURLPrefix(p.Image)))
	if err != nil {
		return nil, &services.ValidationFailure{Messages: []string{"image must be valid base64"}}
	}
	return g.svc.AnalyzeImage(ctx, services.AnalyzeRequest{
		SessionID:     msg.SessionID,
		Image:         image,
		Source:        orSource(p.Source, msg.Source),
		DeviceType:    p.DeviceType,
		CustomerEmail: p.CustomerEmail,
		CustomerName:  p.CustomerName,
	})
}

type quotePayload struct {
	Windows       []pricing.Spec              `json:"windows"`
	Customer      *validation.CustomerPayload `json:"customer,omitempty"`
	Config        *pricing.Config             `json:"config,omitempty"`
	Source        string                      `json:"source,omitempty"`
	DeviceType    string                      `json:"deviceType,omitempty"`
	HasAIAnalysis bool                        `json:"hasAiAnalysis,omitempty"`
	Engaged       bool                        `json:"engaged,omitempty"`
	SendEmail     bool                        `json:"sendEmail,omitempty"`
}

func (g *Gateway) handleCalculateQuote(ctx context.Context, msg Message) (any, error) {
	var p quotePayload
	if err := decode(msg.Data, &p); err != nil {
		return nil, err
	}
	return g.svc.CalculateQuote(ctx, services.QuoteRequest{
		SessionID:      msg.SessionID,
		Windows:        p.Windows,
		ConfigOverride: p.Config,
		Customer:       p.Customer,
		Source:         orSource(p.Source, msg.Source),
		DeviceType:     p.DeviceType,
		Mode:           msg.Mode,
		HasAIAnalysis:  p.HasAIAnalysis,
		Engaged:        p.Engaged,
		SendEmail:      p.SendEmail,
	})
}

// calculate_price is the quote pipeline without customer capture: pricing
// only, nothing persisted.
func (g *Gateway) handleCalculatePrice(ctx context.Context, msg Message) (any, error) {
	var p quotePayload
	if err := decode(msg.Data, &p); err != nil {
		return nil, err
	}
	return g.svc.CalculateQuote(ctx, services.QuoteRequest{
		SessionID:      msg.SessionID,
		Windows:        p.Windows,
		ConfigOverride: p.Config,
		Source:         orSource(p.Source, msg.Source),
		DeviceType:     p.DeviceType,
		Mode:           msg.Mode,
	})
}

type explanationPayload struct {
	QuoteID string         `json:"quoteId,omitempty"`
	Quote   *pricing.Quote `json:"quote,omitempty"`
}

func (g *Gateway) handleExplanation(ctx context.Context, msg Message) (any, error) {
	var p explanationPayload
	if err := decode(msg.Data, &p); err != nil {
		return nil, err
	}
	req := services.ExplainRequest{SessionID: msg.SessionID, Quote: p.Quote}
	if p.QuoteID != "" {
		id, err := uuid.Parse(p.QuoteID)
		if err != nil {
			return nil, &services.ValidationFailure{Messages: []string{"quoteId must be a valid id"}}
		}
		req.QuoteID = &id
	}
	return g.svc.ExplainQuote(ctx, req)
}

type emailQuotePayload struct {
	QuoteID string `json:"quoteId"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
}

func (g *Gateway) handleEmailQuote(ctx context.Context, msg Message) (any, error) {
	var p emailQuotePayload
	if err := decode(msg.Data, &p); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(p.QuoteID)
	if err != nil {
		return nil, &services.ValidationFailure{Messages: []string{"quoteId must be a valid id"}}
	}
	emailID, err := g.svc.EmailQuote(ctx, services.EmailQuoteRequest{QuoteID: id, Email: p.Email, Name: p.Name})
	if err != nil {
		return nil, err
	}
	return map[string]any{"emailId": emailID}, nil
}

type saveCustomerPayload struct {
	Customer      validation.CustomerPayload `json:"customer"`
	Source        string                     `json:"source,omitempty"`
	DeviceType    string                     `json:"deviceType,omitempty"`
	HasAIAnalysis bool                       `json:"hasAiAnalysis,omitempty"`
	Engaged       bool                       `json:"engaged,omitempty"`
}

func (g *Gateway) handleSaveCustomer(ctx context.Context, msg Message) (any, error) {
	var p saveCustomerPayload
	if err := decode(msg.Data, &p); err != nil {
		return nil, err
	}
	return g.svc.SaveCustomer(ctx, services.SaveCustomerRequest{
		SessionID:     msg.SessionID,
		Payload:       p.Customer,
		Source:        orSource(p.Source, msg.Source),
		DeviceType:    p.DeviceType,
		Mode:          msg.Mode,
		Engaged:       p.Engaged,
		HasAIAnalysis: p.HasAIAnalysis,
	})
}

func (g *Gateway) handleLoadInitialData(_ context.Context, msg Message) (any, error) {
	materials, materialCount := g.catalog.Materials()
	types, typeCount := g.catalog.WindowTypes()
	brands, brandCount := g.catalog.Brands()
	options, optionCount := g.catalog.Options()

	return map[string]any{
		"sessionId":     msg.SessionID,
		"materials":     map[string]any{"items": materials, "totalCount": materialCount},
		"windowTypes":   map[string]any{"items": types, "totalCount": typeCount},
		"brands":        map[string]any{"items": brands, "totalCount": brandCount},
		"options":       map[string]any{"items": options, "totalCount": optionCount},
		"configuration": publicConfig(g.catalog.PricingConfig()),
	}, nil
}

func (g *Gateway) handleEngagement(_ context.Context, msg Message) (any, error) {
	return g.recordClientEvent("user_engagement", msg)
}

func (g *Gateway) handleClientError(_ context.Context, msg Message) (any, error) {
	return g.recordClientEvent("client_error", msg)
}

// recordClientEvent validates a widget-reported event before it reaches
// the sink. Event name and timestamp default from the action and the
// clock when the widget omits them.
func (g *Gateway) recordClientEvent(defaultEvent string, msg Message) (any, error) {
	var p validation.EventPayload
	_ = json.Unmarshal(msg.Data, &p)
	if p.Event == "" {
		p.Event = defaultEvent
	}
	if p.Timestamp == "" {
		p.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	res := validation.ValidateAnalyticsEvent(p)
	if !res.Valid {
		return nil, &services.ValidationFailure{Messages: res.Errors}
	}

	var payload map[string]any
	_ = json.Unmarshal(msg.Data, &payload)
	g.analytics.Record(models.AnalyticsEvent{
		Event:      res.Sanitized.Event,
		SessionID:  orSource(res.Sanitized.SessionID, msg.SessionID),
		Source:     msg.Source,
		Payload:    jsonPayload(payload),
		OccurredAt: res.Occurred,
	})
	return map[string]any{"recorded": true}, nil
}

// ---- helpers ----

// publicConfig strips the hidden markup layer from caller-visible
// configuration; it is not itemized in customer-facing breakdowns.
func publicConfig(cfg pricing.Config) map[string]any {
	return map[string]any{
		"pricePerUI":        cfg.PricePerUI,
		"salesMarkup":       cfg.SalesMarkup,
		"installationRate":  cfg.InstallationRate,
		"taxRate":           cfg.TaxRate,
		"laborBaseRate":     cfg.LaborBaseRate,
		"minimumOrderValue": cfg.MinimumOrderValue,
	}
}

func decode(data json.RawMessage, dest any) error {
	if len(data) == 0 {
		return &services.ValidationFailure{Messages: []string{"data is required"}}
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return &services.ValidationFailure{Messages: []string{"data is not valid JSON for this action"}}
	}
	return nil
}

func dataURLPrefix(s string) string {
	if idx := strings.Index(s, ";base64,"); strings.HasPrefix(s, "data:") && idx >= 0 {
		return s[:idx+len(";base64,")]
	}
	return ""
}

func orSource(specific, fallback string) string {
	if specific != "" {
		return specific
	}
	return fallback
}

func jsonPayload(v any) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON([]byte("null"))
	}
	return datatypes.JSON(b)
}
