// services/customer_service.go
package services

import (
	"context"
	"time"

	"windowquote-backend/models"
	"windowquote-backend/utils"
	"windowquote-backend/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SaveCustomerRequest captures a lead without a quote attached.
type SaveCustomerRequest struct {
	SessionID     string
	Payload       validation.CustomerPayload
	Source        string
	DeviceType    string
	Mode          string
	Engaged       bool
	HasAIAnalysis bool
}

// SaveCustomerResult reports the persisted lead and its derived workflow
// fields.
type SaveCustomerResult struct {
	CustomerID   uuid.UUID `json:"customerId"`
	SessionID    string    `json:"sessionId"`
	LeadPriority string    `json:"leadPriority"`
	FollowUpAt   time.Time `json:"followUpAt"`
	Completeness int       `json:"customerCompleteness"`
	Created      bool      `json:"created"`
}

// SaveCustomer validates and upserts a lead by email, recomputing priority,
// follow-up and tags. A first-time lead gets a welcome email, fire-and-forget.
func (s *QuoteService) SaveCustomer(ctx context.Context, req SaveCustomerRequest) (*SaveCustomerResult, error) {
	sessionID := utils.EnsureSessionID(req.SessionID)

	res := validation.ValidateCustomer(req.Payload)
	if !res.Valid {
		return nil, &ValidationFailure{Messages: res.Errors}
	}
	sanitized := res.Sanitized

	existing, err := s.store.GetCustomerByEmail(sanitized.Email)
	created := err != nil // ErrNotFound means first occurrence

	total := 0.0
	if existing != nil {
		total = existing.LastQuoteTotal
	}

	now := time.Now().UTC()
	priority := DerivePriority(total, req.Mode, req.HasAIAnalysis)
	followUp := FollowUpTime(now, priority, req.Engaged)
	tags := BuildTags(req.Source, req.DeviceType, req.Mode, req.HasAIAnalysis, total, nil)

	customer := &models.Customer{
		Name:          sanitized.Name,
		Email:         sanitized.Email,
		Phone:         sanitized.Phone,
		Address:       sanitized.Address,
		Notes:         sanitized.Notes,
		LeadStatus:    models.LeadStatusNew,
		LeadPriority:  priority,
		FollowUpAt:    &followUp,
		Tags:          mustJSON(tags),
		Source:        req.Source,
		DeviceType:    req.DeviceType,
		SessionID:     sessionID,
		HasAIAnalysis: req.HasAIAnalysis,
	}
	if existing != nil {
		customer.LeadStatus = existing.LeadStatus
		customer.LastQuoteTotal = existing.LastQuoteTotal
	}

	if err := s.store.UpsertCustomer(customer); err != nil {
		return nil, err
	}

	s.recordEvent("customer_saved", sessionID, req.Source, req.DeviceType, map[string]any{
		"priority": priority,
		"created":  created,
	})

	if created {
		s.email.SendSafe(ctx, EmailRequest{
			Template:      TemplateWelcome,
			CustomerEmail: sanitized.Email,
			CustomerName:  sanitized.Name,
		})
	}

	return &SaveCustomerResult{
		CustomerID:   customer.ID,
		SessionID:    sessionID,
		LeadPriority: priority,
		FollowUpAt:   followUp,
		Completeness: Completeness(sanitized.Name, sanitized.Email, sanitized.Phone, sanitized.Address),
		Created:      created,
	}, nil
}

// EmailQuoteRequest re-sends a persisted quote to a customer.
type EmailQuoteRequest struct {
	QuoteID uuid.UUID
	Email   string
	Name    string
}

// EmailQuote loads a stored quote and dispatches the quote email
// synchronously; the caller needs the send result.
func (s *QuoteService) EmailQuote(ctx context.Context, req EmailQuoteRequest) (string, error) {
	record, err := s.store.GetQuote(req.QuoteID)
	if err != nil {
		return "", err
	}

	email := req.Email
	name := req.Name
	if email == "" && record.CustomerID != nil {
		customer, err := s.store.GetCustomer(*record.CustomerID)
		if err != nil {
			return "", err
		}
		email = customer.Email
		name = customer.Name
	}
	if email == "" {
		return "", &ValidationFailure{Messages: []string{"a customer email is required"}}
	}

	emailID, err := s.email.Send(ctx, EmailRequest{
		Template:      TemplateQuote,
		CustomerEmail: email,
		CustomerName:  name,
		Payload: map[string]any{
			"quoteNumber": record.QuoteNumber,
			"finalTotal":  record.FinalTotal,
			"validUntil":  record.ValidUntil.Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", err
	}

	s.recordEvent("quote_emailed", record.SessionID, record.Source, record.DeviceType, map[string]any{
		"quoteNumber": record.QuoteNumber,
	})
	s.log.Info("quote re-sent", zap.String("quoteNumber", record.QuoteNumber))
	return emailID, nil
}
