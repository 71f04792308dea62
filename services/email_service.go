// services/email_service.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Named email templates understood by the dispatch service.
const (
	TemplateQuote        = "quote_email"
	TemplateAIAnalysis   = "ai_analysis_email"
	TemplateConfirmation = "appointment_confirmation"
	TemplateFollowUp     = "follow_up_email"
	TemplateWelcome      = "welcome_email"
)

// ErrEmailUnavailable reports a dispatch that failed after retries.
var ErrEmailUnavailable = errors.New("email service unavailable")

// EmailRequest is one templated message.
type EmailRequest struct {
	Template      string         `json:"template"`
	CustomerEmail string         `json:"customerEmail"`
	CustomerName  string         `json:"customerName"`
	Payload       map[string]any `json:"payload,omitempty"`
}

// EmailSender dispatches templated messages. Send is synchronous and
// returns the dispatcher's email id; SendSafe swallows failures for
// auxiliary mails.
type EmailSender interface {
	Send(ctx context.Context, req EmailRequest) (string, error)
	SendSafe(ctx context.Context, req EmailRequest)
}

// EmailService posts templated messages to the external dispatch service.
type EmailService struct {
	endpoint string
	apiKey   string
	client   *http.Client
	log      *zap.Logger
}

func NewEmailService(endpoint, apiKey string, timeout time.Duration, log *zap.Logger) *EmailService {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &EmailService{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
		log:      log,
	}
}

type emailResponse struct {
	EmailID string `json:"emailId"`
}

// Send dispatches one templated email, retrying up to three times.
func (s *EmailService) Send(ctx context.Context, req EmailRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEmailUnavailable, err)
	}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrEmailUnavailable, err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if s.apiKey != "" {
			httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
		}

		resp, err := s.client.Do(httpReq)
		if err == nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
			var parsed emailResponse
			decodeErr := json.NewDecoder(resp.Body).Decode(&parsed)
			resp.Body.Close()
			if decodeErr != nil {
				return "", fmt.Errorf("%w: %v", ErrEmailUnavailable, decodeErr)
			}
			return parsed.EmailID, nil
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			resp.Body.Close()
		}
		s.log.Warn("email dispatch failed",
			zap.String("template", req.Template),
			zap.Int("attempt", attempt),
			zap.Error(lastErr))

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", ErrEmailUnavailable, ctx.Err())
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}
	return "", fmt.Errorf("%w: %v", ErrEmailUnavailable, lastErr)
}

// SendSafe dispatches an auxiliary mail, logging and discarding any failure.
func (s *EmailService) SendSafe(ctx context.Context, req EmailRequest) {
	if _, err := s.Send(ctx, req); err != nil {
		s.log.Warn("auxiliary email dropped",
			zap.String("template", req.Template), zap.Error(err))
	}
}
