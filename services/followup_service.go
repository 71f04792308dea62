// services/followup_service.go
package services

import (
	"context"
	"time"

	"windowquote-backend/models"
	"windowquote-backend/repository"
	"windowquote-backend/utils"

	"github.com/robfig/cron/v3"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

// FollowUpService dispatches scheduled follow-ups: an email always, an SMS
// additionally when Twilio is configured and the lead has a phone number.
type FollowUpService struct {
	store      *repository.Store
	email      EmailSender
	log        *zap.Logger
	smsClient  *twilio.RestClient
	smsFrom    string
	smsEnabled bool
}

func NewFollowUpService(store *repository.Store, email EmailSender, accountSID, authToken, fromNumber string, log *zap.Logger) *FollowUpService {
	s := &FollowUpService{
		store:   store,
		email:   email,
		log:     log,
		smsFrom: fromNumber,
	}
	if accountSID != "" && authToken != "" && fromNumber != "" {
		s.smsClient = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		})
		s.smsEnabled = true
	}
	return s
}

// StartScheduler runs the follow-up sweep at the top of every hour.
func (s *FollowUpService) StartScheduler() *cron.Cron {
	c := cron.New()

	if _, err := c.AddFunc("0 * * * *", func() {
		s.ProcessDueFollowUps(context.Background())
	}); err != nil {
		s.log.Error("failed to schedule follow-up sweep", zap.Error(err))
		return c
	}

	c.Start()
	s.log.Info("follow-up scheduler started")
	return c
}

// ProcessDueFollowUps contacts every lead whose follow-up time has arrived
// and advances their lead status. Each dispatch attempt is logged.
func (s *FollowUpService) ProcessDueFollowUps(ctx context.Context) {
	customers, err := s.store.DueFollowUps(time.Now().UTC(), 50)
	if err != nil {
		s.log.Warn("follow-up sweep query failed", zap.Error(err))
		return
	}

	for _, customer := range customers {
		s.dispatch(ctx, customer)
	}

	if len(customers) > 0 {
		s.log.Info("follow-up sweep completed", zap.Int("contacted", len(customers)))
	}
}

func (s *FollowUpService) dispatch(ctx context.Context, customer models.Customer) {
	emailLog := models.FollowUpLog{
		CustomerID: customer.ID,
		Channel:    "email",
		Template:   TemplateFollowUp,
		Status:     "sent",
		SentAt:     time.Now().UTC(),
	}

	_, err := s.email.Send(ctx, EmailRequest{
		Template:      TemplateFollowUp,
		CustomerEmail: customer.Email,
		CustomerName:  customer.Name,
		Payload: map[string]any{
			"leadPriority":   customer.LeadPriority,
			"lastQuoteTotal": customer.LastQuoteTotal,
		},
	})
	if err != nil {
		emailLog.Status = "failed"
		emailLog.ErrorMsg = err.Error()
		s.log.Warn("follow-up email failed",
			zap.String("customer", customer.Email), zap.Error(err))
	}
	if logErr := s.store.CreateFollowUpLog(&emailLog); logErr != nil {
		s.log.Warn("failed to log follow-up", zap.Error(logErr))
	}

	if s.smsEnabled && utils.ValidatePhone(customer.Phone) {
		s.sendSMS(customer)
	}

	if err == nil {
		if err := s.store.MarkContacted(customer.ID); err != nil {
			s.log.Warn("failed to advance lead status",
				zap.String("customer", customer.Email), zap.Error(err))
		}
	}
}

func (s *FollowUpService) sendSMS(customer models.Customer) {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(customer.Phone)
	params.SetFrom(s.smsFrom)
	params.SetBody("Hi " + customer.Name + ", thanks for your window quote request with ClearView Window Works! " +
		"Reply to this message or call us to schedule your free in-home measurement.")

	smsLog := models.FollowUpLog{
		CustomerID: customer.ID,
		Channel:    "sms",
		Template:   TemplateFollowUp,
		Status:     "sent",
		SentAt:     time.Now().UTC(),
	}

	resp, err := s.smsClient.Api.CreateMessage(params)
	if err != nil {
		smsLog.Status = "failed"
		smsLog.ErrorMsg = err.Error()
		s.log.Warn("follow-up SMS failed",
			zap.String("customer", customer.Email), zap.Error(err))
	} else if resp.Sid != nil {
		s.log.Info("follow-up SMS sent",
			zap.String("customer", customer.Email), zap.String("sid", *resp.Sid))
	}

	if err := s.store.CreateFollowUpLog(&smsLog); err != nil {
		s.log.Warn("failed to log follow-up SMS", zap.Error(err))
	}
}
