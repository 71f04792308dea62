package services

import (
	"context"
	"testing"

	"windowquote-backend/models"
	"windowquote-backend/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveCustomerCreatesLeadAndSendsWelcome(t *testing.T) {
	f := setupService(t)

	result, err := f.svc.SaveCustomer(context.Background(), SaveCustomerRequest{
		Payload: validation.CustomerPayload{
			Name: "Jordan Miles", Email: "Jordan@Example.com", Phone: "(555) 123-4567",
		},
		Source: "widget", DeviceType: "mobile",
	})
	require.NoError(t, err)

	assert.True(t, result.Created)
	assert.Equal(t, models.PriorityLow, result.LeadPriority)
	assert.Equal(t, 75, result.Completeness)
	assert.NotEmpty(t, result.SessionID)

	stored, err := f.store.GetCustomerByEmail("jordan@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.LeadStatusNew, stored.LeadStatus)
	assert.Equal(t, "5551234567", stored.Phone)

	assert.Contains(t, f.email.templates(), TemplateWelcome)
	assert.Contains(t, f.recorder.names(), "customer_saved")
}

func TestSaveCustomerSecondSaveIsUpdate(t *testing.T) {
	f := setupService(t)
	payload := validation.CustomerPayload{Name: "Jordan Miles", Email: "jordan@example.com"}

	first, err := f.svc.SaveCustomer(context.Background(), SaveCustomerRequest{Payload: payload})
	require.NoError(t, err)
	require.True(t, first.Created)

	second, err := f.svc.SaveCustomer(context.Background(), SaveCustomerRequest{Payload: payload})
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.CustomerID, second.CustomerID)

	// the welcome mail goes out exactly once
	welcomes := 0
	for _, tmpl := range f.email.templates() {
		if tmpl == TemplateWelcome {
			welcomes++
		}
	}
	assert.Equal(t, 1, welcomes)
}

func TestSaveCustomerRejectsInvalidPayload(t *testing.T) {
	f := setupService(t)

	_, err := f.svc.SaveCustomer(context.Background(), SaveCustomerRequest{
		Payload: validation.CustomerPayload{Name: "J", Email: "nope"},
	})
	var vf *ValidationFailure
	assert.ErrorAs(t, err, &vf)
}

func TestSaveCustomerKeepsPriorityFromPriorQuotes(t *testing.T) {
	f := setupService(t)

	require.NoError(t, f.store.UpsertCustomer(&models.Customer{
		Name: "Jordan", Email: "jordan@example.com",
		LeadStatus: models.LeadStatusQuoted, LastQuoteTotal: 5200,
	}))

	result, err := f.svc.SaveCustomer(context.Background(), SaveCustomerRequest{
		Payload: validation.CustomerPayload{Name: "Jordan Miles", Email: "jordan@example.com"},
	})
	require.NoError(t, err)
	assert.False(t, result.Created)
	assert.Equal(t, models.PriorityHigh, result.LeadPriority)

	stored, err := f.store.GetCustomerByEmail("jordan@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.LeadStatusQuoted, stored.LeadStatus)
	assert.Equal(t, 5200.0, stored.LastQuoteTotal)
}

func TestEmailQuoteResolvesCustomerEmail(t *testing.T) {
	f := setupService(t)

	customer := &models.Customer{Name: "Jordan", Email: "jordan@example.com"}
	require.NoError(t, f.store.UpsertCustomer(customer))
	record := &models.QuoteRecord{
		CustomerID: &customer.ID, QuoteNumber: "WQ-20260828-MAIL01",
		Subtotal: 283.58, GrandTotal: 372.29, FinalTotal: 500,
	}
	require.NoError(t, f.store.CreateQuote(record, nil))

	emailID, err := f.svc.EmailQuote(context.Background(), EmailQuoteRequest{QuoteID: record.ID})
	require.NoError(t, err)
	assert.Equal(t, "em_123", emailID)
	assert.Contains(t, f.email.templates(), TemplateQuote)
	assert.Contains(t, f.recorder.names(), "quote_emailed")
}

func TestEmailQuoteRequiresSomeEmail(t *testing.T) {
	f := setupService(t)

	record := &models.QuoteRecord{QuoteNumber: "WQ-20260828-MAIL02", Subtotal: 1, GrandTotal: 1, FinalTotal: 500}
	require.NoError(t, f.store.CreateQuote(record, nil))

	_, err := f.svc.EmailQuote(context.Background(), EmailQuoteRequest{QuoteID: record.ID})
	var vf *ValidationFailure
	assert.ErrorAs(t, err, &vf)
}
