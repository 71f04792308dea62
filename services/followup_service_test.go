package services

import (
	"context"
	"testing"
	"time"

	"windowquote-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func seedDueCustomer(t *testing.T, f *fixture, email string) *models.Customer {
	t.Helper()
	past := time.Now().UTC().Add(-time.Hour)
	c := &models.Customer{
		Name: "Jordan", Email: email,
		LeadStatus: models.LeadStatusNew, LeadPriority: models.PriorityMedium,
		FollowUpAt: &past, LastQuoteTotal: 2500,
	}
	require.NoError(t, f.store.UpsertCustomer(c))
	return c
}

func TestProcessDueFollowUpsSendsAndAdvances(t *testing.T) {
	f := setupService(t)
	customer := seedDueCustomer(t, f, "due@example.com")

	svc := NewFollowUpService(f.store, f.email, "", "", "", zaptest.NewLogger(t))
	svc.ProcessDueFollowUps(context.Background())

	assert.Contains(t, f.email.templates(), TemplateFollowUp)

	stored, err := f.store.GetCustomer(customer.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.FollowUpAt)
	assert.Equal(t, models.LeadStatusContacted, stored.LeadStatus)

	var logs []models.FollowUpLog
	require.NoError(t, f.db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, "email", logs[0].Channel)
	assert.Equal(t, "sent", logs[0].Status)
}

func TestProcessDueFollowUpsEmailFailureKeepsLead(t *testing.T) {
	f := setupService(t)
	customer := seedDueCustomer(t, f, "fail@example.com")
	f.email.err = ErrEmailUnavailable

	svc := NewFollowUpService(f.store, f.email, "", "", "", zaptest.NewLogger(t))
	svc.ProcessDueFollowUps(context.Background())

	// the lead stays due for the next sweep
	stored, err := f.store.GetCustomer(customer.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.FollowUpAt)
	assert.Equal(t, models.LeadStatusNew, stored.LeadStatus)

	var logs []models.FollowUpLog
	require.NoError(t, f.db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, "failed", logs[0].Status)
	assert.NotEmpty(t, logs[0].ErrorMsg)
}

func TestProcessDueFollowUpsNothingDue(t *testing.T) {
	f := setupService(t)

	future := time.Now().UTC().Add(time.Hour)
	require.NoError(t, f.store.UpsertCustomer(&models.Customer{
		Name: "Later", Email: "later@example.com",
		LeadStatus: models.LeadStatusNew, FollowUpAt: &future,
	}))

	svc := NewFollowUpService(f.store, f.email, "", "", "", zaptest.NewLogger(t))
	svc.ProcessDueFollowUps(context.Background())

	assert.Empty(t, f.email.templates())
}

func TestFollowUpSMSDisabledWithoutCredentials(t *testing.T) {
	f := setupService(t)
	svc := NewFollowUpService(f.store, f.email, "", "", "", zaptest.NewLogger(t))
	assert.False(t, svc.smsEnabled)

	withCreds := NewFollowUpService(f.store, f.email, "AC123", "token", "+15550001111", zaptest.NewLogger(t))
	assert.True(t, withCreds.smsEnabled)
}
