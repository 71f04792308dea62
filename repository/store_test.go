package repository

import (
	"math"
	"testing"
	"time"

	"windowquote-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	// Unique in-memory database per test to avoid cross-test collisions.
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Customer{},
		&models.QuoteRecord{},
		&models.QuoteLineRecord{},
		&models.AnalysisResult{},
		&models.AnalyticsEvent{},
		&models.FollowUpLog{},
		&models.PricingConfigRow{},
	))
	return New(db, zaptest.NewLogger(t))
}

func TestSanitizePatch(t *testing.T) {
	out := SanitizePatch(map[string]any{
		"name":  "Jordan",
		"nil":   nil,
		"nan":   math.NaN(),
		"inf":   math.Inf(1),
		"total": 372.29,
	})
	assert.Equal(t, "Jordan", out["name"])
	assert.NotContains(t, out, "nil")
	assert.Equal(t, 0.0, out["nan"])
	assert.Equal(t, 0.0, out["inf"])
	assert.Equal(t, 372.29, out["total"])
}

func TestUpsertCustomerCreatesThenUpdates(t *testing.T) {
	store := setupStore(t)

	first := &models.Customer{
		Name: "Jordan Miles", Email: "Jordan@Example.com",
		LeadStatus: models.LeadStatusNew, LeadPriority: models.PriorityLow,
	}
	require.NoError(t, store.UpsertCustomer(first))
	assert.NotEqual(t, uuid.Nil, first.ID)
	assert.Equal(t, "jordan@example.com", first.Email)

	second := &models.Customer{
		Name: "Jordan M.", Email: "JORDAN@example.com",
		LeadStatus: models.LeadStatusQuoted, LeadPriority: models.PriorityHigh,
		LastQuoteTotal: 5200, HasAIAnalysis: true,
	}
	require.NoError(t, store.UpsertCustomer(second))
	assert.Equal(t, first.ID, second.ID)

	stored, err := store.GetCustomerByEmail("jordan@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Jordan M.", stored.Name)
	assert.Equal(t, models.PriorityHigh, stored.LeadPriority)
	assert.True(t, stored.HasAIAnalysis)
}

func TestUpsertCustomerKeepsCountersAndAIFlag(t *testing.T) {
	store := setupStore(t)

	require.NoError(t, store.UpsertCustomer(&models.Customer{
		Name: "Jordan", Email: "j@example.com", QuoteCount: 3, HasAIAnalysis: true,
	}))
	// a later write without those signals must not regress them
	require.NoError(t, store.UpsertCustomer(&models.Customer{
		Name: "Jordan", Email: "j@example.com", QuoteCount: 0, HasAIAnalysis: false,
	}))

	stored, err := store.GetCustomerByEmail("j@example.com")
	require.NoError(t, err)
	assert.Equal(t, 3, stored.QuoteCount)
	assert.True(t, stored.HasAIAnalysis)
}

func TestGetCustomerByEmailNotFound(t *testing.T) {
	store := setupStore(t)
	_, err := store.GetCustomerByEmail("nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateQuoteBumpsCustomerStats(t *testing.T) {
	store := setupStore(t)

	customer := &models.Customer{Name: "Jordan", Email: "j@example.com"}
	require.NoError(t, store.UpsertCustomer(customer))

	quote := &models.QuoteRecord{
		CustomerID:  &customer.ID,
		QuoteNumber: "WQ-20260828-ABC123",
		QuoteDate:   time.Now().UTC(),
		Subtotal:    283.58, GrandTotal: 372.29, FinalTotal: 500,
		MinimumApplied: true,
	}
	lines := []models.QuoteLineRecord{
		{Width: 30, Height: 54, Quantity: 1, WindowType: "double-hung", Material: "vinyl",
			UniversalInches: 42, UnitPrice: 283.58, Subtotal: 283.58, TotalPrice: 372.29},
	}
	require.NoError(t, store.CreateQuote(quote, lines))

	stored, err := store.GetQuote(quote.ID)
	require.NoError(t, err)
	require.Len(t, stored.Lines, 1)
	assert.Equal(t, 0, stored.Lines[0].Position)

	owner, err := store.GetCustomer(customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, owner.QuoteCount)
	assert.Equal(t, 500.0, owner.LastQuoteTotal)
	assert.Equal(t, models.LeadStatusQuoted, owner.LeadStatus)
}

func TestGetQuoteOrdersLines(t *testing.T) {
	store := setupStore(t)

	quote := &models.QuoteRecord{QuoteNumber: "WQ-20260828-XYZ789", Subtotal: 1, GrandTotal: 1, FinalTotal: 500}
	lines := []models.QuoteLineRecord{
		{Width: 30, Height: 54, WindowType: "double-hung", Material: "vinyl", UniversalInches: 42, UnitPrice: 1, Subtotal: 1, TotalPrice: 1},
		{Width: 36, Height: 60, WindowType: "casement", Material: "wood", UniversalInches: 48, UnitPrice: 2, Subtotal: 2, TotalPrice: 2},
		{Width: 48, Height: 72, WindowType: "bay", Material: "wood", UniversalInches: 60, UnitPrice: 3, Subtotal: 3, TotalPrice: 3},
	}
	require.NoError(t, store.CreateQuote(quote, lines))

	stored, err := store.GetQuote(quote.ID)
	require.NoError(t, err)
	require.Len(t, stored.Lines, 3)
	for i, l := range stored.Lines {
		assert.Equal(t, i, l.Position)
	}
	assert.Equal(t, "double-hung", stored.Lines[0].WindowType)
	assert.Equal(t, "bay", stored.Lines[2].WindowType)
}

func TestAttachExplanation(t *testing.T) {
	store := setupStore(t)

	quote := &models.QuoteRecord{QuoteNumber: "WQ-20260828-EXPL01", Subtotal: 1, GrandTotal: 1, FinalTotal: 500}
	require.NoError(t, store.CreateQuote(quote, nil))

	require.NoError(t, store.AttachExplanation(quote.ID, "Your quote covers one window."))
	stored, err := store.GetQuote(quote.ID)
	require.NoError(t, err)
	assert.True(t, stored.ExplanationGenerated)
	assert.Equal(t, "Your quote covers one window.", stored.QuoteExplanation)

	assert.ErrorIs(t, store.AttachExplanation(uuid.New(), "nope"), ErrNotFound)
}

func TestDueFollowUpsAndMarkContacted(t *testing.T) {
	store := setupStore(t)
	now := time.Now().UTC()

	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	due := &models.Customer{Name: "Due", Email: "due@example.com", LeadStatus: models.LeadStatusNew, FollowUpAt: &past}
	later := &models.Customer{Name: "Later", Email: "later@example.com", LeadStatus: models.LeadStatusNew, FollowUpAt: &future}
	lost := &models.Customer{Name: "Lost", Email: "lost@example.com", LeadStatus: models.LeadStatusLost, FollowUpAt: &past}
	for _, c := range []*models.Customer{due, later, lost} {
		require.NoError(t, store.UpsertCustomer(c))
	}

	found, err := store.DueFollowUps(now, 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "due@example.com", found[0].Email)

	require.NoError(t, store.MarkContacted(found[0].ID))
	stored, err := store.GetCustomer(found[0].ID)
	require.NoError(t, err)
	assert.Nil(t, stored.FollowUpAt)
	assert.Equal(t, models.LeadStatusContacted, stored.LeadStatus)
}

func TestBulkInsertEvents(t *testing.T) {
	store := setupStore(t)

	require.NoError(t, store.BulkInsertEvents(nil))
	require.NoError(t, store.BulkInsertEvents([]models.AnalyticsEvent{
		{Event: "quote_calculated", SessionID: "wq_1_aaaaaaaaa", OccurredAt: time.Now().UTC()},
		{Event: "window_analyzed", SessionID: "wq_2_bbbbbbbbb", OccurredAt: time.Now().UTC()},
	}))

	var count int64
	store.db.Model(&models.AnalyticsEvent{}).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestPricingConfigRoundTrip(t *testing.T) {
	store := setupStore(t)

	_, err := store.ActivePricingConfig()
	assert.ErrorIs(t, err, ErrNotFound)

	first := &models.PricingConfigRow{PricePerUI: 5.58, SalesMarkup: 1.10, LaborBaseRate: 150}
	require.NoError(t, store.SavePricingConfig(first))

	second := &models.PricingConfigRow{PricePerUI: 6.25, SalesMarkup: 1.12, LaborBaseRate: 160}
	require.NoError(t, store.SavePricingConfig(second))

	active, err := store.ActivePricingConfig()
	require.NoError(t, err)
	assert.Equal(t, 6.25, active.PricePerUI)

	var activeCount int64
	store.db.Model(&models.PricingConfigRow{}).Where("is_active = ?", true).Count(&activeCount)
	assert.Equal(t, int64(1), activeCount)
}

func TestListCustomersFiltersByPriority(t *testing.T) {
	store := setupStore(t)

	require.NoError(t, store.UpsertCustomer(&models.Customer{Name: "High", Email: "h@example.com", LeadPriority: models.PriorityHigh}))
	require.NoError(t, store.UpsertCustomer(&models.Customer{Name: "Low", Email: "l@example.com", LeadPriority: models.PriorityLow}))

	high, err := store.ListCustomers(models.PriorityHigh, 10)
	require.NoError(t, err)
	require.Len(t, high, 1)
	assert.Equal(t, "h@example.com", high[0].Email)

	all, err := store.ListCustomers("", 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
