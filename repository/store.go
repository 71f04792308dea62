// Package repository wraps the database behind collection-scoped CRUD,
// value sanitization, a bounded cross-collection search and a health probe.
// Other components never reach for gorm directly.
package repository

import (
	"errors"
	"math"
	"strings"
	"time"

	"windowquote-backend/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrNotFound reports an addressed record that does not exist. Callers map
// it to a success envelope with null data, not to an error response.
var ErrNotFound = errors.New("record not found")

// Store is the persistence adapter.
type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

func New(db *gorm.DB, log *zap.Logger) *Store {
	return &Store{db: db, log: log}
}

// SanitizePatch prepares a field patch for writing: nil values are dropped
// and non-finite numbers are zeroed. Nested values stay structural; the
// column types handle serialization.
func SanitizePatch(patch map[string]any) map[string]any {
	out := make(map[string]any, len(patch))
	for k, v := range patch {
		if v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			if math.IsNaN(n) || math.IsInf(n, 0) {
				out[k] = 0.0
				continue
			}
			out[k] = n
		case float32:
			out[k] = float64(n)
		default:
			out[k] = v
		}
	}
	return out
}

// UpsertCustomer creates or updates a customer keyed by lowercased email.
// Existing records are updated in place; the store bumps UpdatedAt.
func (s *Store) UpsertCustomer(c *models.Customer) error {
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))

	var existing models.Customer
	err := s.db.Where("email = ?", c.Email).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.db.Create(c).Error
	}
	if err != nil {
		return err
	}

	c.ID = existing.ID
	c.CreatedAt = existing.CreatedAt
	if c.QuoteCount < existing.QuoteCount {
		c.QuoteCount = existing.QuoteCount
	}
	c.HasAIAnalysis = c.HasAIAnalysis || existing.HasAIAnalysis
	return s.db.Model(&existing).Updates(SanitizePatch(map[string]any{
		"name":             c.Name,
		"phone":            c.Phone,
		"address":          c.Address,
		"notes":            c.Notes,
		"lead_status":      c.LeadStatus,
		"lead_priority":    c.LeadPriority,
		"follow_up_at":     c.FollowUpAt,
		"tags":             c.Tags,
		"source":           c.Source,
		"device_type":      c.DeviceType,
		"session_id":       c.SessionID,
		"quote_count":      c.QuoteCount,
		"last_quote_total": c.LastQuoteTotal,
		"has_ai_analysis":  c.HasAIAnalysis,
	})).Error
}

// GetCustomerByEmail fetches a customer by its normalized email key.
func (s *Store) GetCustomerByEmail(email string) (*models.Customer, error) {
	var c models.Customer
	err := s.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCustomer fetches a customer by id.
func (s *Store) GetCustomer(id uuid.UUID) (*models.Customer, error) {
	var c models.Customer
	err := s.db.Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCustomers returns customers, optionally filtered by lead priority,
// most recently updated first.
func (s *Store) ListCustomers(priority string, limit int) ([]models.Customer, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	q := s.db.Order("updated_at DESC").Limit(limit)
	if priority != "" {
		q = q.Where("lead_priority = ?", priority)
	}
	var out []models.Customer
	return out, q.Find(&out).Error
}

// CreateQuote persists a quote and its lines in one transaction and bumps
// the owning customer's quote stats when a customer is attached.
func (s *Store) CreateQuote(quote *models.QuoteRecord, lines []models.QuoteLineRecord) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(quote).Error; err != nil {
			return err
		}
		for i := range lines {
			lines[i].QuoteID = quote.ID
			lines[i].Position = i
		}
		if len(lines) > 0 {
			if err := tx.Create(&lines).Error; err != nil {
				return err
			}
		}
		if quote.CustomerID != nil {
			return tx.Model(&models.Customer{}).Where("id = ?", *quote.CustomerID).
				Updates(map[string]any{
					"quote_count":      gorm.Expr("quote_count + ?", 1),
					"last_quote_total": quote.FinalTotal,
					"lead_status":      models.LeadStatusQuoted,
				}).Error
		}
		return nil
	})
}

// GetQuote fetches a quote with its lines.
func (s *Store) GetQuote(id uuid.UUID) (*models.QuoteRecord, error) {
	var q models.QuoteRecord
	err := s.db.Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Where("id = ?", id).First(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// ListQuotes returns recent quotes, newest first.
func (s *Store) ListQuotes(limit int) ([]models.QuoteRecord, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	var out []models.QuoteRecord
	return out, s.db.Order("quote_date DESC").Limit(limit).Find(&out).Error
}

// AttachExplanation patches the explanation onto an existing quote. Quote
// lines are append-only; this is the only update a quote ever receives.
func (s *Store) AttachExplanation(quoteID uuid.UUID, explanation string) error {
	res := s.db.Model(&models.QuoteRecord{}).Where("id = ?", quoteID).
		Updates(SanitizePatch(map[string]any{
			"quote_explanation":     explanation,
			"explanation_generated": true,
		}))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ActivePricingConfig returns the most recently updated active pricing row.
func (s *Store) ActivePricingConfig() (*models.PricingConfigRow, error) {
	var row models.PricingConfigRow
	err := s.db.Where("is_active = ?", true).Order("updated_at DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// SavePricingConfig deactivates the current rows and writes the new one as
// the single active configuration.
func (s *Store) SavePricingConfig(row *models.PricingConfigRow) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.PricingConfigRow{}).Where("is_active = ?", true).
			Update("is_active", false).Error; err != nil {
			return err
		}
		row.IsActive = true
		return tx.Create(row).Error
	})
}

// CreateAnalysis persists one vision analysis result.
func (s *Store) CreateAnalysis(a *models.AnalysisResult) error {
	return s.db.Create(a).Error
}

// BulkInsertEvents writes a batch of analytics events in one statement.
func (s *Store) BulkInsertEvents(events []models.AnalyticsEvent) error {
	if len(events) == 0 {
		return nil
	}
	return s.db.Create(&events).Error
}

// CreateFollowUpLog records a follow-up dispatch attempt.
func (s *Store) CreateFollowUpLog(l *models.FollowUpLog) error {
	return s.db.Create(l).Error
}

// DueFollowUps returns customers whose follow-up time has arrived and who
// are still in an actionable lead state.
func (s *Store) DueFollowUps(now time.Time, limit int) ([]models.Customer, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []models.Customer
	err := s.db.Where("follow_up_at IS NOT NULL AND follow_up_at <= ?", now).
		Where("lead_status IN ?", []string{models.LeadStatusNew, models.LeadStatusQualified, models.LeadStatusQuoted}).
		Order("follow_up_at ASC").Limit(limit).Find(&out).Error
	return out, err
}

// MarkContacted clears the follow-up flag and advances a new lead.
func (s *Store) MarkContacted(customerID uuid.UUID) error {
	return s.db.Model(&models.Customer{}).Where("id = ?", customerID).
		Updates(map[string]any{
			"follow_up_at": nil,
			"lead_status":  models.LeadStatusContacted,
		}).Error
}
