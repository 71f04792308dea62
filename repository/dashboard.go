package repository

import (
	"time"

	"windowquote-backend/models"
	"windowquote-backend/utils"
)

// DashboardStats is the staff overview: lead and quote aggregates plus the
// most recent records.
type DashboardStats struct {
	TotalLeads      int64            `json:"totalLeads"`
	LeadsByPriority map[string]int64 `json:"leadsByPriority"`
	LeadsByStatus   map[string]int64 `json:"leadsByStatus"`
	DueFollowUps    int64            `json:"dueFollowUps"`

	TotalQuotes   int64   `json:"totalQuotes"`
	QuotesToday   int64   `json:"quotesToday"`
	QuotedValue   float64 `json:"quotedValue"`
	MonthlyValue  float64 `json:"monthlyValue"`
	AverageQuote  float64 `json:"averageQuote"`

	RecentLeads  []models.Customer    `json:"recentLeads"`
	RecentQuotes []models.QuoteRecord `json:"recentQuotes"`
}

// Dashboard aggregates the lead and quote numbers for the staff overview.
// Individual query failures leave that slot at its zero value; the overview
// is informational, not transactional.
func (s *Store) Dashboard(now time.Time) DashboardStats {
	stats := DashboardStats{
		LeadsByPriority: make(map[string]int64),
		LeadsByStatus:   make(map[string]int64),
	}

	s.db.Model(&models.Customer{}).Count(&stats.TotalLeads)

	type bucket struct {
		Key   string
		Count int64
	}
	var priorities []bucket
	s.db.Model(&models.Customer{}).
		Select("lead_priority AS key, COUNT(*) AS count").
		Group("lead_priority").Scan(&priorities)
	for _, b := range priorities {
		stats.LeadsByPriority[b.Key] = b.Count
	}

	var statuses []bucket
	s.db.Model(&models.Customer{}).
		Select("lead_status AS key, COUNT(*) AS count").
		Group("lead_status").Scan(&statuses)
	for _, b := range statuses {
		stats.LeadsByStatus[b.Key] = b.Count
	}

	s.db.Model(&models.Customer{}).
		Where("follow_up_at IS NOT NULL AND follow_up_at <= ?", now).
		Count(&stats.DueFollowUps)

	s.db.Model(&models.QuoteRecord{}).Count(&stats.TotalQuotes)
	s.db.Model(&models.QuoteRecord{}).
		Where("quote_date >= ?", utils.BeginningOfDay(now)).
		Count(&stats.QuotesToday)

	s.db.Model(&models.QuoteRecord{}).
		Select("COALESCE(SUM(final_total), 0)").Scan(&stats.QuotedValue)

	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	s.db.Model(&models.QuoteRecord{}).
		Where("quote_date >= ?", firstOfMonth).
		Select("COALESCE(SUM(final_total), 0)").Scan(&stats.MonthlyValue)

	if stats.TotalQuotes > 0 {
		stats.AverageQuote = stats.QuotedValue / float64(stats.TotalQuotes)
	}

	s.db.Order("updated_at DESC").Limit(5).Find(&stats.RecentLeads)
	s.db.Order("quote_date DESC").Limit(5).Find(&stats.RecentQuotes)

	return stats
}
