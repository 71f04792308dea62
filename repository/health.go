package repository

import (
	"time"
)

// CollectionHealth reports one collection's probe outcome.
type CollectionHealth struct {
	Status      string `json:"status"`
	RecordCount int64  `json:"recordCount"`
}

// HealthReport aggregates per-collection probes.
type HealthReport struct {
	Status         string                      `json:"status"`
	Collections    map[string]CollectionHealth `json:"collections"`
	ResponseTimeMS int64                       `json:"responseTimeMs"`
}

// criticalCollections are probed by CheckHealth.
var criticalCollections = []string{"customers", "quote_records", "analysis_results", "analytics_events"}

// CheckHealth issues one single-row query per critical collection and
// reports per-collection status plus overall status and response time.
func (s *Store) CheckHealth() HealthReport {
	start := time.Now()
	report := HealthReport{
		Status:      "healthy",
		Collections: make(map[string]CollectionHealth, len(criticalCollections)),
	}

	for _, name := range criticalCollections {
		var probe []map[string]any
		status := "ok"
		if err := s.db.Table(name).Limit(1).Find(&probe).Error; err != nil {
			status = "error"
			report.Status = "degraded"
		}
		var count int64
		if status == "ok" {
			if err := s.db.Table(name).Count(&count).Error; err != nil {
				status = "error"
				report.Status = "degraded"
			}
		}
		report.Collections[name] = CollectionHealth{Status: status, RecordCount: count}
	}

	report.ResponseTimeMS = time.Since(start).Milliseconds()
	return report
}
