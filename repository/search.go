package repository

import (
	"encoding/json"
	"strings"

	"go.uber.org/zap"
)

// DefaultSearchLimit caps matches returned per collection.
const DefaultSearchLimit = 10

// scanCap bounds how many rows per collection the scan will ever touch.
const scanCap = 200

// searchableCollections is the closed set SearchAll may scan.
var searchableCollections = []string{"customers", "quote_records", "analysis_results", "analytics_events"}

// SearchMatch is one matching record with its collection.
type SearchMatch struct {
	Collection string         `json:"collection"`
	Record     map[string]any `json:"record"`
}

// SearchAll scans a bounded set of collections for records whose stringified
// values contain term, case-insensitively. This is a linear scan over capped
// row counts; it is an operator convenience, not a query surface.
func (s *Store) SearchAll(term string, collections []string, limitPerCollection int) map[string][]SearchMatch {
	term = strings.ToLower(strings.TrimSpace(term))
	results := make(map[string][]SearchMatch)
	if term == "" {
		return results
	}
	if limitPerCollection <= 0 {
		limitPerCollection = DefaultSearchLimit
	}
	if len(collections) == 0 {
		collections = searchableCollections
	}

	for _, name := range collections {
		if !isSearchable(name) {
			continue
		}
		var rows []map[string]any
		if err := s.db.Table(name).Limit(scanCap).Find(&rows).Error; err != nil {
			s.log.Warn("search scan failed", zap.String("collection", name), zap.Error(err))
			continue
		}
		var matches []SearchMatch
		for _, row := range rows {
			if rowContains(row, term) {
				matches = append(matches, SearchMatch{Collection: name, Record: row})
				if len(matches) >= limitPerCollection {
					break
				}
			}
		}
		if len(matches) > 0 {
			results[name] = matches
		}
	}
	return results
}

func isSearchable(name string) bool {
	for _, c := range searchableCollections {
		if c == name {
			return true
		}
	}
	return false
}

func rowContains(row map[string]any, term string) bool {
	for _, v := range row {
		if v == nil {
			continue
		}
		var text string
		switch s := v.(type) {
		case string:
			text = s
		case []byte:
			text = string(s)
		default:
			b, err := json.Marshal(v)
			if err != nil {
				continue
			}
			text = string(b)
		}
		if strings.Contains(strings.ToLower(text), term) {
			return true
		}
	}
	return false
}
