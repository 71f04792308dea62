// services/lead.go
package services

import (
	"fmt"
	"time"

	"windowquote-backend/models"
	"windowquote-backend/pricing"
)

// Quote-total thresholds for lead priority. The high threshold is the
// adopted 5000 figure; callers may override per deployment.
const (
	HighValueThreshold   = 5000.0
	MediumValueThreshold = 2000.0
)

// Follow-up delays by priority.
const (
	followUpHigh   = 2 * time.Hour
	followUpMedium = 24 * time.Hour
	followUpLow    = 72 * time.Hour
)

// DerivePriority recomputes lead priority from the current quote total and
// engagement signals. It is a derived value, never caller-supplied.
func DerivePriority(total float64, mode string, hasAIAnalysis bool) string {
	switch {
	case total >= HighValueThreshold:
		return models.PriorityHigh
	case total >= MediumValueThreshold:
		return models.PriorityMedium
	case mode == "mobile" || hasAIAnalysis:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}

// FollowUpTime schedules the next outreach from priority and engagement.
func FollowUpTime(now time.Time, priority string, engaged bool) time.Time {
	switch {
	case priority == models.PriorityHigh || engaged:
		return now.Add(followUpHigh)
	case priority == models.PriorityMedium:
		return now.Add(followUpMedium)
	default:
		return now.Add(followUpLow)
	}
}

// valueTag buckets a quote total.
func valueTag(total float64) string {
	switch {
	case total >= HighValueThreshold:
		return "high-value"
	case total >= MediumValueThreshold:
		return "medium-value"
	default:
		return "low-value"
	}
}

// BuildTags derives the customer tag set from session context, analysis
// presence, quote total and the window specs.
func BuildTags(source, device, mode string, hasAIAnalysis bool, total float64, specs []pricing.Spec) []string {
	tags := []string{
		"source:" + orUnknown(source),
		"device:" + orUnknown(device),
		"mode:" + orUnknown(mode),
	}
	if hasAIAnalysis {
		tags = append(tags, "ai-analyzed")
	}
	tags = append(tags, valueTag(total))

	seenType := map[string]bool{}
	seenMaterial := map[string]bool{}
	for _, s := range specs {
		if s.WindowType != "" && !seenType[s.WindowType] {
			seenType[s.WindowType] = true
			tags = append(tags, "window-type:"+s.WindowType)
		}
		if s.Material != "" && !seenMaterial[s.Material] {
			seenMaterial[s.Material] = true
			tags = append(tags, "material:"+s.Material)
		}
	}
	if len(specs) > 0 {
		tags = append(tags, fmt.Sprintf("windows:%d", len(specs)))
	}
	return tags
}

// Completeness is the percentage of the four contact fields present.
func Completeness(name, email, phone, address string) int {
	present := 0
	for _, f := range []string{name, email, phone, address} {
		if f != "" {
			present++
		}
	}
	return present * 100 / 4
}

func orUnknown(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
