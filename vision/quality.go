package vision

// Quality score weights. Each addend contributes only when the field is
// present and not "unknown"; confidence contributes when above 70.
const (
	weightMeasurements    = 0.3
	weightWindowType      = 0.2
	weightMaterial        = 0.2
	weightCondition       = 0.1
	weightConfidence      = 0.1
	weightRecommendations = 0.1

	confidenceFloor = 70.0
)

// QualityScore derives a 0-100 score from how complete an analysis is.
func QualityScore(a *Analysis) float64 {
	if a == nil {
		return 0
	}
	score := 0.0
	if a.EstimatedWidth > 0 && a.EstimatedHeight > 0 {
		score += weightMeasurements
	}
	if known(a.WindowType) {
		score += weightWindowType
	}
	if known(a.Material) {
		score += weightMaterial
	}
	if known(a.Condition) {
		score += weightCondition
	}
	if a.Confidence > confidenceFloor {
		score += weightConfidence
	}
	if len(a.Recommendations) > 0 {
		score += weightRecommendations
	}
	return score * 100
}

func known(field string) bool {
	return field != "" && field != "unknown"
}
