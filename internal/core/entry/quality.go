package entry

// Quality tiers for reporting.
const (
	TierExcellent  = "excellent"  // >= 90
	TierGood       = "good"       // 75-89
	TierAcceptable = "acceptable" // 60-74
	TierPoor       = "poor"       // 40-59
	TierCritical   = "critical"   // < 40
)

// QualityThreshold is the minimum score a shared-tier submission should
// carry; lower scores require explicit confirmation.
const QualityThreshold = 75

// Quality computes the deterministic 0-100 quality score of an entry:
//
//	40  required fields present (pro-rated)
//	15  solution code non-empty
//	15  solution explanation non-empty
//	20  prevention non-empty
//	 5  tags non-empty
//	 5  symptoms or root_cause present
//
// The same entry always yields the same score.
func Quality(e *Entry) int {
	required := requiredErrorFields
	if e.Kind == KindPattern {
		required = requiredPatternFields
	}

	present := 0
	for _, field := range required {
		if hasField(e, field) {
			present++
		}
	}

	score := 40 * present / len(required)

	if e.Solution != nil {
		if e.Solution.Code != "" {
			score += 15
		}
		if e.Solution.Explanation != "" {
			score += 15
		}
	}

	if e.Prevention != "" {
		score += 20
	}

	if len(e.Tags) > 0 {
		score += 5
	}
	if len(e.Symptoms) > 0 || e.RootCause != "" {
		score += 5
	}

	if score > 100 {
		score = 100
	}
	return score
}

// QualityTier maps a score to its reporting tier.
func QualityTier(score int) string {
	switch {
	case score >= 90:
		return TierExcellent
	case score >= 75:
		return TierGood
	case score >= 60:
		return TierAcceptable
	case score >= 40:
		return TierPoor
	default:
		return TierCritical
	}
}
