package reflection

import (
	"strings"

	"github.com/longregen/gepa/internal/domain/models"
)

// Confidence scoring increments. Every signal contributes a saturating,
// non-negative amount, so adding any one positive signal while holding the
// others constant can never lower the tier.
const (
	analysisLongBonus  = 0.15 // analysis >= 160 chars
	analysisShortBonus = 0.10 // analysis >= 80 chars
	analysisAnyBonus   = 0.05 // any non-empty analysis

	rootCauseBonus  = 0.05 // per root cause, up to 4
	suggestionBonus = 0.06 // per suggestion, up to 5
	specificBonus   = 0.07 // per suggestion carrying specific text, up to 3
	highPrioBonus   = 0.05 // per high-priority suggestion, up to 3

	highThreshold   = 0.65
	mediumThreshold = 0.35
)

// ScoreConfidence buckets a parsed reflection into a confidence tier.
func ScoreConfidence(parsed *models.ParsedReflection) models.ConfidenceTier {
	score := 0.0

	analysisLen := len(strings.TrimSpace(parsed.Analysis))
	switch {
	case analysisLen >= 160:
		score += analysisLongBonus
	case analysisLen >= 80:
		score += analysisShortBonus
	case analysisLen > 0:
		score += analysisAnyBonus
	}

	score += rootCauseBonus * float64(capAt(len(parsed.RootCauses), 4))
	score += suggestionBonus * float64(capAt(len(parsed.Suggestions), 5))

	specific := 0
	highPrio := 0
	for _, sug := range parsed.Suggestions {
		if strings.TrimSpace(sug.SpecificText) != "" {
			specific++
		}
		if sug.Priority == models.PriorityHigh {
			highPrio++
		}
	}
	score += specificBonus * float64(capAt(specific, 3))
	score += highPrioBonus * float64(capAt(highPrio, 3))

	switch {
	case score >= highThreshold:
		return models.ConfidenceHigh
	case score >= mediumThreshold:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

// NeedsClarification reports whether the reflection is too vague to act on
// without another round with the reflector: low confidence, fewer than two
// root causes, or a majority of suggestions that are both unspecific and
// tersely described.
func NeedsClarification(parsed *models.ParsedReflection) bool {
	if parsed.Confidence == "" {
		parsed.Confidence = ScoreConfidence(parsed)
	}
	if parsed.Confidence == models.ConfidenceLow {
		return true
	}
	if len(parsed.RootCauses) < 2 {
		return true
	}

	vague := 0
	for _, sug := range parsed.Suggestions {
		if strings.TrimSpace(sug.SpecificText) == "" && len(strings.Fields(sug.Description)) < 5 {
			vague++
		}
	}
	return len(parsed.Suggestions) > 0 && vague*2 > len(parsed.Suggestions)
}

func capAt(n, maximum int) int {
	if n > maximum {
		return maximum
	}
	return n
}
