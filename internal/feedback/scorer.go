package feedback

import (
	"math"
	"strings"

	"github.com/concierge/concierge/internal/models"
)

// Accuracy sub-metric weights. Success match dominates; the three
// similarity metrics share the remainder equally.
const (
	weightSuccess  = 0.4
	weightTimeline = 0.2
	weightCost     = 0.2
	weightRisk     = 0.2
)

// ScoreAccuracy computes a 0-100 accuracy score from a prediction/outcome
// pair. It is a pure function: every stored entry's accuracy is
// recomputable from its pair alone.
func ScoreAccuracy(prediction models.Prediction, outcome models.Outcome) int {
	successScore := 0.0
	if prediction.Success == outcome.ActualSuccess {
		successScore = 1
	}

	score := weightSuccess*successScore +
		weightTimeline*MagnitudeSimilarity(prediction.Timeline, outcome.ActualTimeline) +
		weightCost*MagnitudeSimilarity(prediction.Investment, outcome.ActualCost) +
		weightRisk*RiskSetSimilarity(prediction.Risks, outcome.ActualProblems)

	return int(math.Round(100 * score))
}

// ParseMagnitude extracts the first integer found in free text. The second
// return value distinguishes "no number present" from a genuine zero, so
// comparison code has one well-defined not-comparable case.
func ParseMagnitude(text string) (float64, bool) {
	start := -1
	for i, r := range text {
		if r >= '0' && r <= '9' {
			if start == -1 {
				start = i
			}
			continue
		}
		if start != -1 {
			return digitsToFloat(text[start:i]), true
		}
	}
	if start != -1 {
		return digitsToFloat(text[start:]), true
	}
	return 0, false
}

func digitsToFloat(digits string) float64 {
	v := 0.0
	for _, r := range digits {
		v = v*10 + float64(r-'0')
	}
	return v
}

// MagnitudeSimilarity compares two free-text numeric magnitudes as
// min/max, yielding a symmetric value in [0,1]. Unparsable text and zero
// magnitudes are not comparable and score 0.
func MagnitudeSimilarity(a, b string) float64 {
	ma, oka := ParseMagnitude(a)
	mb, okb := ParseMagnitude(b)
	if !oka || !okb || ma == 0 || mb == 0 {
		return 0
	}
	if ma > mb {
		ma, mb = mb, ma
	}
	return ma / mb
}

// RiskSetSimilarity compares a predicted risk list against actual
// problems: the bidirectional-substring intersection size over the larger
// list. Two empty lists are a perfect match; one empty list against a
// non-empty one scores 0.
func RiskSetSimilarity(predicted, actual []string) float64 {
	if len(predicted) == 0 && len(actual) == 0 {
		return 1
	}
	if len(predicted) == 0 || len(actual) == 0 {
		return 0
	}

	matched := 0
	for _, p := range predicted {
		if matchesAnyRisk(p, actual) {
			matched++
		}
	}

	larger := len(predicted)
	if len(actual) > larger {
		larger = len(actual)
	}
	return float64(matched) / float64(larger)
}

// matchesAnyRisk reports whether risk matches any candidate in either
// substring direction, case-insensitively
func matchesAnyRisk(risk string, candidates []string) bool {
	r := strings.ToLower(strings.TrimSpace(risk))
	for _, c := range candidates {
		cl := strings.ToLower(strings.TrimSpace(c))
		if strings.Contains(r, cl) || strings.Contains(cl, r) {
			return true
		}
	}
	return false
}
