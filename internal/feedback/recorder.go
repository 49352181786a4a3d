package feedback

import (
	"fmt"
	"strings"

	"github.com/concierge/concierge/internal/models"
)

// deriveLesson builds the human-readable lesson for an entry from an
// ordered rule list: success mismatch first, then timeline drift, then
// problems nobody predicted.
func deriveLesson(prediction models.Prediction, outcome models.Outcome) string {
	var lessons []string

	if prediction.Success != outcome.ActualSuccess {
		if prediction.Success {
			lessons = append(lessons, "predicted success but the case failed")
		} else {
			lessons = append(lessons, "predicted failure but the case succeeded")
		}
	}

	pm, okp := ParseMagnitude(prediction.Timeline)
	om, oko := ParseMagnitude(outcome.ActualTimeline)
	switch {
	case okp && oko && om > pm:
		lessons = append(lessons, fmt.Sprintf("timeline was underestimated: predicted %s, actual %s", prediction.Timeline, outcome.ActualTimeline))
	case okp && oko && om < pm:
		lessons = append(lessons, fmt.Sprintf("timeline was overestimated: predicted %s, actual %s", prediction.Timeline, outcome.ActualTimeline))
	}

	if unexpected := unexpectedProblems(prediction.Risks, outcome.ActualProblems); len(unexpected) > 0 {
		lessons = append(lessons, "unexpected problems encountered: "+strings.Join(unexpected, ", "))
	}

	if len(lessons) == 0 {
		return "prediction matched the outcome"
	}
	return strings.Join(lessons, "; ")
}

// unexpectedProblems lists actual problems absent from the predicted
// risk list
func unexpectedProblems(predicted, actual []string) []string {
	var out []string
	for _, problem := range actual {
		if !matchesAnyRisk(problem, predicted) {
			out = append(out, problem)
		}
	}
	return out
}

// validateFeedback checks the inputs of a recording call
func validateFeedback(caseID string, prediction *models.Prediction, outcome *models.Outcome) error {
	if strings.TrimSpace(caseID) == "" {
		return &ValidationError{Field: "caseId", Reason: "is required"}
	}
	if prediction == nil {
		return &ValidationError{Field: "prediction", Reason: "is required"}
	}
	if outcome == nil {
		return &ValidationError{Field: "outcome", Reason: "is required"}
	}
	return nil
}
