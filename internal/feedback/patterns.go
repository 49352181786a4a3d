package feedback

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/concierge/concierge/internal/models"
)

// PatternMiner scans recent case history for recurring categories of
// outcome. A pattern is emitted only past a minimum sample count, which
// keeps small samples from minting spurious rules.
type PatternMiner struct {
	cases      CaseStore
	patterns   PatternStore
	window     int
	minSamples int
}

// NewPatternMiner creates a miner over the case and pattern stores
func NewPatternMiner(cases CaseStore, patterns PatternStore, config *Config) *PatternMiner {
	if config == nil {
		config = DefaultConfig()
	}
	return &PatternMiner{
		cases:      cases,
		patterns:   patterns,
		window:     config.MiningWindow,
		minSamples: config.MinPatternSamples,
	}
}

// categoryMatch reports whether an entry belongs to a pattern category
func categoryMatch(t models.PatternType, e *models.FeedbackEntry) bool {
	switch t {
	case models.PatternFailure:
		return !e.Outcome.ActualSuccess
	case models.PatternSuccess:
		return e.Outcome.ActualSuccess && e.Accuracy >= 80
	case models.PatternDelay:
		pm, okp := ParseMagnitude(e.Prediction.Timeline)
		om, oko := ParseMagnitude(e.Outcome.ActualTimeline)
		return okp && oko && om > pm
	case models.PatternCostOverrun:
		pm, okp := ParseMagnitude(e.Prediction.Investment)
		om, oko := ParseMagnitude(e.Outcome.ActualCost)
		return okp && oko && om > pm*1.1
	}
	return false
}

// triggeredCategories lists the pattern categories a new entry belongs
// to; each triggers one mining pass
func triggeredCategories(e *models.FeedbackEntry) []models.PatternType {
	all := []models.PatternType{
		models.PatternFailure,
		models.PatternSuccess,
		models.PatternDelay,
		models.PatternCostOverrun,
	}
	var out []models.PatternType
	for _, t := range all {
		if categoryMatch(t, e) {
			out = append(out, t)
		}
	}
	return out
}

// MineForEntry runs one mining pass per category the new entry triggers.
// Each emitted pattern gets a fresh ID; earlier passes are superseded,
// never rewritten, so pattern evolution stays auditable.
func (m *PatternMiner) MineForEntry(ctx context.Context, entry *models.FeedbackEntry) ([]*models.Pattern, error) {
	var mined []*models.Pattern

	for _, category := range triggeredCategories(entry) {
		pattern, err := m.mine(ctx, category)
		if err != nil {
			return mined, fmt.Errorf("mining %s patterns: %w", category, err)
		}
		if pattern == nil {
			continue
		}
		if err := m.patterns.StorePattern(ctx, pattern); err != nil {
			return mined, fmt.Errorf("storing %s pattern: %w", category, err)
		}
		mined = append(mined, pattern)
	}

	return mined, nil
}

// mine inspects the most recent window of cases for one category. It
// returns nil when the match count is at or below the minimum sample
// threshold.
func (m *PatternMiner) mine(ctx context.Context, category models.PatternType) (*models.Pattern, error) {
	recent, err := m.cases.Recent(ctx, nil, m.window)
	if err != nil {
		return nil, err
	}

	matched := 0
	for _, e := range recent {
		if categoryMatch(category, e) {
			matched++
		}
	}

	if matched <= m.minSamples || len(recent) == 0 {
		return nil, nil
	}

	return &models.Pattern{
		ID:             uuid.NewString(),
		Type:           category,
		Frequency:      matched,
		Conditions:     categoryConditions(category),
		Recommendation: categoryRecommendation(category),
		Confidence:     float64(matched) / float64(len(recent)),
		MinedAt:        time.Now().UTC(),
	}, nil
}

func categoryConditions(t models.PatternType) []models.Condition {
	switch t {
	case models.PatternFailure:
		return []models.Condition{
			{Variable: "actual_success", Operator: models.OpEquals, Value: false},
		}
	case models.PatternSuccess:
		return []models.Condition{
			{Variable: "actual_success", Operator: models.OpEquals, Value: true},
			{Variable: "accuracy", Operator: models.OpGreater, Value: 79},
		}
	case models.PatternDelay:
		return []models.Condition{
			{Variable: "actual_timeline", Operator: models.OpGreater, Value: "predicted_timeline"},
		}
	case models.PatternCostOverrun:
		return []models.Condition{
			{Variable: "actual_cost", Operator: models.OpGreater, Value: "predicted_investment"},
		}
	}
	return nil
}

func categoryRecommendation(t models.PatternType) string {
	switch t {
	case models.PatternFailure:
		return "recent cases are failing at an elevated rate; review intake criteria before committing to success predictions"
	case models.PatternSuccess:
		return "current prediction parameters are performing well for this case mix"
	case models.PatternDelay:
		return "timelines are consistently underestimated; include processing backlog in estimates"
	case models.PatternCostOverrun:
		return "costs are consistently exceeding quoted investment; revisit fee assumptions"
	}
	return ""
}
