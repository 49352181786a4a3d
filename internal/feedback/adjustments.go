package feedback

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/concierge/concierge/internal/models"
)

// AdjustmentApplier converts low-accuracy feedback into parameter nudges
// on the shared configuration store. Every rule writes an absolute target
// value, so re-applying the same trigger converges instead of compounding.
type AdjustmentApplier struct {
	config    ConfigStore
	threshold int
	log       *logrus.Logger

	// Serializes config writes across concurrent recordings: the store
	// is shared mutable state and a read-modify-write without this lock
	// loses updates.
	mu sync.Mutex
}

// NewAdjustmentApplier creates an applier over the config store
func NewAdjustmentApplier(config ConfigStore, threshold int, log *logrus.Logger) *AdjustmentApplier {
	if log == nil {
		log = logrus.New()
	}
	return &AdjustmentApplier{
		config:    config,
		threshold: threshold,
		log:       log,
	}
}

// adjustmentRule inspects one prediction/outcome delta and emits the
// target parameter value when it triggers
type adjustmentRule struct {
	component string
	parameter string
	target    float64
	reason    string
	triggered func(models.Prediction, models.Outcome) bool
}

var adjustmentRules = []adjustmentRule{
	{
		component: "timeline_predictor",
		parameter: "buffer_percentage",
		target:    20,
		reason:    "actual timeline exceeded the prediction; pad future timeline estimates",
		triggered: func(p models.Prediction, o models.Outcome) bool {
			pm, okp := ParseMagnitude(p.Timeline)
			om, oko := ParseMagnitude(o.ActualTimeline)
			return okp && oko && om > pm
		},
	},
	{
		component: "risk_assessor",
		parameter: "breadth_factor",
		target:    1.5,
		reason:    "problems occurred that were not on the predicted risk list; widen risk coverage",
		triggered: func(p models.Prediction, o models.Outcome) bool {
			for _, problem := range o.ActualProblems {
				if !matchesAnyRisk(problem, p.Risks) {
					return true
				}
			}
			return false
		},
	},
	{
		component: "response_synthesizer",
		parameter: "confidence_discount",
		target:    0.8,
		reason:    "high confidence on a failed case; discount stated confidence",
		triggered: func(p models.Prediction, o models.Outcome) bool {
			return p.Confidence > 0.7 && !o.ActualSuccess
		},
	},
}

// Apply evaluates the rule set for an entry and writes every triggered
// adjustment to the config store. Entries at or above the accuracy
// threshold produce nothing.
func (a *AdjustmentApplier) Apply(ctx context.Context, prediction models.Prediction, outcome models.Outcome, accuracy int) ([]models.Adjustment, error) {
	if accuracy >= a.threshold {
		return nil, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	var applied []models.Adjustment
	for _, rule := range adjustmentRules {
		if !rule.triggered(prediction, outcome) {
			continue
		}

		key := rule.component + "." + rule.parameter
		oldValue, found, err := a.config.Get(ctx, key)
		if err != nil {
			return applied, fmt.Errorf("reading %s: %w", key, err)
		}

		adj := models.Adjustment{
			Component: rule.component,
			Parameter: rule.parameter,
			NewValue:  rule.target,
			Reason:    rule.reason,
		}
		if found {
			adj.OldValue = oldValue
		}

		if err := a.config.Set(ctx, key, rule.target); err != nil {
			return applied, fmt.Errorf("writing %s: %w", key, err)
		}

		a.log.WithFields(logrus.Fields{
			"key":      key,
			"value":    rule.target,
			"accuracy": accuracy,
		}).Info("calibration parameter adjusted")

		applied = append(applied, adj)
	}

	return applied, nil
}
