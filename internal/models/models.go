package models

import "time"

// Topic identifies a knowledge domain served by a provider
type Topic string

const (
	TopicBusinessSetup Topic = "business_setup"
	TopicLegal         Topic = "legal"
	TopicTax           Topic = "tax"
	TopicImmigration   Topic = "immigration"
	TopicLicensing     Topic = "licensing"
	TopicProperty      Topic = "property"
)

// Urgency describes how quickly a query needs an answer
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyNormal Urgency = "normal"
	UrgencyHigh   Urgency = "high"
)

// Formality describes the register the response should use
type Formality string

const (
	FormalityCasual     Formality = "casual"
	FormalityBalanced   Formality = "balanced"
	FormalityRespectful Formality = "respectful"
)

// Intent is the structured classification of an incoming query.
// It is produced once per query and never persisted.
type Intent struct {
	Primary   Topic     `json:"primary"` // empty when no domain matched
	Secondary []Topic   `json:"secondary,omitempty"`
	Urgency   Urgency   `json:"urgency"`
	Formality Formality `json:"formality"`
}

// HasPrimary reports whether domain detection matched a topic
func (i Intent) HasPrimary() bool { return i.Primary != "" }

// UserContext carries per-user request context into classification and
// formatting
type UserContext struct {
	UserID      string  `json:"user_id"`
	Language    string  `json:"language"` // "en" or "id"
	PriorIntent *Intent `json:"prior_intent,omitempty"`
}

// ProviderResult is one provider's answer for one consultation.
// Payload is opaque to everything except the provider that produced it;
// the synthesizer only reads the confidence/sources envelope.
type ProviderResult struct {
	ProviderID string                 `json:"provider_id"`
	Topic      Topic                  `json:"topic"`
	Payload    map[string]interface{} `json:"payload"`
	Confidence float64                `json:"confidence"` // [0,1]
	Sources    []string               `json:"sources"`
}

// SynthesizedResponse is the merged answer for one query
type SynthesizedResponse struct {
	Text                string            `json:"text"`
	PerDomainConfidence map[Topic]float64 `json:"per_domain_confidence"`
	SourcesUsed         map[Topic]string  `json:"sources_used"`
	Degraded            bool              `json:"degraded"`
}

// Prediction is a forecast made before a case concludes
type Prediction struct {
	Timeline   string   `json:"timeline"`
	Success    bool     `json:"success"`
	Confidence float64  `json:"confidence"` // [0,1]
	Risks      []string `json:"risks"`
	Investment string   `json:"investment"`
}

// Outcome is the ground truth recorded after a case concludes
type Outcome struct {
	ActualTimeline     string   `json:"actual_timeline"`
	ActualSuccess      bool     `json:"actual_success"`
	ActualProblems     []string `json:"actual_problems"`
	ActualCost         string   `json:"actual_cost"`
	ClientSatisfaction int      `json:"client_satisfaction"` // 1-10
}

// Adjustment is a concrete parameter change applied to the live
// configuration store. Re-applying the same Adjustment is idempotent:
// NewValue is an absolute target, not a delta.
type Adjustment struct {
	Component string      `json:"component"`
	Parameter string      `json:"parameter"`
	OldValue  interface{} `json:"old_value"`
	NewValue  interface{} `json:"new_value"`
	Reason    string      `json:"reason"`
}

// Key returns the configuration key this adjustment targets
func (a Adjustment) Key() string { return a.Component + "." + a.Parameter }

// FeedbackEntry records one prediction/outcome comparison. Entries are
// append-only: once written they are never mutated.
type FeedbackEntry struct {
	ID            string       `json:"id"`
	Timestamp     time.Time    `json:"timestamp"`
	CaseID        string       `json:"case_id"`
	Prediction    Prediction   `json:"prediction"`
	Outcome       Outcome      `json:"outcome"`
	Accuracy      int          `json:"accuracy"` // [0,100]
	LessonLearned string       `json:"lesson_learned"`
	Adjustments   []Adjustment `json:"adjustments"`
}

// PatternType categorizes a mined pattern
type PatternType string

const (
	PatternSuccess     PatternType = "success"
	PatternFailure     PatternType = "failure"
	PatternDelay       PatternType = "delay"
	PatternCostOverrun PatternType = "cost_overrun"
)

// ConditionOperator is the comparison used by a pattern condition
type ConditionOperator string

const (
	OpEquals   ConditionOperator = "equals"
	OpContains ConditionOperator = "contains"
	OpGreater  ConditionOperator = "greater"
	OpLess     ConditionOperator = "less"
)

// Condition is one clause of a mined pattern
type Condition struct {
	Variable string            `json:"variable"`
	Operator ConditionOperator `json:"operator"`
	Value    interface{}       `json:"value"`
}

// Pattern is a recurring condition set correlated with a case category.
// A new mining pass creates a new Pattern rather than mutating prior ones,
// so pattern evolution stays queryable.
type Pattern struct {
	ID             string      `json:"id"`
	Type           PatternType `json:"type"`
	Frequency      int         `json:"frequency"`
	Conditions     []Condition `json:"conditions"`
	Recommendation string      `json:"recommendation"`
	Confidence     float64     `json:"confidence"` // matched / queried
	MinedAt        time.Time   `json:"mined_at"`
}

// Improvement compares accuracy across two time windows
type Improvement struct {
	Metric        string  `json:"metric"`
	OlderMean     float64 `json:"older_mean"`
	RecentMean    float64 `json:"recent_mean"`
	Delta         float64 `json:"delta"`
	OlderSamples  int     `json:"older_samples"`
	RecentSamples int     `json:"recent_samples"`
}

// MetricsSnapshot is a batch-recomputed view over the full feedback
// history. Snapshots are replaced whole, never partially mutated.
type MetricsSnapshot struct {
	TotalCases             int           `json:"total_cases"`
	AccuracyRate           float64       `json:"accuracy_rate"`
	TimelinePrecision      float64       `json:"timeline_precision"`
	CostPrecision          float64       `json:"cost_precision"`
	RiskPredictionAccuracy float64       `json:"risk_prediction_accuracy"`
	Improvements           []Improvement `json:"improvements"`
	ComputedAt             time.Time     `json:"computed_at"`
}
