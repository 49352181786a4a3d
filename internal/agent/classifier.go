package agent

import (
	"strings"

	"github.com/concierge/concierge/internal/models"
)

// KeywordClassifier classifies queries with ordered keyword rules.
// It is a pure function of its input: no randomness, no clock reads.
// Time-of-day flourishes belong to response formatting, not here.
type KeywordClassifier struct{}

// NewKeywordClassifier creates a new rule-based classifier
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

// domainRule binds a topic to its curated keyword set. Rules are scanned
// in order; the first matching topic becomes the primary intent and any
// further matches become secondary.
type domainRule struct {
	topic    models.Topic
	keywords []string
}

var domainRules = []domainRule{
	{models.TopicBusinessSetup, []string{
		"company", "business", "pt pma", "pt ", "setup", "incorporat",
		"restaurant", "cafe", "shop", "open a", "start a", "kbli",
	}},
	{models.TopicLicensing, []string{
		"license", "licence", "permit", "oss", "nib", "certification",
	}},
	{models.TopicTax, []string{
		"tax", "npwp", "vat", "ppn", "pph", "bpjs", "accounting", "payroll",
	}},
	{models.TopicImmigration, []string{
		"visa", "kitas", "kitap", "passport", "immigration", "sponsor",
		"work permit",
	}},
	{models.TopicLegal, []string{
		"legal", "contract", "agreement", "notary", "lawsuit", "dispute",
		"compliance", "regulation",
	}},
	{models.TopicProperty, []string{
		"property", "land", "lease", "villa", "building", "zoning",
		"hak pakai", "freehold", "leasehold",
	}},
}

var urgencyHigh = []string{
	"urgent", "asap", "immediately", "emergency", "right now", "today",
	"deadline", "segera",
}

var urgencyLow = []string{
	"whenever", "no rush", "someday", "curious", "just wondering",
	"eventually",
}

var formalityCasual = []string{"hey", "hi ", "yo ", "bro", "thx", "pls"}

var formalityRespectful = []string{
	"dear", "sir", "madam", "kindly", "would you please", "bapak", "ibu",
}

// Classify maps raw text and prior context into an Intent. Rules are
// ordered and first-match-wins per category. Unmatched text yields an
// Intent with no primary topic, which routes to the default provider set.
func (c *KeywordClassifier) Classify(text string, userCtx models.UserContext) models.Intent {
	lower := strings.ToLower(text)

	intent := models.Intent{
		Urgency:   classifyUrgency(lower),
		Formality: classifyFormality(lower),
	}

	for _, rule := range domainRules {
		if !matchesAny(lower, rule.keywords) {
			continue
		}
		if !intent.HasPrimary() {
			intent.Primary = rule.topic
		} else {
			intent.Secondary = append(intent.Secondary, rule.topic)
		}
	}

	// A query with no domain signal of its own continues the prior topic
	if !intent.HasPrimary() && userCtx.PriorIntent != nil {
		intent.Primary = userCtx.PriorIntent.Primary
	}

	return intent
}

func classifyUrgency(lower string) models.Urgency {
	if matchesAny(lower, urgencyHigh) {
		return models.UrgencyHigh
	}
	if matchesAny(lower, urgencyLow) {
		return models.UrgencyLow
	}
	return models.UrgencyNormal
}

func classifyFormality(lower string) models.Formality {
	if matchesAny(lower, formalityCasual) {
		return models.FormalityCasual
	}
	if matchesAny(lower, formalityRespectful) {
		return models.FormalityRespectful
	}
	return models.FormalityBalanced
}

func matchesAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
