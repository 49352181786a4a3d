package agent

import (
	"context"
	"time"

	"github.com/concierge/concierge/internal/models"
)

// Provider is a specialist knowledge source consulted for a narrow topic.
// Implementations are independently swappable and mockable; the
// coordinator never looks inside a provider's payload.
type Provider interface {
	ID() string
	Topic() models.Topic
	Query(ctx context.Context, intent models.Intent) (*models.ProviderResult, error)
	TimeoutHint() time.Duration
}

// Classifier maps raw query text and prior context to an Intent.
// Classification must be deterministic: identical input always yields an
// identical Intent.
type Classifier interface {
	Classify(text string, userCtx models.UserContext) models.Intent
}

// Registry maps an intent to the ordered provider set that should answer it
type Registry interface {
	SelectProviders(intent models.Intent) []string
	Provider(id string) (Provider, bool)
	Order(id string) int
}

// Coordinator issues one concurrent consultation round
type Coordinator interface {
	Consult(ctx context.Context, providerIDs []string, intent models.Intent) *ConsultationOutcome
}

// ConsultationOutcome collects one round of provider calls. Results may be
// fewer than the requested providers; failed provider IDs are listed
// separately.
type ConsultationOutcome struct {
	Results  []*models.ProviderResult
	Failed   []string
	Duration time.Duration
}

// Synthesizer merges provider results into a single response
type Synthesizer interface {
	Synthesize(results []*models.ProviderResult, intent models.Intent, userCtx models.UserContext, degraded bool) models.SynthesizedResponse
}

// QueryRequest is one incoming user query
type QueryRequest struct {
	Query   string
	Context models.UserContext
}

// QueryResponse is the orchestrator's answer for one query
type QueryResponse struct {
	Answer             models.SynthesizedResponse
	IntentUsed         models.Intent
	ProvidersConsulted []string
	ProvidersFailed    []string
	Degraded           bool
	Duration           time.Duration
}

// Config holds query-path configuration
type Config struct {
	ConsultTimeout   time.Duration // per-provider bound for one round
	ProviderRate     float64       // provider calls per second, per provider
	ProviderBurst    int
	CacheTTL         time.Duration // response cache TTL; 0 disables caching
	DefaultProviders []string      // used when classification finds no domain
}

// DefaultConfig returns default query-path configuration
func DefaultConfig() *Config {
	return &Config{
		ConsultTimeout:   3 * time.Second,
		ProviderRate:     25,
		ProviderBurst:    10,
		CacheTTL:         5 * time.Minute,
		DefaultProviders: []string{"business", "legal"},
	}
}
