package agent

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Orchestrator runs the full query path: classify, select providers,
// consult concurrently, synthesize. Provider-level failures never surface
// to the caller; the worst case is a degraded fallback answer.
type Orchestrator struct {
	classifier  Classifier
	registry    Registry
	coordinator Coordinator
	synthesizer Synthesizer
	cache       *ResponseCache
	log         *logrus.Logger
}

// NewOrchestrator wires the query path together. config may be nil for
// defaults; configReader may be nil when no calibration store is attached.
func NewOrchestrator(providers []Provider, config *Config, configReader ConfigReader, log *logrus.Logger) *Orchestrator {
	if config == nil {
		config = DefaultConfig()
	}
	if log == nil {
		log = logrus.New()
	}

	registry := NewStaticRegistry(providers, config.DefaultProviders)

	var cache *ResponseCache
	if config.CacheTTL > 0 {
		cache = NewResponseCache(config.CacheTTL)
	}

	return &Orchestrator{
		classifier:  NewKeywordClassifier(),
		registry:    registry,
		coordinator: NewConsultationCoordinator(registry, config, log),
		synthesizer: NewWeightedSynthesizer(registry, configReader, NewFormatter()),
		cache:       cache,
		log:         log,
	}
}

// Ask answers one query. It returns an error only on caller cancellation;
// provider failures degrade the response instead.
func (o *Orchestrator) Ask(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	intent := o.classifier.Classify(req.Query, req.Context)

	if o.cache != nil {
		if cached, ok := o.cache.Get(cacheKey(req)); ok {
			resp := *cached
			resp.Duration = time.Since(start)
			return &resp, nil
		}
	}

	providerIDs := o.registry.SelectProviders(intent)
	outcome := o.coordinator.Consult(ctx, providerIDs, intent)

	// Degraded whenever any requested provider did not answer, including
	// the case where a topic's sole provider failed.
	degraded := len(outcome.Results) < len(providerIDs)

	answer := o.synthesizer.Synthesize(outcome.Results, intent, req.Context, degraded)

	resp := &QueryResponse{
		Answer:             answer,
		IntentUsed:         intent,
		ProvidersConsulted: providerIDs,
		ProvidersFailed:    outcome.Failed,
		Degraded:           answer.Degraded,
		Duration:           time.Since(start),
	}

	if o.cache != nil && !resp.Degraded {
		o.cache.Set(cacheKey(req), resp)
	}

	return resp, nil
}

// Close stops the response cache's cleanup loop
func (o *Orchestrator) Close() {
	if o.cache != nil {
		o.cache.Close()
	}
}

// cacheKey scopes cached responses by language as well as query text, so
// one user's localized answer is never replayed to another locale
func cacheKey(req QueryRequest) string {
	return normalizeQuery(req.Query) + "|" + req.Context.Language
}
