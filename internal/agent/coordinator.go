package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/concierge/concierge/internal/models"
)

// ConsultationCoordinator fans one intent out to the selected providers.
// Every call runs in its own goroutine under a shared deadline; a slow or
// failing provider is excluded from the round, never retried, and never
// blocks its siblings.
type ConsultationCoordinator struct {
	registry Registry
	timeout  time.Duration
	log      *logrus.Logger

	limiters map[string]*rate.Limiter
	mu       sync.RWMutex

	limit rate.Limit
	burst int
}

// NewConsultationCoordinator creates a coordinator over the registry
func NewConsultationCoordinator(registry Registry, config *Config, log *logrus.Logger) *ConsultationCoordinator {
	if config == nil {
		config = DefaultConfig()
	}
	if log == nil {
		log = logrus.New()
	}

	return &ConsultationCoordinator{
		registry: registry,
		timeout:  config.ConsultTimeout,
		log:      log,
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(config.ProviderRate),
		burst:    config.ProviderBurst,
	}
}

// Consult issues one concurrent call per provider and waits for every call
// to complete or time out. It never returns early on the first success;
// the result set may be smaller than the requested provider set.
// Cancellation of ctx propagates into in-flight calls; a call that
// completes after cancellation is discarded, not an error.
func (c *ConsultationCoordinator) Consult(ctx context.Context, providerIDs []string, intent models.Intent) *ConsultationOutcome {
	start := time.Now()

	results := make([]*models.ProviderResult, len(providerIDs))
	errs := make([]error, len(providerIDs))

	var wg sync.WaitGroup
	for i, id := range providerIDs {
		provider, ok := c.registry.Provider(id)
		if !ok {
			errs[i] = fmt.Errorf("provider %q not registered", id)
			continue
		}

		wg.Add(1)
		go func(idx int, p Provider) {
			defer wg.Done()
			results[idx], errs[idx] = c.callProvider(ctx, p, intent)
		}(i, provider)
	}
	wg.Wait()

	outcome := &ConsultationOutcome{Duration: time.Since(start)}
	for i, id := range providerIDs {
		if errs[i] != nil {
			c.log.WithFields(logrus.Fields{
				"provider": id,
				"topic":    intent.Primary,
			}).Warnf("provider excluded from consultation: %v", errs[i])
			outcome.Failed = append(outcome.Failed, id)
			continue
		}
		outcome.Results = append(outcome.Results, results[i])
	}

	return outcome
}

// callProvider runs a single provider call under its own deadline. The
// provider's timeout hint may tighten, but never extend, the shared bound.
func (c *ConsultationCoordinator) callProvider(ctx context.Context, p Provider, intent models.Intent) (*models.ProviderResult, error) {
	timeout := c.timeout
	if hint := p.TimeoutHint(); hint > 0 && hint < timeout {
		timeout = hint
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := c.limiter(p.ID()).Wait(callCtx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	type reply struct {
		result *models.ProviderResult
		err    error
	}

	// Buffered so a provider finishing after the deadline does not leak
	// its goroutine.
	done := make(chan reply, 1)
	go func() {
		result, err := p.Query(callCtx, intent)
		done <- reply{result, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, r.err
		}
		if r.result == nil {
			return nil, fmt.Errorf("provider %s returned no result", p.ID())
		}
		return r.result, nil
	case <-callCtx.Done():
		return nil, callCtx.Err()
	}
}

// limiter returns the per-provider token bucket, creating it on first use
func (c *ConsultationCoordinator) limiter(providerID string) *rate.Limiter {
	c.mu.RLock()
	l, ok := c.limiters[providerID]
	c.mu.RUnlock()
	if ok {
		return l
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if l, ok := c.limiters[providerID]; ok {
		return l
	}
	l = rate.NewLimiter(c.limit, c.burst)
	c.limiters[providerID] = l
	return l
}
