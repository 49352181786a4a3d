package agent

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/concierge/concierge/internal/models"
)

// stubProvider is a controllable provider for coordinator tests
type stubProvider struct {
	id         string
	topic      models.Topic
	confidence float64
	delay      time.Duration
	hang       bool
	err        error
}

func (p *stubProvider) ID() string                 { return p.id }
func (p *stubProvider) Topic() models.Topic        { return p.topic }
func (p *stubProvider) TimeoutHint() time.Duration { return 0 }

func (p *stubProvider) Query(ctx context.Context, intent models.Intent) (*models.ProviderResult, error) {
	if p.hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	return &models.ProviderResult{
		ProviderID: p.id,
		Topic:      p.topic,
		Payload:    map[string]interface{}{"summary": "answer from " + p.id},
		Confidence: p.confidence,
		Sources:    []string{"stub"},
	}, nil
}

func testConfig(timeout time.Duration) *Config {
	cfg := DefaultConfig()
	cfg.ConsultTimeout = timeout
	cfg.ProviderRate = 1000
	cfg.ProviderBurst = 1000
	cfg.CacheTTL = 0
	return cfg
}

// TestConsultAllProvidersAnswer verifies a clean round returns every
// requested provider's result
func TestConsultAllProvidersAnswer(t *testing.T) {
	providers := []Provider{
		&stubProvider{id: "a", topic: models.TopicTax, confidence: 0.9},
		&stubProvider{id: "b", topic: models.TopicLegal, confidence: 0.8},
	}
	registry := NewStaticRegistry(providers, nil)
	c := NewConsultationCoordinator(registry, testConfig(time.Second), nil)

	outcome := c.Consult(context.Background(), []string{"a", "b"}, models.Intent{})
	if len(outcome.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(outcome.Results))
	}
	if len(outcome.Failed) != 0 {
		t.Errorf("expected no failures, got %v", outcome.Failed)
	}
}

// TestConsultExcludesHungProvider verifies the coordinator returns within
// the timeout bound and excludes a provider that never responds
func TestConsultExcludesHungProvider(t *testing.T) {
	providers := []Provider{
		&stubProvider{id: "fast", topic: models.TopicTax, confidence: 0.9},
		&stubProvider{id: "hung", topic: models.TopicLegal, hang: true},
	}
	registry := NewStaticRegistry(providers, nil)
	c := NewConsultationCoordinator(registry, testConfig(100*time.Millisecond), nil)

	start := time.Now()
	outcome := c.Consult(context.Background(), []string{"fast", "hung"}, models.Intent{})
	elapsed := time.Since(start)

	if elapsed > time.Second {
		t.Errorf("consult took %v, expected to return near the 100ms bound", elapsed)
	}
	if len(outcome.Results) != 1 || outcome.Results[0].ProviderID != "fast" {
		t.Fatalf("expected only the fast provider's result, got %+v", outcome.Results)
	}
	if len(outcome.Failed) != 1 || outcome.Failed[0] != "hung" {
		t.Errorf("expected hung provider in failed list, got %v", outcome.Failed)
	}
}

// TestConsultIsolatesFailure verifies an erroring provider does not
// disturb its siblings and is never retried
func TestConsultIsolatesFailure(t *testing.T) {
	providers := []Provider{
		&stubProvider{id: "ok", topic: models.TopicTax, confidence: 0.9},
		&stubProvider{id: "broken", topic: models.TopicLegal, err: fmt.Errorf("lookup table corrupt")},
	}
	registry := NewStaticRegistry(providers, nil)
	c := NewConsultationCoordinator(registry, testConfig(time.Second), nil)

	outcome := c.Consult(context.Background(), []string{"ok", "broken"}, models.Intent{})
	if len(outcome.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(outcome.Results))
	}
	if outcome.Results[0].ProviderID != "ok" {
		t.Errorf("expected result from ok provider, got %s", outcome.Results[0].ProviderID)
	}
}

// TestConsultCancellationPropagates verifies caller cancellation reaches
// in-flight provider calls
func TestConsultCancellationPropagates(t *testing.T) {
	providers := []Provider{
		&stubProvider{id: "slow", topic: models.TopicTax, delay: 10 * time.Second, confidence: 0.9},
	}
	registry := NewStaticRegistry(providers, nil)
	c := NewConsultationCoordinator(registry, testConfig(time.Minute), nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	outcome := c.Consult(ctx, []string{"slow"}, models.Intent{})
	if time.Since(start) > time.Second {
		t.Errorf("cancellation did not propagate promptly")
	}
	if len(outcome.Results) != 0 {
		t.Errorf("expected no results after cancellation, got %d", len(outcome.Results))
	}
}

// TestConsultUnknownProvider verifies an unregistered ID lands in the
// failed list instead of panicking
func TestConsultUnknownProvider(t *testing.T) {
	registry := NewStaticRegistry(nil, nil)
	c := NewConsultationCoordinator(registry, testConfig(time.Second), nil)

	outcome := c.Consult(context.Background(), []string{"ghost"}, models.Intent{})
	if len(outcome.Failed) != 1 || outcome.Failed[0] != "ghost" {
		t.Errorf("expected ghost in failed list, got %v", outcome.Failed)
	}
}
