package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/concierge/concierge/internal/models"
)

// ConfigReader exposes the live calibration parameters written by the
// feedback path. The synthesizer reads the confidence discount through it.
type ConfigReader interface {
	Get(ctx context.Context, key string) (float64, bool, error)
}

// ConfidenceDiscountKey is the calibration parameter the synthesizer
// applies to every per-domain confidence.
const ConfidenceDiscountKey = "response_synthesizer.confidence_discount"

// WeightedSynthesizer merges provider results into one response, weighting
// by confidence. Merge logic is deliberately separate from formatting so
// each can be tested on its own.
type WeightedSynthesizer struct {
	registry  Registry
	config    ConfigReader
	formatter *Formatter
}

// NewWeightedSynthesizer creates a synthesizer. config may be nil, in
// which case no confidence discount applies.
func NewWeightedSynthesizer(registry Registry, config ConfigReader, formatter *Formatter) *WeightedSynthesizer {
	if formatter == nil {
		formatter = NewFormatter()
	}
	return &WeightedSynthesizer{
		registry:  registry,
		config:    config,
		formatter: formatter,
	}
}

// Synthesize merges results keyed by topic. For any topic answered by more
// than one provider the maximum confidence wins, with registry order
// breaking ties; the winner's payload supplies that topic's text. An empty
// result set yields a safe fallback answer, never an error.
func (s *WeightedSynthesizer) Synthesize(results []*models.ProviderResult, intent models.Intent, userCtx models.UserContext, degraded bool) models.SynthesizedResponse {
	if len(results) == 0 {
		return s.fallback(userCtx)
	}

	winners := make(map[models.Topic]*models.ProviderResult)
	for _, r := range results {
		current, ok := winners[r.Topic]
		if !ok || beats(r, current, s.registry) {
			winners[r.Topic] = r
		}
	}

	discount := s.confidenceDiscount()

	topics := make([]models.Topic, 0, len(winners))
	for t := range winners {
		topics = append(topics, t)
	}
	sort.Slice(topics, func(i, j int) bool {
		return s.registry.Order(winners[topics[i]].ProviderID) < s.registry.Order(winners[topics[j]].ProviderID)
	})

	resp := models.SynthesizedResponse{
		PerDomainConfidence: make(map[models.Topic]float64, len(winners)),
		SourcesUsed:         make(map[models.Topic]string, len(winners)),
		Degraded:            degraded,
	}

	var sections []string
	for _, t := range topics {
		w := winners[t]
		resp.PerDomainConfidence[t] = clamp01(w.Confidence * discount)
		resp.SourcesUsed[t] = strings.Join(w.Sources, ", ")
		if summary, ok := w.Payload["summary"].(string); ok && summary != "" {
			sections = append(sections, summary)
		}
	}

	body := strings.Join(sections, "\n\n")
	if notes := summarizeSources(resp); notes != "" {
		body += "\n\n" + notes
	}
	resp.Text = s.formatter.Format(body, intent, userCtx)
	return resp
}

// fallback is the domain-agnostic answer used when zero providers
// responded. It is always degraded and never an error.
func (s *WeightedSynthesizer) fallback(userCtx models.UserContext) models.SynthesizedResponse {
	return models.SynthesizedResponse{
		Text:                s.formatter.Fallback(userCtx),
		PerDomainConfidence: map[models.Topic]float64{},
		SourcesUsed:         map[models.Topic]string{},
		Degraded:            true,
	}
}

func (s *WeightedSynthesizer) confidenceDiscount() float64 {
	if s.config == nil {
		return 1
	}
	v, ok, err := s.config.Get(context.Background(), ConfidenceDiscountKey)
	if err != nil || !ok || v <= 0 || v > 1 {
		return 1
	}
	return v
}

// beats reports whether a should replace b as a topic's winner
func beats(a, b *models.ProviderResult, registry Registry) bool {
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	return registry.Order(a.ProviderID) < registry.Order(b.ProviderID)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// describeConfidence renders a confidence level for display
func describeConfidence(c float64) string {
	switch {
	case c >= 0.85:
		return "high"
	case c >= 0.6:
		return "moderate"
	default:
		return "indicative"
	}
}

// summarizeSources renders the per-topic source annotation block
func summarizeSources(resp models.SynthesizedResponse) string {
	if len(resp.SourcesUsed) == 0 {
		return ""
	}
	topics := make([]string, 0, len(resp.SourcesUsed))
	for t := range resp.SourcesUsed {
		topics = append(topics, string(t))
	}
	sort.Strings(topics)

	var b strings.Builder
	for _, t := range topics {
		conf := resp.PerDomainConfidence[models.Topic(t)]
		fmt.Fprintf(&b, "%s (%s confidence): %s\n", t, describeConfidence(conf), resp.SourcesUsed[models.Topic(t)])
	}
	return b.String()
}
