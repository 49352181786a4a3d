package agent

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/concierge/concierge/internal/models"
)

type stubConfigReader struct {
	values map[string]float64
}

func (s *stubConfigReader) Get(_ context.Context, key string) (float64, bool, error) {
	v, ok := s.values[key]
	return v, ok, nil
}

func fixedFormatter() *Formatter {
	return NewFormatterAt(func() time.Time {
		return time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	})
}

func result(providerID string, topic models.Topic, confidence float64, summary string) *models.ProviderResult {
	return &models.ProviderResult{
		ProviderID: providerID,
		Topic:      topic,
		Confidence: confidence,
		Payload:    map[string]interface{}{"summary": summary},
		Sources:    []string{providerID + "-kb"},
	}
}

// TestSynthesizeMaxConfidenceWins verifies the higher-confidence result
// supplies a topic's text when two providers answer the same topic
func TestSynthesizeMaxConfidenceWins(t *testing.T) {
	r := registryForTest()
	s := NewWeightedSynthesizer(r, nil, fixedFormatter())

	results := []*models.ProviderResult{
		result("business", models.TopicBusinessSetup, 0.6, "general company notes"),
		result("licensing", models.TopicBusinessSetup, 0.9, "PT PMA setup requires a notarized deed"),
	}

	resp := s.Synthesize(results, models.Intent{}, models.UserContext{}, false)
	if !strings.Contains(resp.Text, "notarized deed") {
		t.Errorf("winner text missing, got %q", resp.Text)
	}
	if strings.Contains(resp.Text, "general company notes") {
		t.Errorf("losing result leaked into text: %q", resp.Text)
	}
	if got := resp.PerDomainConfidence[models.TopicBusinessSetup]; got != 0.9 {
		t.Errorf("confidence = %v, want 0.9", got)
	}
}

// TestSynthesizeTieBreaksByRegistryOrder verifies equal confidence falls
// back to registration order, keeping the output deterministic
func TestSynthesizeTieBreaksByRegistryOrder(t *testing.T) {
	r := registryForTest()
	s := NewWeightedSynthesizer(r, nil, fixedFormatter())

	results := []*models.ProviderResult{
		result("licensing", models.TopicBusinessSetup, 0.7, "licensing view"),
		result("business", models.TopicBusinessSetup, 0.7, "business view"),
	}

	resp := s.Synthesize(results, models.Intent{}, models.UserContext{}, false)
	// business registered before licensing
	if !strings.Contains(resp.Text, "business view") {
		t.Errorf("tie should go to earlier registration, got %q", resp.Text)
	}
}

// TestSynthesizeEmptyFallback verifies zero results produce a safe
// degraded answer instead of an error
func TestSynthesizeEmptyFallback(t *testing.T) {
	r := registryForTest()
	s := NewWeightedSynthesizer(r, nil, fixedFormatter())

	resp := s.Synthesize(nil, models.Intent{}, models.UserContext{}, true)
	if !resp.Degraded {
		t.Error("fallback response should be degraded")
	}
	if resp.Text == "" {
		t.Error("fallback text should not be empty")
	}
	if len(resp.PerDomainConfidence) != 0 {
		t.Errorf("fallback should carry no domain confidences, got %v", resp.PerDomainConfidence)
	}
}

// TestSynthesizeAppliesConfidenceDiscount verifies the calibration
// parameter written by the feedback path scales reported confidence
func TestSynthesizeAppliesConfidenceDiscount(t *testing.T) {
	r := registryForTest()
	cfg := &stubConfigReader{values: map[string]float64{ConfidenceDiscountKey: 0.8}}
	s := NewWeightedSynthesizer(r, cfg, fixedFormatter())

	results := []*models.ProviderResult{
		result("tax", models.TopicTax, 0.9, "corporate income tax is 22%"),
	}

	resp := s.Synthesize(results, models.Intent{}, models.UserContext{}, false)
	got := resp.PerDomainConfidence[models.TopicTax]
	if got < 0.719 || got > 0.721 {
		t.Errorf("discounted confidence = %v, want 0.72", got)
	}
}

// TestSynthesizeIgnoresBadDiscount verifies out-of-range calibration
// values are treated as absent
func TestSynthesizeIgnoresBadDiscount(t *testing.T) {
	r := registryForTest()
	cfg := &stubConfigReader{values: map[string]float64{ConfidenceDiscountKey: 1.7}}
	s := NewWeightedSynthesizer(r, cfg, fixedFormatter())

	results := []*models.ProviderResult{
		result("tax", models.TopicTax, 0.9, "corporate income tax is 22%"),
	}

	resp := s.Synthesize(results, models.Intent{}, models.UserContext{}, false)
	if got := resp.PerDomainConfidence[models.TopicTax]; got != 0.9 {
		t.Errorf("confidence = %v, want 0.9 with invalid discount", got)
	}
}

// TestSynthesizeMultipleTopics verifies each answered topic contributes
// a section and a source annotation
func TestSynthesizeMultipleTopics(t *testing.T) {
	r := registryForTest()
	s := NewWeightedSynthesizer(r, nil, fixedFormatter())

	results := []*models.ProviderResult{
		result("business", models.TopicBusinessSetup, 0.8, "register the PT PMA first"),
		result("tax", models.TopicTax, 0.7, "then obtain an NPWP"),
	}

	resp := s.Synthesize(results, models.Intent{}, models.UserContext{}, false)
	for _, want := range []string{"register the PT PMA first", "then obtain an NPWP", "business-kb", "tax-kb"} {
		if !strings.Contains(resp.Text, want) {
			t.Errorf("response missing %q:\n%s", want, resp.Text)
		}
	}
	if len(resp.SourcesUsed) != 2 {
		t.Errorf("SourcesUsed size = %d, want 2", len(resp.SourcesUsed))
	}
}

// TestFormatterGreetingDeterminism verifies the greeting depends only on
// the pinned clock and language
func TestFormatterGreetingDeterminism(t *testing.T) {
	cases := []struct {
		hour     int
		language string
		want     string
	}{
		{8, "en", "Good morning!"},
		{14, "en", "Good afternoon!"},
		{21, "en", "Good evening!"},
		{8, "id", "Selamat pagi!"},
		{12, "id", "Selamat siang!"},
		{16, "id", "Selamat sore!"},
		{22, "id", "Selamat malam!"},
	}

	for _, tc := range cases {
		f := NewFormatterAt(func() time.Time {
			return time.Date(2025, 3, 10, tc.hour, 0, 0, 0, time.UTC)
		})
		got := f.Format("body", models.Intent{}, models.UserContext{Language: tc.language})
		if !strings.HasPrefix(got, tc.want) {
			t.Errorf("hour %d lang %s: got prefix %q, want %q", tc.hour, tc.language, got, tc.want)
		}
	}
}

// TestFormatterUrgencyAndFormality verifies register decorations
func TestFormatterUrgencyAndFormality(t *testing.T) {
	f := fixedFormatter()

	intent := models.Intent{Urgency: models.UrgencyHigh, Formality: models.FormalityRespectful}
	got := f.Format("body", intent, models.UserContext{Language: "en"})

	if !strings.Contains(got, "priority") {
		t.Errorf("urgent response missing priority note: %q", got)
	}
	if !strings.Contains(got, "With our respects.") {
		t.Errorf("respectful response missing closer: %q", got)
	}
}
