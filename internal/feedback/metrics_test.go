package feedback

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/concierge/concierge/internal/models"
)

func entryAt(ts time.Time, accuracy int) *models.FeedbackEntry {
	return &models.FeedbackEntry{
		ID:        fmt.Sprintf("e-%d-%d", ts.UnixNano(), accuracy),
		Timestamp: ts,
		CaseID:    "case",
		Prediction: models.Prediction{
			Success:    true,
			Timeline:   "6 weeks",
			Investment: "35000 USD",
		},
		Outcome: models.Outcome{
			ActualSuccess:  true,
			ActualTimeline: "8 weeks",
			ActualCost:     "35000 USD",
		},
		Accuracy: accuracy,
	}
}

// TestRecomputeEmpty verifies a fresh store produces a zero snapshot, not
// an error
func TestRecomputeEmpty(t *testing.T) {
	m := NewMetricsAggregator(NewMemoryCaseStore(), nil)

	snap, err := m.Recompute(context.Background())
	if err != nil {
		t.Fatalf("Recompute failed: %v", err)
	}
	if snap.TotalCases != 0 {
		t.Errorf("TotalCases = %d, want 0", snap.TotalCases)
	}
	if snap.AccuracyRate != 0 {
		t.Errorf("AccuracyRate = %v, want 0", snap.AccuracyRate)
	}
	if snap.Improvements != nil {
		t.Errorf("Improvements = %v, want nil", snap.Improvements)
	}
}

// TestRecomputeMeans verifies the snapshot averages over the full history
func TestRecomputeMeans(t *testing.T) {
	cases := NewMemoryCaseStore()
	ctx := context.Background()
	now := time.Now().UTC()

	for _, acc := range []int{60, 80, 100} {
		if err := cases.Put(ctx, entryAt(now, acc)); err != nil {
			t.Fatal(err)
		}
	}

	m := NewMetricsAggregator(cases, nil)
	snap, err := m.Recompute(ctx)
	if err != nil {
		t.Fatalf("Recompute failed: %v", err)
	}

	if snap.TotalCases != 3 {
		t.Errorf("TotalCases = %d, want 3", snap.TotalCases)
	}
	if snap.AccuracyRate != 80 {
		t.Errorf("AccuracyRate = %v, want 80", snap.AccuracyRate)
	}
	if math.Abs(snap.TimelinePrecision-0.75) > 1e-9 {
		t.Errorf("TimelinePrecision = %v, want 0.75", snap.TimelinePrecision)
	}
	if math.Abs(snap.CostPrecision-1) > 1e-9 {
		t.Errorf("CostPrecision = %v, want 1", snap.CostPrecision)
	}
}

// TestSnapshotBeforeRecompute verifies Snapshot is nil until the first
// recompute and stable afterwards
func TestSnapshotBeforeRecompute(t *testing.T) {
	m := NewMetricsAggregator(NewMemoryCaseStore(), nil)

	if m.Snapshot() != nil {
		t.Error("Snapshot should be nil before the first recompute")
	}
	if _, err := m.Recompute(context.Background()); err != nil {
		t.Fatal(err)
	}
	if m.Snapshot() == nil {
		t.Error("Snapshot should be set after recompute")
	}
}

// TestImprovementsRequireBothWindows verifies the accuracy trend is only
// reported when both the older and the recent window carry enough samples
func TestImprovementsRequireBothWindows(t *testing.T) {
	cases := NewMemoryCaseStore()
	ctx := context.Background()
	now := time.Now().UTC()
	old := now.Add(-45 * 24 * time.Hour)

	// Nine old entries: one short of the window minimum
	for i := 0; i < 9; i++ {
		if err := cases.Put(ctx, entryAt(old, 60)); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 10; i++ {
		if err := cases.Put(ctx, entryAt(now, 85)); err != nil {
			t.Fatal(err)
		}
	}

	m := NewMetricsAggregator(cases, nil)
	snap, err := m.Recompute(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Improvements != nil {
		t.Errorf("nine old samples should suppress the trend, got %+v", snap.Improvements)
	}

	// The tenth old entry completes both windows
	if err := cases.Put(ctx, entryAt(old, 60)); err != nil {
		t.Fatal(err)
	}
	snap, err = m.Recompute(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Improvements) != 1 {
		t.Fatalf("Improvements = %+v, want one accuracy trend", snap.Improvements)
	}

	imp := snap.Improvements[0]
	if imp.Metric != "accuracy" {
		t.Errorf("Metric = %q, want accuracy", imp.Metric)
	}
	if imp.OlderMean != 60 || imp.RecentMean != 85 {
		t.Errorf("means = %v, %v; want 60, 85", imp.OlderMean, imp.RecentMean)
	}
	if imp.Delta != 25 {
		t.Errorf("Delta = %v, want 25", imp.Delta)
	}
	if imp.OlderSamples != 10 || imp.RecentSamples != 10 {
		t.Errorf("samples = %d, %d; want 10, 10", imp.OlderSamples, imp.RecentSamples)
	}
}
