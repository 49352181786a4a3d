package feedback

import (
	"context"
	"sync"
	"time"

	"github.com/concierge/concierge/internal/models"
)

// MetricsAggregator recomputes a full snapshot from the complete case
// history on every feedback write. Batch recompute is fine at concierge
// scale; the interface leaves room for a running-sums implementation when
// write volume demands it.
type MetricsAggregator struct {
	cases  CaseStore
	window time.Duration
	minN   int

	mu       sync.RWMutex
	snapshot *models.MetricsSnapshot
}

// NewMetricsAggregator creates an aggregator over the case store
func NewMetricsAggregator(cases CaseStore, config *Config) *MetricsAggregator {
	if config == nil {
		config = DefaultConfig()
	}
	return &MetricsAggregator{
		cases:  cases,
		window: config.ImprovementWindow,
		minN:   config.MinWindowSamples,
	}
}

// Recompute rebuilds the snapshot from the full history and swaps it in
// atomically; readers never observe a half-written snapshot.
func (m *MetricsAggregator) Recompute(ctx context.Context) (*models.MetricsSnapshot, error) {
	entries, err := m.cases.Recent(ctx, nil, 0)
	if err != nil {
		return nil, err
	}

	snap := &models.MetricsSnapshot{
		TotalCases: len(entries),
		ComputedAt: time.Now().UTC(),
	}

	if len(entries) > 0 {
		var accSum, tlSum, costSum, riskSum float64
		for _, e := range entries {
			accSum += float64(e.Accuracy)
			tlSum += MagnitudeSimilarity(e.Prediction.Timeline, e.Outcome.ActualTimeline)
			costSum += MagnitudeSimilarity(e.Prediction.Investment, e.Outcome.ActualCost)
			riskSum += RiskSetSimilarity(e.Prediction.Risks, e.Outcome.ActualProblems)
		}
		n := float64(len(entries))
		snap.AccuracyRate = accSum / n
		snap.TimelinePrecision = tlSum / n
		snap.CostPrecision = costSum / n
		snap.RiskPredictionAccuracy = riskSum / n
	}

	snap.Improvements = m.improvements(entries, time.Now().UTC())

	m.mu.Lock()
	m.snapshot = snap
	m.mu.Unlock()

	return snap, nil
}

// Snapshot returns the latest snapshot, or nil before the first recompute
func (m *MetricsAggregator) Snapshot() *models.MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// improvements compares mean accuracy of entries older than the window
// against entries within it. Emitted only when both windows carry enough
// samples to mean anything.
func (m *MetricsAggregator) improvements(entries []*models.FeedbackEntry, now time.Time) []models.Improvement {
	cutoff := now.Add(-m.window)

	var olderSum, recentSum float64
	var olderN, recentN int
	for _, e := range entries {
		if e.Timestamp.Before(cutoff) {
			olderSum += float64(e.Accuracy)
			olderN++
		} else {
			recentSum += float64(e.Accuracy)
			recentN++
		}
	}

	if olderN < m.minN || recentN < m.minN {
		return nil
	}

	olderMean := olderSum / float64(olderN)
	recentMean := recentSum / float64(recentN)

	return []models.Improvement{{
		Metric:        "accuracy",
		OlderMean:     olderMean,
		RecentMean:    recentMean,
		Delta:         recentMean - olderMean,
		OlderSamples:  olderN,
		RecentSamples: recentN,
	}}
}
