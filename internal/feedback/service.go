package feedback

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/concierge/concierge/internal/models"
)

// Service is the feedback-path facade: it records prediction/outcome
// pairs, scores them, applies calibration adjustments, mines patterns,
// and keeps aggregate metrics current.
type Service struct {
	cases    CaseStore
	patterns PatternStore
	config   ConfigStore
	audit    AdjustmentLog

	applier    *AdjustmentApplier
	miner      *PatternMiner
	aggregator *MetricsAggregator

	cfg *Config
	log *logrus.Logger
}

// NewService wires the feedback path over the given stores. audit may be
// nil when no durable adjustment trail is wanted.
func NewService(cases CaseStore, patterns PatternStore, config ConfigStore, audit AdjustmentLog, cfg *Config, log *logrus.Logger) *Service {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = logrus.New()
	}

	return &Service{
		cases:      cases,
		patterns:   patterns,
		config:     config,
		audit:      audit,
		applier:    NewAdjustmentApplier(config, cfg.AccuracyThreshold, log),
		miner:      NewPatternMiner(cases, patterns, cfg),
		aggregator: NewMetricsAggregator(cases, cfg),
		cfg:        cfg,
		log:        log,
	}
}

// RecordFeedback persists one prediction/outcome comparison and runs the
// full post-write pipeline synchronously: accuracy, lesson, adjustments,
// pattern mining, metrics recompute. The caller sees a consistent
// post-write state when this returns.
func (s *Service) RecordFeedback(ctx context.Context, caseID string, prediction *models.Prediction, outcome *models.Outcome) (*models.FeedbackEntry, error) {
	if err := validateFeedback(caseID, prediction, outcome); err != nil {
		return nil, err
	}

	accuracy := ScoreAccuracy(*prediction, *outcome)

	adjustments, err := s.applier.Apply(ctx, *prediction, *outcome, accuracy)
	if err != nil {
		// Adjustments are calibration, not ground truth; a config-store
		// hiccup must not block recording the entry itself.
		s.log.WithError(err).Warn("adjustment application incomplete")
	}

	entry := &models.FeedbackEntry{
		ID:            uuid.NewString(),
		Timestamp:     time.Now().UTC(),
		CaseID:        caseID,
		Prediction:    *prediction,
		Outcome:       *outcome,
		Accuracy:      accuracy,
		LessonLearned: deriveLesson(*prediction, *outcome),
		Adjustments:   adjustments,
	}

	if err := s.cases.Put(ctx, entry); err != nil {
		return nil, &PersistenceError{Op: "record feedback", Err: err}
	}

	if s.audit != nil {
		for _, adj := range adjustments {
			if err := s.audit.Record(ctx, entry.ID, adj); err != nil {
				s.log.WithError(err).WithField("key", adj.Key()).Error("adjustment audit write failed")
			}
		}
	}

	if _, err := s.miner.MineForEntry(ctx, entry); err != nil {
		s.log.WithError(err).Warn("pattern mining pass failed")
	}

	if _, err := s.aggregator.Recompute(ctx); err != nil {
		s.log.WithError(err).Warn("metrics recompute failed")
	}

	s.log.WithFields(logrus.Fields{
		"case":     caseID,
		"accuracy": accuracy,
	}).Info("feedback recorded")

	return entry, nil
}

// GetMetrics returns the current metrics snapshot, computing one on first
// use
func (s *Service) GetMetrics(ctx context.Context) (*models.MetricsSnapshot, error) {
	if snap := s.aggregator.Snapshot(); snap != nil {
		return snap, nil
	}
	return s.aggregator.Recompute(ctx)
}

// GetPatterns returns mined patterns ordered by frequency descending,
// optionally filtered by type, capped at the configured maximum
func (s *Service) GetPatterns(ctx context.Context, patternType *models.PatternType) ([]*models.Pattern, error) {
	return s.patterns.TopPatterns(ctx, patternType, s.cfg.MaxPatternsReturned)
}

// EnhancePrediction applies mined patterns and live calibration
// parameters to a draft prediction before it is shown to a user. Mining
// supersedes patterns rather than mutating them, so only the latest pass
// per type is applied; replaying the whole history would compound the
// same buffer once per pass.
func (s *Service) EnhancePrediction(ctx context.Context, prediction models.Prediction, caseDetails map[string]interface{}) (models.Prediction, error) {
	enhanced := prediction

	patterns, err := s.patterns.TopPatterns(ctx, nil, 0)
	if err != nil {
		return prediction, fmt.Errorf("loading patterns: %w", err)
	}

	latest := make(map[models.PatternType]*models.Pattern)
	for _, p := range patterns {
		if cur, ok := latest[p.Type]; !ok || p.MinedAt.After(cur.MinedAt) {
			latest[p.Type] = p
		}
	}

	order := []models.PatternType{models.PatternFailure, models.PatternDelay, models.PatternCostOverrun}
	for _, t := range order {
		p, ok := latest[t]
		if !ok || p.Confidence < 0.5 {
			continue
		}
		switch t {
		case models.PatternFailure:
			enhanced.Confidence = clampUnit(enhanced.Confidence * s.configOr(ctx, KeyConfidenceDiscount, 0.8))
			enhanced.Risks = appendRisk(enhanced.Risks, p.Recommendation)
		case models.PatternDelay:
			enhanced.Timeline = bufferMagnitude(enhanced.Timeline, s.configOr(ctx, KeyTimelineBuffer, 20))
		case models.PatternCostOverrun:
			enhanced.Investment = bufferMagnitude(enhanced.Investment, 10)
			enhanced.Risks = appendRisk(enhanced.Risks, p.Recommendation)
		}
	}

	return enhanced, nil
}

// Close releases every attached store
func (s *Service) Close() error {
	var errs []error
	closers := []interface{ Close() error }{s.cases, s.config}
	// A combined store (Badger) backs both cases and patterns; close once
	if interface{}(s.patterns) != interface{}(s.cases) {
		closers = append(closers, s.patterns)
	}
	for _, c := range closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.audit != nil {
		if err := s.audit.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing feedback service: %v", errs)
	}
	return nil
}

// configOr reads a calibration parameter with a fallback default
func (s *Service) configOr(ctx context.Context, key string, def float64) float64 {
	if s.config == nil {
		return def
	}
	v, ok, err := s.config.Get(ctx, key)
	if err != nil || !ok {
		return def
	}
	return v
}

// bufferMagnitude scales the first number in text up by pct percent,
// rounding up. Text without a number passes through unchanged.
func bufferMagnitude(text string, pct float64) string {
	mag, ok := ParseMagnitude(text)
	if !ok || mag == 0 {
		return text
	}
	buffered := math.Ceil(mag * (1 + pct/100))

	old := strconv.FormatFloat(mag, 'f', -1, 64)
	updated := strconv.FormatFloat(buffered, 'f', -1, 64)
	return strings.Replace(text, old, updated, 1)
}

func appendRisk(risks []string, risk string) []string {
	if risk == "" || matchesAnyRisk(risk, risks) {
		return risks
	}
	return append(risks, risk)
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
