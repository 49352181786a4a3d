package feedback

import (
	"context"
	"time"

	"github.com/concierge/concierge/internal/models"
)

// CaseStore is the append-only log of feedback entries. Entries are
// immutable once written.
type CaseStore interface {
	// Put persists an entry; each entry is written exactly once
	Put(ctx context.Context, entry *models.FeedbackEntry) error

	// Recent returns up to limit entries, newest first, that satisfy the
	// predicate. A nil predicate matches everything; limit <= 0 means no
	// cap.
	Recent(ctx context.Context, match func(*models.FeedbackEntry) bool, limit int) ([]*models.FeedbackEntry, error)

	// Count returns the number of stored entries
	Count(ctx context.Context) (int, error)

	Close() error
}

// PatternStore keeps the mined pattern history. A mining pass always
// writes a new pattern; prior passes are never mutated.
type PatternStore interface {
	StorePattern(ctx context.Context, pattern *models.Pattern) error

	// TopPatterns returns patterns ordered by frequency descending,
	// optionally filtered by type (nil matches all), capped at limit.
	TopPatterns(ctx context.Context, patternType *models.PatternType, limit int) ([]*models.Pattern, error)

	Close() error
}

// ConfigStore is the live calibration parameter map shared with the query
// path. Writes must be serialized by the caller holding a single-writer
// lock; lost updates here would silently undo calibration.
type ConfigStore interface {
	Get(ctx context.Context, key string) (float64, bool, error)
	Set(ctx context.Context, key string, value float64) error
	Close() error
}

// AdjustmentLog is the durable audit trail of applied adjustments
type AdjustmentLog interface {
	Record(ctx context.Context, entryID string, adj models.Adjustment) error
	ByComponent(ctx context.Context, component string, limit int) ([]models.Adjustment, error)
	Close() error
}

// Calibration parameter keys written by the adjustment applier and read
// by the query path and by prediction enhancement.
const (
	KeyTimelineBuffer     = "timeline_predictor.buffer_percentage"
	KeyRiskBreadth        = "risk_assessor.breadth_factor"
	KeyConfidenceDiscount = "response_synthesizer.confidence_discount"
)

// Config holds feedback-path configuration
type Config struct {
	// Pattern mining
	MiningWindow      int // most recent entries scanned per pass
	MinPatternSamples int // matches required before a pattern is emitted

	// Adjustment gate: entries at or above this accuracy trigger nothing
	AccuracyThreshold int

	// Metrics improvement window
	ImprovementWindow time.Duration
	MinWindowSamples  int

	// Result caps
	MaxPatternsReturned int
}

// DefaultConfig returns default feedback-path configuration
func DefaultConfig() *Config {
	return &Config{
		MiningWindow:        50,
		MinPatternSamples:   10,
		AccuracyThreshold:   80,
		ImprovementWindow:   30 * 24 * time.Hour,
		MinWindowSamples:    10,
		MaxPatternsReturned: 20,
	}
}
