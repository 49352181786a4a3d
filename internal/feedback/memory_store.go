package feedback

import (
	"context"
	"sort"
	"sync"

	"github.com/concierge/concierge/internal/models"
)

// MemoryCaseStore is the in-process CaseStore used by tests and by
// deployments without a Badger directory configured.
type MemoryCaseStore struct {
	mu      sync.RWMutex
	entries []*models.FeedbackEntry
}

// NewMemoryCaseStore creates an empty in-memory case store
func NewMemoryCaseStore() *MemoryCaseStore {
	return &MemoryCaseStore{}
}

// Put appends an entry. A copy is stored so callers cannot mutate history
// after the fact.
func (s *MemoryCaseStore) Put(ctx context.Context, entry *models.FeedbackEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cp := *entry
	s.mu.Lock()
	s.entries = append(s.entries, &cp)
	s.mu.Unlock()
	return nil
}

// Recent returns matching entries newest first
func (s *MemoryCaseStore) Recent(ctx context.Context, match func(*models.FeedbackEntry) bool, limit int) ([]*models.FeedbackEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.FeedbackEntry
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if match != nil && !match(e) {
			continue
		}
		cp := *e
		out = append(out, &cp)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Count returns the number of stored entries
func (s *MemoryCaseStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

func (s *MemoryCaseStore) Close() error { return nil }

// MemoryPatternStore is the in-process PatternStore counterpart
type MemoryPatternStore struct {
	mu       sync.RWMutex
	patterns []*models.Pattern
}

// NewMemoryPatternStore creates an empty in-memory pattern store
func NewMemoryPatternStore() *MemoryPatternStore {
	return &MemoryPatternStore{}
}

// StorePattern appends a pattern; prior patterns stay untouched
func (s *MemoryPatternStore) StorePattern(ctx context.Context, pattern *models.Pattern) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cp := *pattern
	s.mu.Lock()
	s.patterns = append(s.patterns, &cp)
	s.mu.Unlock()
	return nil
}

// TopPatterns returns patterns by frequency descending
func (s *MemoryPatternStore) TopPatterns(ctx context.Context, patternType *models.PatternType, limit int) ([]*models.Pattern, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Pattern
	for _, p := range s.patterns {
		if patternType != nil && p.Type != *patternType {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Frequency > out[j].Frequency })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryPatternStore) Close() error { return nil }

// MemoryConfigStore is the in-process ConfigStore counterpart
type MemoryConfigStore struct {
	mu     sync.RWMutex
	values map[string]float64
}

// NewMemoryConfigStore creates an empty in-memory config store
func NewMemoryConfigStore() *MemoryConfigStore {
	return &MemoryConfigStore{values: make(map[string]float64)}
}

// Get reads a parameter; the second return reports presence
func (s *MemoryConfigStore) Get(ctx context.Context, key string) (float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

// Set writes a parameter
func (s *MemoryConfigStore) Set(ctx context.Context, key string, value float64) error {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	return nil
}

func (s *MemoryConfigStore) Close() error { return nil }
