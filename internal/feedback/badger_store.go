package feedback

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/concierge/concierge/internal/models"
)

const (
	caseKeyPrefix    = "feedback:case:"
	patternKeyPrefix = "feedback:pattern:"
)

// BadgerStore persists feedback entries and mined patterns in a single
// BadgerDB instance. Case keys embed the write timestamp so a reverse
// scan yields entries newest first.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) the store at path
func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(expandPath(path)).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	return &BadgerStore{db: db}, nil
}

// Put persists an entry under a timestamp-ordered key
func (s *BadgerStore) Put(ctx context.Context, entry *models.FeedbackEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	key := []byte(fmt.Sprintf("%s%020d:%s", caseKeyPrefix, entry.Timestamp.UnixNano(), entry.ID))
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

// Recent scans case keys in reverse order, applying the predicate until
// limit entries are collected
func (s *BadgerStore) Recent(ctx context.Context, match func(*models.FeedbackEntry) bool, limit int) ([]*models.FeedbackEntry, error) {
	var entries []*models.FeedbackEntry

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(caseKeyPrefix)
		opts.Reverse = true

		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration starts past the highest case key
		seek := append([]byte(caseKeyPrefix), 0xFF)
		for it.Seek(seek); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var entry models.FeedbackEntry
				if err := json.Unmarshal(val, &entry); err != nil {
					return nil // skip malformed entries
				}
				if match != nil && !match(&entry) {
					return nil
				}
				entries = append(entries, &entry)
				return nil
			})
			if err != nil {
				continue
			}
			if limit > 0 && len(entries) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// Count returns the number of stored case entries
func (s *BadgerStore) Count(ctx context.Context) (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(caseKeyPrefix)
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// StorePattern persists a mined pattern; each pass writes a fresh key
func (s *BadgerStore) StorePattern(ctx context.Context, pattern *models.Pattern) error {
	data, err := json.Marshal(pattern)
	if err != nil {
		return fmt.Errorf("failed to marshal pattern: %w", err)
	}

	key := []byte(patternKeyPrefix + pattern.ID)
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

// TopPatterns loads all patterns and returns them by frequency descending
func (s *BadgerStore) TopPatterns(ctx context.Context, patternType *models.PatternType, limit int) ([]*models.Pattern, error) {
	var patterns []*models.Pattern

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(patternKeyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var pattern models.Pattern
				if err := json.Unmarshal(val, &pattern); err != nil {
					return nil
				}
				if patternType != nil && pattern.Type != *patternType {
					return nil
				}
				patterns = append(patterns, &pattern)
				return nil
			})
			if err != nil {
				continue
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].Frequency > patterns[j].Frequency
	})

	if limit > 0 && len(patterns) > limit {
		patterns = patterns[:limit]
	}
	return patterns, nil
}

// Close closes the BadgerDB instance
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// expandPath expands ~ to the home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
