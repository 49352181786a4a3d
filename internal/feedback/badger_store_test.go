package feedback

import (
	"context"
	"testing"
	"time"

	"github.com/concierge/concierge/internal/models"
)

func openTestBadger(t *testing.T) *BadgerStore {
	t.Helper()
	store, err := NewBadgerStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// TestBadgerPutAndRecent verifies round-tripping entries and the
// newest-first ordering of Recent
func TestBadgerPutAndRecent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping disk-backed store test in short mode")
	}

	store := openTestBadger(t)
	ctx := context.Background()
	base := time.Now().UTC()

	for i := 0; i < 5; i++ {
		entry := &models.FeedbackEntry{
			ID:        string(rune('a' + i)),
			Timestamp: base.Add(time.Duration(i) * time.Second),
			CaseID:    "case",
			Accuracy:  60 + i,
		}
		if err := store.Put(ctx, entry); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	got, err := store.Recent(ctx, nil, 3)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Recent returned %d entries, want 3", len(got))
	}
	// newest first: e, d, c
	for i, wantID := range []string{"e", "d", "c"} {
		if got[i].ID != wantID {
			t.Errorf("entry %d ID = %q, want %q", i, got[i].ID, wantID)
		}
	}
}

// TestBadgerRecentPredicate verifies the match predicate filters during
// the scan
func TestBadgerRecentPredicate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping disk-backed store test in short mode")
	}

	store := openTestBadger(t)
	ctx := context.Background()
	base := time.Now().UTC()

	for i := 0; i < 6; i++ {
		entry := &models.FeedbackEntry{
			ID:        string(rune('a' + i)),
			Timestamp: base.Add(time.Duration(i) * time.Second),
			CaseID:    "case",
			Outcome:   models.Outcome{ActualSuccess: i%2 == 0},
		}
		if err := store.Put(ctx, entry); err != nil {
			t.Fatal(err)
		}
	}

	failures, err := store.Recent(ctx, func(e *models.FeedbackEntry) bool {
		return !e.Outcome.ActualSuccess
	}, 0)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(failures) != 3 {
		t.Errorf("matched %d failures, want 3", len(failures))
	}
}

// TestBadgerCount verifies Count sees only case keys
func TestBadgerCount(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping disk-backed store test in short mode")
	}

	store := openTestBadger(t)
	ctx := context.Background()

	entry := &models.FeedbackEntry{ID: "a", Timestamp: time.Now().UTC(), CaseID: "case"}
	if err := store.Put(ctx, entry); err != nil {
		t.Fatal(err)
	}
	if err := store.StorePattern(ctx, &models.Pattern{ID: "p1", Type: models.PatternFailure}); err != nil {
		t.Fatal(err)
	}

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Count = %d, want 1 (patterns live under a separate prefix)", n)
	}
}

// TestBadgerTopPatterns verifies filter, ordering, and cap over stored
// patterns
func TestBadgerTopPatterns(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping disk-backed store test in short mode")
	}

	store := openTestBadger(t)
	ctx := context.Background()

	seed := []*models.Pattern{
		{ID: "f1", Type: models.PatternFailure, Frequency: 11},
		{ID: "f2", Type: models.PatternFailure, Frequency: 14},
		{ID: "d1", Type: models.PatternDelay, Frequency: 20},
	}
	for _, p := range seed {
		if err := store.StorePattern(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	failure := models.PatternFailure
	got, err := store.TopPatterns(ctx, &failure, 1)
	if err != nil {
		t.Fatalf("TopPatterns failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("returned %d patterns, want 1", len(got))
	}
	if got[0].ID != "f2" {
		t.Errorf("top pattern = %s, want f2 (highest failure frequency)", got[0].ID)
	}
}
